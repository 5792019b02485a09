package mitraillette

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findOption(options []Option, c Combination) (Option, bool) {
	for _, opt := range options {
		if opt.Combination == c {
			return opt, true
		}
	}
	return Option{}, false
}

func TestRollStatsProbabilities(t *testing.T) {
	for nDice := 1; nDice <= maxNumDice; nDice++ {
		stats := StatsFor(nDice)
		assert.Equal(t, nDice, stats.NumDice)
		assert.InDelta(t, ProbabilityOfBust(nDice), stats.Bust, 1e-15)

		total := stats.Bust
		for _, choice := range stats.Choices {
			require.NotEmpty(t, choice.Options)
			total += choice.Prob

			best := 0
			for _, opt := range choice.Options {
				best = max(best, opt.Value)
				assert.GreaterOrEqual(t, opt.RerollDice, 1)
				assert.LessOrEqual(t, opt.RerollDice, maxNumDice)
			}
			assert.Equal(t, best, choice.MaxValue)
		}
		assert.InDelta(t, 1.0, total, 1e-12, "%d dice", nDice)
	}
}

func TestOptionsHotDice(t *testing.T) {
	threeOnes := EnumerateCombinations(NewRoll(1, 1, 1).Histogram())
	require.True(t, threeOnes.Equal(NewChoiceSet(NewSingleTriple(faceOne, 0, 0))))

	// All three dice in hand are used, so the full pool is rolled again.
	opts := NewOptions(3, threeOnes)
	require.Len(t, opts, 1)
	assert.Equal(t, 1000, opts[0].Value)
	assert.Equal(t, maxNumDice, opts[0].RerollDice)

	// The same triple out of six dice leaves three to roll.
	opts = NewOptions(6, threeOnes)
	assert.Equal(t, 3, opts[0].RerollDice)

	found := false
	for _, choice := range StatsFor(3).Choices {
		if opt, ok := findOption(choice.Options, NewSingleTriple(faceOne, 0, 0)); ok {
			assert.Equal(t, maxNumDice, opt.RerollDice)
			found = true
		}
	}
	assert.True(t, found)
}

func TestOptionsNeverRerollZeroDice(t *testing.T) {
	for nDice := 1; nDice <= maxNumDice; nDice++ {
		for _, choice := range StatsFor(nDice).Choices {
			for _, opt := range choice.Options {
				if opt.Combination.DiceCost() == nDice {
					assert.Equal(t, maxNumDice, opt.RerollDice, "%v", opt.Combination)
				} else {
					assert.Equal(t, nDice-opt.Combination.DiceCost(), opt.RerollDice)
				}
			}
		}
	}
}

func TestStraightStopValue(t *testing.T) {
	choices := EnumerateCombinations(NewRoll(1, 2, 3, 4, 5, 6).Histogram())
	opts := NewOptions(6, choices)
	straight, ok := findOption(opts, NewStraight())
	require.True(t, ok)
	assert.Equal(t, 500, straight.Value)
	assert.Equal(t, maxNumDice, straight.RerollDice)

	state := NewState(0, 300, 6)
	assert.Equal(t, 800.0, stakePayoff(DefaultRules(), state, choices.MaxValue()))
}

func TestNewOptionsTooManyDice(t *testing.T) {
	assert.Panics(t, func() { NewOptions(2, NewChoiceSet(NewStraight())) })
}

func TestOptionValuesAreScoreIncrements(t *testing.T) {
	for nDice := 1; nDice <= maxNumDice; nDice++ {
		for _, choice := range StatsFor(nDice).Choices {
			for _, opt := range choice.Options {
				assert.Zero(t, opt.Value%ScoreIncrement, "%v", opt.Combination)
			}
		}
	}
	for _, stake := range DefaultRules().Stakes {
		assert.Zero(t, stake%ScoreIncrement)
	}
}
