package mitraillette

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// Option is one combination a player may bank from a roll, annotated with
// what it is worth and how many dice would be rolled next.
type Option struct {
	Combination Combination
	Value       int
	// Dice rolled after banking. Hot dice (all dice used) resets to a full pool.
	RerollDice int
}

// ChoiceStats is a non-bust ChoiceSet that may be offered by a roll.
type ChoiceStats struct {
	Options []Option
	Prob    float64
	// Best value among Options, the baseline for stopping now.
	MaxValue int
}

// RollStats summarizes what can happen when rolling some number of dice.
type RollStats struct {
	NumDice int
	Bust    float64
	Choices []ChoiceStats
}

func newOption(nDice int, c Combination) Option {
	remaining := nDice - c.DiceCost()
	if remaining < 0 {
		panic(errors.AssertionFailedf(
			"%v uses %d dice but only %d are in hand", c, c.DiceCost(), nDice))
	}
	if remaining == 0 {
		remaining = maxNumDice
	}

	return Option{
		Combination: c,
		Value:       c.Value(),
		RerollDice:  remaining,
	}
}

// NewOptions annotates the combinations of a roll of nDice dice.
func NewOptions(nDice int, choices ChoiceSet) []Option {
	return lo.Map(choices, func(c Combination, _ int) Option {
		return newOption(nDice, c)
	})
}

func makeRollStats(nDice int) RollStats {
	stats := RollStats{NumDice: nDice}
	for _, wc := range EnumerateChoices(nDice) {
		if wc.Choices.IsBust() {
			stats.Bust += wc.Prob
			continue
		}

		options := NewOptions(nDice, wc.Choices)
		stats.Choices = append(stats.Choices, ChoiceStats{
			Options: options,
			Prob:    wc.Prob,
			MaxValue: lo.MaxBy(options, func(a, b Option) bool {
				return a.Value > b.Value
			}).Value,
		})
	}

	return stats
}

var allRollStats = func() [maxNumDice + 1]RollStats {
	var result [maxNumDice + 1]RollStats
	for nDice := 1; nDice <= maxNumDice; nDice++ {
		result[nDice] = makeRollStats(nDice)
	}
	return result
}()

// StatsFor returns the annotated table for rolling nDice dice.
// The result is shared and must not be modified.
func StatsFor(nDice int) *RollStats {
	checkNumDice(nDice)
	return &allRollStats[nDice]
}
