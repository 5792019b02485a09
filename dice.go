package mitraillette

import (
	"fmt"
	"slices"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

const maxNumDice = 6
const numFaces = 6

// MaxNumDice is the size of the full dice pool, rolled again on hot dice.
const MaxNumDice = maxNumDice

// Roll represents an ordered roll of N dice, with faces numbered 1 - numFaces.
// A roll can hold 1 - maxNumDice dice. Extra entries are
// at the end of the roll with the value 0.
type Roll [maxNumDice]uint8

func NewRoll(dice ...uint8) Roll {
	if len(dice) > maxNumDice {
		panic(fmt.Errorf("cannot create Roll with %d > max %d dice",
			len(dice), maxNumDice))
	}

	for _, die := range dice {
		if die < 1 || die > numFaces {
			panic(fmt.Errorf("cannot create Roll with die = %d", die))
		}
	}

	r := Roll{}
	copy(r[:], dice)
	return r
}

// NewRandomRoll rolls nDice dice.
func NewRandomRoll(nDice int, rng *rand.Rand) Roll {
	dice := make([]uint8, nDice)
	for i := range dice {
		dice[i] = uint8(1 + rng.Intn(numFaces))
	}
	return NewRoll(dice...)
}

// The dice in this roll, excluding unused slots.
func (r Roll) Dice() []uint8 {
	for i, die := range r {
		if die == 0 {
			return r[:i]
		}
	}

	return r[:]
}

// The number of dice in this roll, in the range 0 - maxNumDice.
func (r Roll) NumDice() int {
	return len(r.Dice())
}

func (r Roll) Histogram() Histogram {
	var h Histogram
	for _, die := range r.Dice() {
		h[die-1]++
	}
	return h
}

func (r Roll) String() string {
	return fmt.Sprint(r.Dice())
}

// Histogram counts how many dice of a roll landed on each face.
// Index 0 is the face one.
type Histogram [numFaces]int

func (h Histogram) NumDice() int {
	n := 0
	for _, count := range h {
		n += count
	}
	return n
}

func (h Histogram) NumPairs() int {
	n := 0
	for _, count := range h {
		n += count / 2
	}
	return n
}

func (h Histogram) isStraight() bool {
	for _, count := range h {
		if count != 1 {
			return false
		}
	}
	return true
}

// Decode the rollIndex-th roll of nDice dice by reading it as a base numFaces
// number, one digit per die.
func histogramFromIndex(rollIndex, nDice int) Histogram {
	var h Histogram
	for i := 0; i < nDice; i++ {
		h[rollIndex%numFaces]++
		rollIndex /= numFaces
	}
	return h
}

func numRolls(nDice int) int {
	n := 1
	for i := 0; i < nDice; i++ {
		n *= numFaces
	}
	return n
}

// WeightedChoices is a set of choices a roll can offer,
// and the probability of being offered it.
type WeightedChoices struct {
	Choices ChoiceSet
	Prob    float64
}

// Tally the choice sets offered by all equally likely rolls of N dice.
func makeWeightedChoices(nDice int) []WeightedChoices {
	type tally struct {
		choices ChoiceSet
		count   int
	}

	byKey := make(map[string]*tally)
	total := numRolls(nDice)
	for i := 0; i < total; i++ {
		choices := EnumerateCombinations(histogramFromIndex(i, nDice))
		key := choices.key()
		t, ok := byKey[key]
		if !ok {
			t = &tally{choices: choices}
			byKey[key] = t
		}
		t.count++
	}

	keys := maps.Keys(byKey)
	slices.Sort(keys)
	result := make([]WeightedChoices, 0, len(keys))
	for _, key := range keys {
		t := byKey[key]
		result = append(result, WeightedChoices{
			Choices: t.choices,
			Prob:    float64(t.count) / float64(total),
		})
	}

	return result
}

var allChoices = func() [maxNumDice + 1][]WeightedChoices {
	var result [maxNumDice + 1][]WeightedChoices
	for nDice := 1; nDice <= maxNumDice; nDice++ {
		result[nDice] = makeWeightedChoices(nDice)
	}

	return result
}()

func checkNumDice(nDice int) {
	if nDice < 1 || nDice > maxNumDice {
		panic(fmt.Errorf("number of dice %d out of range [1, %d]", nDice, maxNumDice))
	}
}

// EnumerateChoices returns every choice set a roll of nDice dice can offer, with
// its probability. The bust is included as the empty ChoiceSet.
// The returned slice is shared and must not be modified.
func EnumerateChoices(nDice int) []WeightedChoices {
	checkNumDice(nDice)
	return allChoices[nDice]
}

func ProbabilityOfBust(nDice int) float64 {
	for _, wc := range EnumerateChoices(nDice) {
		if wc.Choices.IsBust() {
			return wc.Prob
		}
	}
	return 0
}

// TotalProbability sums the probability mass of a distribution.
func TotalProbability(choices []WeightedChoices) float64 {
	probs := make([]float64, len(choices))
	for i, wc := range choices {
		probs[i] = wc.Prob
	}
	return floats.Sum(probs)
}
