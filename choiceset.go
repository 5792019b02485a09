package mitraillette

import (
	"cmp"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// ChoiceSet is the canonical set of combinations offered by a single roll:
// sorted and without duplicates, so that two rolls offering the same
// combinations always produce equal ChoiceSets. An empty ChoiceSet is a bust.
type ChoiceSet []Combination

func NewChoiceSet(combinations ...Combination) ChoiceSet {
	cs := slices.Clone(combinations)
	slices.SortFunc(cs, compareCombinations)
	return ChoiceSet(slices.Compact(cs))
}

func compareCombinations(a, b Combination) int {
	return cmp.Or(
		cmp.Compare(a.Kind, b.Kind),
		cmp.Compare(a.Faces[0], b.Faces[0]),
		cmp.Compare(a.Faces[1], b.Faces[1]),
		cmp.Compare(a.Ones, b.Ones),
		cmp.Compare(a.Fives, b.Fives),
	)
}

func (cs ChoiceSet) IsBust() bool {
	return len(cs) == 0
}

func (cs ChoiceSet) Equal(other ChoiceSet) bool {
	return slices.Equal(cs, other)
}

func (cs ChoiceSet) Contains(c Combination) bool {
	_, found := slices.BinarySearchFunc(cs, c, compareCombinations)
	return found
}

// MaxValue is the best number of points that can be banked from this set,
// or 0 for a bust.
func (cs ChoiceSet) MaxValue() int {
	return lo.Max(lo.Map(cs, func(c Combination, _ int) int {
		return c.Value()
	}))
}

// Key encoding used to tally equal ChoiceSets in a map.
func (cs ChoiceSet) key() string {
	var sb strings.Builder
	sb.Grow(4 * len(cs))
	for _, c := range cs {
		sb.WriteByte(byte(c.Kind))
		sb.WriteByte(c.Faces[0]<<4 | c.Faces[1])
		sb.WriteByte(c.Ones)
		sb.WriteByte(c.Fives)
	}
	return sb.String()
}

func (cs ChoiceSet) String() string {
	if cs.IsBust() {
		return "[bust]"
	}
	parts := lo.Map(cs, func(c Combination, _ int) string {
		return c.String()
	})
	return "[" + strings.Join(parts, " ") + "]"
}
