package mitraillette

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind identifies which scoring pattern a Combination is.
type Kind uint8

const (
	Straight Kind = iota
	ThreePairs
	DoubleTriple
	SingleTriple
	LooseSingles
)

var kindNames = [...]string{
	Straight:     "Straight",
	ThreePairs:   "ThreePairs",
	DoubleTriple: "DoubleTriple",
	SingleTriple: "SingleTriple",
	LooseSingles: "LooseSingles",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Face indices of the two faces that score on their own.
const (
	faceOne  = 0
	faceFive = 4
)

const (
	straightValue   = 500
	threePairsValue = 500
	singleOneValue  = 100
	singleFiveValue = 50
)

// Value of three of a kind, indexed by face. Three ones are worth 1000, not 300.
var tripleValues = [numFaces]int{1000, 200, 300, 400, 500, 600}

func tripleValue(face uint8) int {
	if int(face) >= numFaces {
		panic(errors.AssertionFailedf("face index %d out of range [0, %d)", face, numFaces))
	}
	return tripleValues[face]
}

// Combination is a scoring pattern that may be banked after a roll.
//
// Only the fields relevant to the Kind are set:
//   - DoubleTriple uses Faces[0] <= Faces[1].
//   - SingleTriple uses Faces[0], plus extra Ones and Fives banked with the triple.
//   - LooseSingles uses Ones and Fives.
//
// Combinations are comparable and may be used as map keys.
type Combination struct {
	Kind  Kind
	Faces [2]uint8
	Ones  uint8
	Fives uint8
}

func NewStraight() Combination   { return Combination{Kind: Straight} }
func NewThreePairs() Combination { return Combination{Kind: ThreePairs} }

// NewDoubleTriple returns the two-triples combination. The faces are canonicalized
// in ascending order so the same pair can never be emitted twice.
func NewDoubleTriple(face1, face2 uint8) Combination {
	if face2 < face1 {
		face1, face2 = face2, face1
	}
	return Combination{Kind: DoubleTriple, Faces: [2]uint8{face1, face2}}
}

func NewSingleTriple(face uint8, ones, fives int) Combination {
	return Combination{
		Kind:  SingleTriple,
		Faces: [2]uint8{face, 0},
		Ones:  uint8(ones),
		Fives: uint8(fives),
	}
}

func NewLooseSingles(ones, fives int) Combination {
	return Combination{Kind: LooseSingles, Ones: uint8(ones), Fives: uint8(fives)}
}

// Value is the number of points scored by banking the combination.
func (c Combination) Value() int {
	switch c.Kind {
	case Straight:
		return straightValue
	case ThreePairs:
		return threePairsValue
	case DoubleTriple:
		return tripleValue(c.Faces[0]) + tripleValue(c.Faces[1])
	case SingleTriple:
		return tripleValue(c.Faces[0]) + c.singlesValue()
	case LooseSingles:
		return c.singlesValue()
	}
	panic(errors.AssertionFailedf("unknown combination kind %d", c.Kind))
}

func (c Combination) singlesValue() int {
	return singleOneValue*int(c.Ones) + singleFiveValue*int(c.Fives)
}

// DiceCost is the number of dice set aside when the combination is banked.
func (c Combination) DiceCost() int {
	switch c.Kind {
	case Straight, ThreePairs, DoubleTriple:
		return maxNumDice
	case SingleTriple:
		return 3 + int(c.Ones) + int(c.Fives)
	case LooseSingles:
		return int(c.Ones) + int(c.Fives)
	}
	panic(errors.AssertionFailedf("unknown combination kind %d", c.Kind))
}

func (c Combination) String() string {
	switch c.Kind {
	case DoubleTriple:
		return fmt.Sprintf("%v[%d,%d]", c.Kind, c.Faces[0]+1, c.Faces[1]+1)
	case SingleTriple:
		return fmt.Sprintf("%v[%d]+%dx1+%dx5", c.Kind, c.Faces[0]+1, c.Ones, c.Fives)
	case LooseSingles:
		return fmt.Sprintf("%v[%dx1+%dx5]", c.Kind, c.Ones, c.Fives)
	}
	return c.Kind.String()
}

// EnumerateCombinations lists the combinations a player may rationally choose
// between after rolling the dice in h. An empty result is a bust.
//
// Two pruning rules keep the choice space small, and are a policy choice rather
// than a proven-optimal reduction:
//   - a five is never offered before all eligible ones have been taken,
//   - three ones (or fives) are only ever counted as a triple, never as singles.
func EnumerateCombinations(h Histogram) ChoiceSet {
	return NewChoiceSet(enumerateCombinations(h)...)
}

var ascendingFaces = [numFaces]uint8{0, 1, 2, 3, 4, 5}

func enumerateCombinations(h Histogram) []Combination {
	return enumerateInOrder(h, ascendingFaces)
}

// Triples are looked for in the given face order. A double triple is emitted
// only when its second face comes later in the order than its first, so each
// one appears exactly once whatever the order.
func enumerateInOrder(h Histogram, order [numFaces]uint8) []Combination {
	var rank [numFaces]int
	for i, face := range order {
		rank[face] = i
	}

	var result []Combination

	if h.isStraight() {
		result = append(result, NewStraight())
	}

	if h.NumPairs() == 3 {
		result = append(result, NewThreePairs())
	}

	for _, face := range order {
		if h[face] < 3 {
			continue
		}

		result = append(result, NewSingleTriple(face, 0, 0))

		rest := h
		rest[face] -= 3
		for _, inner := range enumerateInOrder(rest, order) {
			switch {
			case inner.Kind == SingleTriple && inner.Ones == 0 && inner.Fives == 0:
				if rank[inner.Faces[0]] < rank[face] {
					continue // Emitted when the inner face was the outer triple.
				}
				result = append(result, NewDoubleTriple(face, inner.Faces[0]))
			case inner.Kind == LooseSingles:
				result = append(result, NewSingleTriple(face, int(inner.Ones), int(inner.Fives)))
			default:
				panic(errors.AssertionFailedf(
					"unexpected combination %v after removing triple of %d from %v",
					inner, face+1, h))
			}
		}
	}

	eligibleOnes := h[faceOne] % 3
	for ones := 1; ones <= eligibleOnes; ones++ {
		result = append(result, NewLooseSingles(ones, 0))
	}
	for fives := 1; fives <= h[faceFive]%3; fives++ {
		result = append(result, NewLooseSingles(eligibleOnes, fives))
	}

	return result
}
