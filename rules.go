package mitraillette

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// ScoreIncrement divides every combination value, and so every score and stake.
const ScoreIncrement = 50

// Rules are the game parameters the solver is constructed with.
type Rules struct {
	// Exact score a game ends on. A turn may not stop above it, nor keep
	// rolling once it has been reached. Zero means the game is uncapped.
	TargetScore int `yaml:"target_score"`
	// Tolerance under which two successive bound-deepening values are considered
	// equal, both absolute and relative.
	Epsilon float64 `yaml:"epsilon"`
	// Bound-deepening gives up after this many rerolls.
	MaxBound int `yaml:"max_bound"`
	// Stakes to report on.
	Stakes []int `yaml:"stakes"`
}

func DefaultRules() Rules {
	stakes := make([]int, 0, 2000/ScoreIncrement+1)
	for stake := 0; stake <= 2000; stake += ScoreIncrement {
		stakes = append(stakes, stake)
	}

	return Rules{
		TargetScore: 10000,
		Epsilon:     1e-9,
		MaxBound:    500,
		Stakes:      stakes,
	}
}

// LoadRules reads YAML rules from path. Fields missing from the file keep
// their default value.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	buf, err := os.ReadFile(path)
	if err != nil {
		return rules, errors.Wrapf(err, "reading rules from %s", path)
	}

	if err := yaml.Unmarshal(buf, &rules); err != nil {
		return rules, errors.Wrapf(err, "parsing rules from %s", path)
	}

	return rules, rules.Validate()
}

func (r Rules) Validate() error {
	if r.TargetScore < 0 {
		return errors.Newf("target score must not be negative, got %d", r.TargetScore)
	}
	if r.TargetScore%ScoreIncrement != 0 {
		return errors.Newf("target score %d is not a multiple of %d", r.TargetScore, ScoreIncrement)
	}
	if r.Epsilon < 0 {
		return errors.Newf("epsilon must not be negative, got %g", r.Epsilon)
	}
	if r.MaxBound <= 0 {
		return errors.Newf("max bound must be positive, got %d", r.MaxBound)
	}
	for _, stake := range r.Stakes {
		if stake < 0 {
			return errors.Newf("stakes must not be negative, got %d", stake)
		}
	}
	return nil
}

func (r Rules) capped() bool {
	return r.TargetScore > 0
}

// Whether a turn may end with the given total.
func (r Rules) canStopAt(total int) bool {
	return !r.capped() || total <= r.TargetScore
}

// CanStop reports whether a player in state may end the turn after a roll whose
// best combination is worth maxValue. Overshooting the target with the best
// combination forbids stopping on any combination of that roll.
func (r Rules) CanStop(state State, maxValue int) bool {
	return r.canStopAt(state.Total() + maxValue)
}

// Whether a turn may keep rolling with the given total.
func (r Rules) canRollAt(total int) bool {
	return !r.capped() || total < r.TargetScore
}
