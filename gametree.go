package mitraillette

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/golang/glog"
	"gonum.org/v1/gonum/floats/scalar"
)

// Solution is the converged value of a state under an optimal policy.
type Solution struct {
	Value float64
	// Reroll bound at which bound-deepening stopped.
	Bound int
	// False when deepening was cut short by Rules.MaxBound.
	Converged bool
}

type memoKey struct {
	score, stake, bound int
}

// Values computed for a given (score, stake, reroll bound). There is one memo per
// dice count; the dice count selects which RollStats the value was computed from.
type memo map[memoKey]float64

// What a turn is worth when stopping after being offered a choice set whose best
// combination is worth maxValue.
type payoffFunc func(rules Rules, state State, maxValue int) float64

func stakePayoff(rules Rules, state State, maxValue int) float64 {
	if !rules.CanStop(state, maxValue) {
		return 0
	}
	return float64(state.Stake + maxValue)
}

func targetPayoff(rules Rules, state State, maxValue int) float64 {
	if rules.capped() && state.Total()+maxValue == rules.TargetScore {
		return 1
	}
	return 0
}

type valueTable struct {
	name     string
	payoff   payoffFunc
	memos    [maxNumDice + 1]memo
	counters memoCounters
}

func newValueTable(name string, payoff payoffFunc) *valueTable {
	t := &valueTable{
		name:     name,
		payoff:   payoff,
		counters: newMemoCounters(name),
	}
	for nDice := 1; nDice <= maxNumDice; nDice++ {
		t.memos[nDice] = make(memo)
	}
	return t
}

func (t *valueTable) get(state State, bound int) (float64, bool) {
	v, ok := t.memos[state.NumDice][memoKey{state.Score, state.Stake, bound}]
	if ok {
		t.counters.hits.Inc()
	} else {
		t.counters.misses.Inc()
	}
	return v, ok
}

// Each key is written once: the value of a state at a given bound does not
// depend on how the state was reached.
func (t *valueTable) put(state State, bound int, value float64) {
	key := memoKey{state.Score, state.Stake, bound}
	m := t.memos[state.NumDice]
	if old, ok := m[key]; ok {
		panic(errors.AssertionFailedf(
			"%s memo already holds %v at bound %d: %v, now %v",
			t.name, state, bound, old, value))
	}
	m[key] = value
}

func (t *valueTable) size() int {
	n := 0
	for _, m := range t.memos[1:] {
		n += len(m)
	}
	return n
}

// Solver computes the value of a turn under the policy that maximizes it.
//
// A Solver is not safe for concurrent use. Independent solvers may run
// concurrently: the roll tables they read are shared and immutable.
type Solver struct {
	rules    Rules
	db       DB
	expected *valueTable
	winProb  *valueTable
}

// NewSolver returns a solver for the given rules. Converged expected values are
// read from and written to db, which may be nil.
func NewSolver(rules Rules, db DB) (*Solver, error) {
	if err := rules.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid rules")
	}

	return &Solver{
		rules:    rules,
		db:       db,
		expected: newValueTable("expected_value", stakePayoff),
		winProb:  newValueTable("win_probability", targetPayoff),
	}, nil
}

func (s *Solver) Rules() Rules {
	return s.rules
}

// MemoSize is the number of entries cached across all memo tables.
func (s *Solver) MemoSize() int {
	return s.expected.size() + s.winProb.size()
}

// Recursive implementation that considers every choice set a roll can offer, and
// for each takes the better of stopping with the best combination or banking
// some combination and rolling again, with at most `bound` further rerolls.
// Busts contribute nothing.
func (s *Solver) solve(t *valueTable, state State, bound int) float64 {
	if v, ok := t.get(state, bound); ok {
		return v
	}

	result := 0.0
	stats := StatsFor(state.NumDice)
	for i := range stats.Choices {
		choice := &stats.Choices[i]
		best := t.payoff(s.rules, state, choice.MaxValue)
		if bound > 0 {
			for _, opt := range choice.Options {
				next := state.Apply(opt)
				if !s.rules.canRollAt(next.Total()) {
					continue
				}
				best = max(best, s.solve(t, next, bound-1))
			}
		}

		result += choice.Prob * best
	}

	t.put(state, bound, result)
	return result
}

func (s *Solver) converged(value, prev float64) bool {
	return scalar.EqualWithinAbsOrRel(value, prev, s.rules.Epsilon, s.rules.Epsilon)
}

// Values can only increase with the bound, since the policy is free to ignore
// extra rerolls.
func (s *Solver) checkMonotone(t *valueTable, state State, bound int, value, prev float64) {
	if value < prev && !s.converged(value, prev) {
		panic(errors.AssertionFailedf(
			"%s of %v decreased from %v to %v at bound %d",
			t.name, state, prev, value, bound))
	}
}

// ExpectedValueContext deepens the reroll bound until the expected value of
// state stops increasing, Rules.MaxBound is reached, or ctx is done.
func (s *Solver) ExpectedValueContext(ctx context.Context, state State) (Solution, error) {
	if s.db != nil {
		if sol, ok := s.db.Get(state); ok {
			dbLookups.WithLabelValues("hit").Inc()
			return sol, nil
		}
		dbLookups.WithLabelValues("miss").Inc()
	}

	prev := s.solve(s.expected, state, 0)
	for bound := 1; ; bound++ {
		if err := ctx.Err(); err != nil {
			return Solution{Value: prev, Bound: bound - 1},
				errors.Wrapf(err, "solving %v at bound %d", state, bound)
		}

		if bound > s.rules.MaxBound {
			glog.Warningf("%v did not converge within %d rerolls: %v",
				state, s.rules.MaxBound, prev)
			boundLimitReached.Inc()
			return Solution{Value: prev, Bound: bound - 1}, nil
		}

		value := s.solve(s.expected, state, bound)
		glog.V(2).Infof("%v: bound %d -> %v", state, bound, value)
		s.checkMonotone(s.expected, state, bound, value, prev)
		if s.converged(value, prev) {
			sol := Solution{Value: value, Bound: bound, Converged: true}
			convergenceBounds.Observe(float64(bound))
			convergedSolutions.Inc()
			if s.db != nil {
				if err := s.db.Put(state, sol); err != nil {
					glog.Warningf("Unable to store %v: %v", state, err)
				}
			}
			glog.V(1).Infof("%v converged after %d rerolls: %v (memo size %d)",
				state, bound, value, s.MemoSize())
			return sol, nil
		}

		prev = value
	}
}

// ExpectedValueAt is the expected number of points banked at the end of a turn
// that has already accumulated stake points and is about to roll nDice dice,
// for a player whose score from previous turns is score.
func (s *Solver) ExpectedValueAt(score, stake, nDice int) float64 {
	state := NewState(score, stake, nDice)
	sol, err := s.ExpectedValueContext(context.Background(), state)
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "solving %v", state))
	}
	return sol.Value
}

// ExpectedValue is ExpectedValueAt for a player with no score yet.
func (s *Solver) ExpectedValue(stake, nDice int) float64 {
	return s.ExpectedValueAt(0, stake, nDice)
}

// ExpectedGain is how many points rolling nDice dice is expected to add to stake.
// Rolling is worth it when this is positive.
func (s *Solver) ExpectedGain(score, stake, nDice int) float64 {
	return s.ExpectedValueAt(score, stake, nDice) - float64(stake)
}

// WinProbability is the probability of ending the turn on exactly the target score.
//
// Winning paths can be very deep for low scores, so the bound is never deepened
// past maxBound, and the result may underestimate the true probability.
func (s *Solver) WinProbability(score, stake, nDice, maxBound int) float64 {
	state := NewState(score, stake, nDice)
	if !s.rules.capped() {
		return 0
	}

	prev := 0.0
	for bound := 0; bound < maxBound; bound++ {
		p := s.solve(s.winProb, state, bound)
		s.checkMonotone(s.winProb, state, bound, p, prev)
		if p > 0 && s.converged(p, prev) {
			glog.V(1).Infof("%v: win probability converged after %d rerolls: %v",
				state, bound, p)
			return p
		}
		prev = p
	}

	return s.solve(s.winProb, state, max(maxBound, 0))
}

// Decision is the optimal way to play an actual roll.
type Decision struct {
	Option Option
	// Whether to roll Option.RerollDice dice after banking.
	Reroll bool
	// Expected value of the turn after making this decision.
	Value float64
}

func (d Decision) String() string {
	action := "stop"
	if d.Reroll {
		action = fmt.Sprintf("reroll %d dice", d.Option.RerollDice)
	}
	return fmt.Sprintf("bank %v (%d pts) and %s, expecting %.1f",
		d.Option.Combination, d.Option.Value, action, d.Value)
}

// Advise finds the best decision for a player in state who rolled h.
// It returns false if the roll is a bust, or if no option may legally be taken.
// Stopping is judged on the best combination of the roll, as in the solver, so a
// roll whose best combination overshoots the target can only be rerolled.
func (s *Solver) Advise(state State, h Histogram) (Decision, bool) {
	if h.NumDice() != state.NumDice {
		panic(fmt.Errorf("rolled %d dice in state %v", h.NumDice(), state))
	}

	var best Decision
	found := false
	consider := func(d Decision) {
		if !found || d.Value > best.Value {
			best = d
			found = true
		}
	}

	choices := EnumerateCombinations(h)
	canStop := s.rules.CanStop(state, choices.MaxValue())
	for _, opt := range NewOptions(state.NumDice, choices) {
		next := state.Apply(opt)
		if canStop {
			consider(Decision{Option: opt, Value: float64(next.Stake)})
		}
		if s.rules.canRollAt(next.Total()) {
			value := s.ExpectedValueAt(next.Score, next.Stake, next.NumDice)
			consider(Decision{Option: opt, Reroll: true, Value: value})
		}
	}

	return best, found
}
