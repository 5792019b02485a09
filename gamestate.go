package mitraillette

import "fmt"

// State fully determines the optimal continuation of a turn: nothing else
// about how it was reached matters.
type State struct {
	// Points banked in previous turns.
	Score int
	// Points accumulated this turn, lost on a bust.
	Stake int
	// Dice about to be rolled.
	NumDice int
}

func NewState(score, stake, numDice int) State {
	checkNumDice(numDice)
	if score < 0 || stake < 0 {
		panic(fmt.Errorf("negative score %d or stake %d", score, stake))
	}

	return State{Score: score, Stake: stake, NumDice: numDice}
}

func (s State) String() string {
	return fmt.Sprintf("Score=%d, Stake=%d, NumDice=%d", s.Score, s.Stake, s.NumDice)
}

// Apply banks an option and sets up the next roll.
func (s State) Apply(opt Option) State {
	s.Stake += opt.Value
	s.NumDice = opt.RerollDice
	return s
}

// Total points the player would have after stopping now.
func (s State) Total() int {
	return s.Score + s.Stake
}
