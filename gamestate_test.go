package mitraillette

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateApply(t *testing.T) {
	state := NewState(1000, 200, 4)
	next := state.Apply(newOption(4, NewLooseSingles(1, 1)))
	assert.Equal(t, State{Score: 1000, Stake: 350, NumDice: 2}, next)
	assert.Equal(t, 1350, next.Total())

	// Using every die in hand brings back the full pool.
	next = next.Apply(newOption(2, NewLooseSingles(1, 1)))
	assert.Equal(t, State{Score: 1000, Stake: 500, NumDice: maxNumDice}, next)
}

func TestNewStateInvalid(t *testing.T) {
	assert.Panics(t, func() { NewState(0, 0, 0) })
	assert.Panics(t, func() { NewState(0, 0, 7) })
	assert.Panics(t, func() { NewState(-50, 0, 6) })
	assert.Panics(t, func() { NewState(0, -50, 6) })
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Score=50, Stake=100, NumDice=3", NewState(50, 100, 3).String())
}
