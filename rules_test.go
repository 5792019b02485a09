package mitraillette

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRules(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	require.NoError(t, rules.Validate())
	assert.Equal(t, 10000, rules.TargetScore)
	assert.Equal(t, 0, rules.Stakes[0])
	assert.Equal(t, 2000, rules.Stakes[len(rules.Stakes)-1])
}

func TestLoadRules(t *testing.T) {
	path := writeRules(t, "target_score: 2000\nepsilon: 0.001\nstakes: [0, 350]\n")
	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, 2000, rules.TargetScore)
	assert.Equal(t, 0.001, rules.Epsilon)
	assert.Equal(t, []int{0, 350}, rules.Stakes)
	assert.Equal(t, DefaultRules().MaxBound, rules.MaxBound)
}

func TestLoadRulesErrors(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadRules(writeRules(t, "target_score: [not a number"))
	assert.Error(t, err)

	_, err = LoadRules(writeRules(t, "target_score: 1234\n"))
	assert.ErrorContains(t, err, "multiple of 50")
}

func TestRulesValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Rules)
	}{
		{"negative target", func(r *Rules) { r.TargetScore = -50 }},
		{"negative epsilon", func(r *Rules) { r.Epsilon = -1 }},
		{"zero max bound", func(r *Rules) { r.MaxBound = 0 }},
		{"negative stake", func(r *Rules) { r.Stakes = []int{-100} }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rules := DefaultRules()
			tc.modify(&rules)
			assert.Error(t, rules.Validate())
		})
	}
}

func TestRulesCap(t *testing.T) {
	rules := testRules(1000)
	assert.True(t, rules.canStopAt(1000))
	assert.False(t, rules.canStopAt(1050))
	assert.True(t, rules.canRollAt(950))
	assert.False(t, rules.canRollAt(1000))

	assert.True(t, rules.CanStop(NewState(900, 50, 2), 50))
	assert.False(t, rules.CanStop(NewState(900, 50, 2), 100))

	uncapped := testRules(0)
	assert.True(t, uncapped.canStopAt(1000000))
	assert.True(t, uncapped.canRollAt(1000000))
}
