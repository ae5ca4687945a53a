package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules_GuestNames(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name        string
		blacklisted bool
		looksLike   bool
	}{
		{"Sam", false, true},
		{"Sam Rivera", false, true},
		{"guest", true, false},
		{"Visitor", true, false},
		{"my friend", true, false},
		{"", true, false},
		{"room 12", false, false},
		{"a very long guest name", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.blacklisted, rules.IsBlacklistedName(tt.name))
			assert.Equal(t, tt.looksLike, rules.LooksLikeName(tt.name))
		})
	}
}

func TestRules_Keywords(t *testing.T) {
	rules := DefaultRules()

	assert.Equal(t, "broken", rules.NewRequestSignal("The fan is BROKEN"))
	assert.Equal(t, "", rules.NewRequestSignal("helpful"))
	assert.True(t, rules.IsCancel("cancel it"))
	assert.True(t, rules.IsCancel("Never mind!"))
	assert.False(t, rules.IsCancel("no, tomorrow"))
	assert.True(t, rules.IsAffirm("ok"))
	assert.True(t, rules.IsFollowUp("What happened to my leave?"))
	assert.True(t, rules.LooksLikeLocation("common bathroom"))
	assert.True(t, rules.LooksLikeLocation("B-204"))
	assert.False(t, rules.LooksLikeLocation("soon"))
}

func TestParseRuleSet_FillsDefaults(t *testing.T) {
	rs, err := ParseRuleSet([]byte("new_request_signals: [\"urgent\"]\nmax_clarification_tokens: 3\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"urgent"}, rs.NewRequestSignals)
	assert.Equal(t, 3, rs.MaxClarificationTokens)
	assert.Equal(t, DefaultRuleSet().GuestNameBlacklist, rs.GuestNameBlacklist)

	_, err = ParseRuleSet([]byte("new_request_signals: {"))
	assert.Error(t, err)
}

func TestLoadRuleSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cancel_words: [\"drop it\"]\n"), 0o644))

	rs, err := LoadRuleSet(path)
	require.NoError(t, err)
	assert.True(t, Compile(rs).IsCancel("drop it"))
	assert.False(t, Compile(rs).IsCancel("cancel"))

	_, err = LoadRuleSet(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRuleStore_Replace(t *testing.T) {
	store := NewRuleStore(nil)
	assert.Equal(t, 5, store.Rules().Set().MaxClarificationTokens)

	rs := DefaultRuleSet()
	rs.MaxClarificationTokens = 2
	store.Replace(Compile(rs))
	assert.Equal(t, 2, store.Rules().Set().MaxClarificationTokens)

	store.Replace(nil)
	assert.Equal(t, 2, store.Rules().Set().MaxClarificationTokens)
}
