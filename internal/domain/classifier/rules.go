package classifier

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync/atomic"
	"unicode"

	"gopkg.in/yaml.v3"
)

// RuleSet is the declarative keyword table behind classification and slot validation.
// Empty lists in a loaded file fall back to the compiled-in defaults.
type RuleSet struct {
	NewRequestSignals      []string `yaml:"new_request_signals"`
	FollowUpSignals        []string `yaml:"follow_up_signals"`
	CancelWords            []string `yaml:"cancel_words"`
	AffirmWords            []string `yaml:"affirm_words"`
	NameStopwords          []string `yaml:"name_stopwords"`
	GuestNameBlacklist     []string `yaml:"guest_name_blacklist"`
	LocationWords          []string `yaml:"location_words"`
	MaxClarificationTokens int      `yaml:"max_clarification_tokens"`
}

// DefaultRuleSet returns the built-in rule table
func DefaultRuleSet() RuleSet {
	return RuleSet{
		NewRequestSignals: []string{
			"i want", "i need", "i would like", "can i", "my friend", "guest",
			"leave", "going home", "broken", "not working", "maintenance",
			"clean my room", "cleaning", "help",
		},
		FollowUpSignals: []string{
			"status", "any update", "update on", "approved yet", "what happened",
			"did my", "is my", "has my",
		},
		CancelWords: []string{
			"no", "cancel", "nevermind", "never mind", "stop", "forget it", "abort",
		},
		AffirmWords: []string{"yes", "yeah", "yep", "sure", "ok", "okay"},
		NameStopwords: []string{
			"my", "the", "a", "an", "is", "it", "he", "she", "they", "we", "i",
			"you", "his", "her", "their", "our", "this", "that", "for", "to", "and",
			"will", "be", "coming", "from", "at", "on", "in", "with",
		},
		GuestNameBlacklist: []string{
			"permission", "request", "guest", "friend", "visitor", "visitors",
			"allow", "allowed", "visit", "visiting", "stay", "staying", "approve",
			"approved", "approval", "want", "need", "have", "coming", "please",
			"can", "will", "someone", "person", "name", "people", "anyone",
			"anybody", "human",
		},
		LocationWords: []string{
			"room", "bathroom", "washroom", "toilet", "kitchen", "corridor",
			"hallway", "block", "floor", "common", "lobby", "mess", "laundry",
			"balcony", "here", "mine",
		},
		MaxClarificationTokens: 5,
	}
}

// LoadRuleSet reads a YAML rule file and fills gaps from the defaults
func LoadRuleSet(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRuleSet(data)
}

// ParseRuleSet decodes a YAML rule table and fills gaps from the defaults
func ParseRuleSet(data []byte) (RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("failed to unmarshal rules: %w", err)
	}

	def := DefaultRuleSet()
	fill := func(dst *[]string, src []string) {
		if len(*dst) == 0 {
			*dst = src
		}
	}
	fill(&rs.NewRequestSignals, def.NewRequestSignals)
	fill(&rs.FollowUpSignals, def.FollowUpSignals)
	fill(&rs.CancelWords, def.CancelWords)
	fill(&rs.AffirmWords, def.AffirmWords)
	fill(&rs.NameStopwords, def.NameStopwords)
	fill(&rs.GuestNameBlacklist, def.GuestNameBlacklist)
	fill(&rs.LocationWords, def.LocationWords)
	if rs.MaxClarificationTokens <= 0 {
		rs.MaxClarificationTokens = def.MaxClarificationTokens
	}

	return rs, nil
}

// Rules is a compiled RuleSet
type Rules struct {
	set        RuleSet
	newRequest *regexp.Regexp
	followUp   *regexp.Regexp
	cancel     *regexp.Regexp
	affirm     *regexp.Regexp
	location   *regexp.Regexp
	stopwords  map[string]bool
	blacklist  map[string]bool
}

// Compile builds the matchers of a rule set
func Compile(rs RuleSet) *Rules {
	return &Rules{
		set:        rs,
		newRequest: phraseMatcher(rs.NewRequestSignals),
		followUp:   phraseMatcher(rs.FollowUpSignals),
		cancel:     exactMatcher(rs.CancelWords, `(?:\s+(?:it|that|this|please|thanks|the request|my request))*`),
		affirm:     exactMatcher(rs.AffirmWords, ""),
		location:   phraseMatcher(rs.LocationWords),
		stopwords:  wordSet(rs.NameStopwords),
		blacklist:  wordSet(rs.GuestNameBlacklist),
	}
}

// DefaultRules returns the compiled default rule table
func DefaultRules() *Rules {
	return Compile(DefaultRuleSet())
}

// Set returns the rule table the matchers were built from
func (r *Rules) Set() RuleSet {
	return r.set
}

// NewRequestSignal returns the first new-request keyword found in text
func (r *Rules) NewRequestSignal(text string) string {
	return r.newRequest.FindString(normalise(text))
}

// IsFollowUp reports whether text asks about an earlier request
func (r *Rules) IsFollowUp(text string) bool {
	return r.followUp.MatchString(normalise(text))
}

// IsCancel reports whether the whole message is a cancellation
func (r *Rules) IsCancel(text string) bool {
	return r.cancel.MatchString(normalise(text))
}

// IsAffirm reports whether the whole message is a bare confirmation
func (r *Rules) IsAffirm(text string) bool {
	return r.affirm.MatchString(normalise(text))
}

// IsBlacklistedName reports whether a guest name is a generic noun
func (r *Rules) IsBlacklistedName(name string) bool {
	for _, tok := range strings.Fields(normalise(name)) {
		if r.blacklist[tok] {
			return true
		}
	}
	return strings.TrimSpace(name) == ""
}

// LooksLikeName reports whether text has the shape of a person's name:
// one to three alphabetic words, none of them stopwords or generic nouns.
func (r *Rules) LooksLikeName(text string) bool {
	toks := strings.Fields(strings.TrimSpace(text))
	if len(toks) == 0 || len(toks) > 3 {
		return false
	}
	for _, tok := range toks {
		lower := strings.ToLower(strings.Trim(tok, ".,!?"))
		if lower == "" || r.stopwords[lower] || r.blacklist[lower] {
			return false
		}
		for _, c := range lower {
			if !unicode.IsLetter(c) && c != '\'' && c != '-' {
				return false
			}
		}
	}
	return !r.IsCancel(text) && !r.IsAffirm(text)
}

// LooksLikeLocation reports whether text names a place in the hostel
func (r *Rules) LooksLikeLocation(text string) bool {
	lower := normalise(text)
	if lower == "" {
		return false
	}
	if r.location.MatchString(lower) {
		return true
	}
	return strings.IndexFunc(lower, unicode.IsDigit) >= 0
}

// TokenCount counts whitespace separated words
func TokenCount(text string) int {
	return len(strings.Fields(text))
}

func normalise(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	return strings.TrimRight(lower, ".!?")
}

func phraseMatcher(phrases []string) *regexp.Regexp {
	if len(phrases) == 0 {
		return regexp.MustCompile(`[^\s\S]`)
	}
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(p))
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// exactMatcher matches a whole message made of one of words plus an optional tail
func exactMatcher(words []string, tail string) *regexp.Regexp {
	if len(words) == 0 {
		return regexp.MustCompile(`[^\s\S]`)
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(w))
	}
	return regexp.MustCompile(`^(?:` + strings.Join(quoted, "|") + `)` + tail + `$`)
}

func wordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = true
	}
	return set
}

// RuleStore holds the active rules and lets a watcher swap them at runtime
type RuleStore struct {
	current atomic.Pointer[Rules]
}

// NewRuleStore creates a store serving rules
func NewRuleStore(rules *Rules) *RuleStore {
	if rules == nil {
		rules = DefaultRules()
	}
	s := &RuleStore{}
	s.current.Store(rules)
	return s
}

// Rules returns the active rules
func (s *RuleStore) Rules() *Rules {
	return s.current.Load()
}

// Replace swaps in a new rule set
func (s *RuleStore) Replace(rules *Rules) {
	if rules != nil {
		s.current.Store(rules)
	}
}
