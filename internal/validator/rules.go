package validator

import "strings"

// Rule tags of the built-in heuristics.
const (
	FeatureRepeatedPattern = "repeated_pattern"
	FeatureLeadingZeros    = "leading_zeros"
	FeatureLookalike       = "lookalike_address"
	FeatureWatchlisted     = "watchlisted"
)

// Rule is one declarative heuristic. A rule fires at most once per address
// and contributes Weight to confidence and SecurityPenalty to the hygiene score.
type Rule struct {
	Tag             string
	Weight          int
	SecurityPenalty int
	EscalatesRisk   bool
	// WalletType is a structural hint; empty means the rule says nothing about it.
	WalletType WalletType
	Match      func(s Subject) bool
}

// Subject is what rules see of an address. It is read-only.
type Subject struct {
	// Key is the normalized address, Body the key without its 0x prefix.
	Key  string
	Body string

	trusted []string
	watched map[string]Listing
}

// Trusted returns a copy of the allowlisted bodies in sorted order.
func (s Subject) Trusted() []string {
	out := make([]string, len(s.trusted))
	copy(out, s.trusted)
	return out
}

func (s Subject) Watched() (Listing, bool) {
	l, ok := s.watched[s.Key]
	return l, ok
}

var builtinRules = []Rule{
	{
		Tag:             FeatureRepeatedPattern,
		Weight:          35,
		SecurityPenalty: 20,
		Match:           repeatedPattern,
	},
	{
		Tag:        FeatureLeadingZeros,
		Weight:     20,
		WalletType: WalletContract,
		Match:      leadingZeros,
	},
	{
		Tag:             FeatureLookalike,
		Weight:          50,
		SecurityPenalty: 30,
		EscalatesRisk:   true,
		Match:           lookalike,
	},
	{
		Tag:             FeatureWatchlisted,
		Weight:          30,
		SecurityPenalty: 20,
		Match:           watchlisted,
	},
}

// BuiltinRules returns a copy of the default rule table in evaluation order.
func BuiltinRules() []Rule {
	out := make([]Rule, len(builtinRules))
	copy(out, builtinRules)
	return out
}

const (
	minVanityRun      = 7
	maxVanityDistinct = 3
	affixLen          = 4
)

// repeatedPattern flags vanity style bodies: one long run of a single digit
// or a body drawn from very few digits. A zero prefix is leadingZeros' signal
// and does not count toward the run.
func repeatedPattern(s Subject) bool {
	return longestRun(strings.TrimLeft(s.Body, "0")) >= minVanityRun || distinctDigits(s.Body) <= maxVanityDistinct
}

// leadingZeros flags four or more zero bytes up front, typical of mined
// CREATE2 deployments.
func leadingZeros(s Subject) bool {
	return strings.HasPrefix(s.Body, "00000000")
}

// lookalike flags address poisoning: same visible prefix and suffix as a
// trusted address, different middle.
func lookalike(s Subject) bool {
	if len(s.Body) < 2*affixLen {
		return false
	}
	head, tail := s.Body[:affixLen], s.Body[len(s.Body)-affixLen:]
	for _, t := range s.trusted {
		if t == s.Body || len(t) < 2*affixLen {
			continue
		}
		if t[:affixLen] == head && t[len(t)-affixLen:] == tail {
			return true
		}
	}
	return false
}

func watchlisted(s Subject) bool {
	_, ok := s.Watched()
	return ok
}

func longestRun(s string) int {
	best, run := 0, 0
	for i := 0; i < len(s); i++ {
		if i > 0 && s[i] == s[i-1] {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

func distinctDigits(s string) int {
	var seen [256]bool
	n := 0
	for i := 0; i < len(s); i++ {
		if !seen[s[i]] {
			seen[s[i]] = true
			n++
		}
	}
	return n
}
