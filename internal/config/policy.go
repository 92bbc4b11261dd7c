package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/piyushdaiya/address-classifier/internal/validator"
)

// Policy is the classifier tuning a deployment supplies through a TOML file:
//
//	low_threshold = 20
//	high_threshold = 70
//	include_known_threats = true
//
//	[[allowlist]]
//	address = "0x..."
//	label = "treasury safe"
//	type = "multisig"
//
//	[[chains]]
//	id = 31337
//	name = "Anvil"
type Policy struct {
	LowThreshold          int                 `toml:"low_threshold"`
	HighThreshold         int                 `toml:"high_threshold"`
	IncludeKnownContracts bool                `toml:"include_known_contracts"`
	IncludeKnownThreats   bool                `toml:"include_known_threats"`
	Denylist              []validator.Listing `toml:"denylist"`
	Allowlist             []validator.Listing `toml:"allowlist"`
	Watchlist             []validator.Listing `toml:"watchlist"`
	Chains                []ChainPolicy       `toml:"chains"`
}

// ChainPolicy registers an extra EVM chain, e.g. a devnet or an L2 the
// built-in registry lacks.
type ChainPolicy struct {
	ID       int64  `toml:"id"`
	Name     string `toml:"name"`
	Explorer string `toml:"explorer"`
}

func DefaultPolicy() Policy {
	return Policy{
		LowThreshold:          validator.DefaultLowThreshold,
		HighThreshold:         validator.DefaultHighThreshold,
		IncludeKnownContracts: true,
		IncludeKnownThreats:   true,
	}
}

// LoadPolicy decodes path over the defaults. An empty path yields the defaults.
// Unknown keys are rejected so typos do not silently disable a list.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return Policy{}, fmt.Errorf("decode policy %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Policy{}, fmt.Errorf("policy %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return p, nil
}

// Options turns the policy into classifier options. extraDeny is appended
// to the denylist, e.g. sanctioned addresses loaded from the watchlist store.
func (p Policy) Options(extraDeny ...validator.Listing) []validator.Option {
	opts := []validator.Option{validator.WithThresholds(p.LowThreshold, p.HighThreshold)}
	for _, ch := range p.Chains {
		opts = append(opts, validator.WithChain(validator.Chain{
			ID:       ch.ID,
			Name:     ch.Name,
			Explorer: ch.Explorer,
			Strategy: &validator.EVMStrategy{},
		}))
	}
	if p.IncludeKnownContracts {
		opts = append(opts, validator.WithAllowlist(validator.KnownContracts...))
	}
	if p.IncludeKnownThreats {
		opts = append(opts, validator.WithDenylist(validator.KnownThreats...))
	}
	opts = append(opts,
		validator.WithDenylist(p.Denylist...),
		validator.WithDenylist(extraDeny...),
		validator.WithAllowlist(p.Allowlist...),
		validator.WithWatchlist(p.Watchlist...),
	)
	return opts
}

// NewClassifier builds a classifier from the policy.
func (p Policy) NewClassifier(extraDeny ...validator.Listing) (*validator.Classifier, error) {
	return validator.NewClassifier(p.Options(extraDeny...)...)
}
