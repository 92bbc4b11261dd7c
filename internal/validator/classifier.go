package validator

import (
	"fmt"
	"sort"
)

const (
	DefaultLowThreshold  = 20
	DefaultHighThreshold = 70

	maxScore = 100

	checksumAbsentPenalty   = 10
	checksumMismatchPenalty = 30
	denylistPenalty         = 60
)

// Classifier scores addresses against a chain registry, caller lists and an
// ordered rule table. It is immutable once built and safe for concurrent use.
type Classifier struct {
	chains map[int64]Chain
	rules  []Rule
	// lists holds one set per address family, keyed by strategy name.
	lists     map[string]*listSet
	low, high int

	// raw listings, resolved against the chain strategies by NewClassifier
	deny, allow, watch []Listing
}

type listSet struct {
	denylist  map[string]Listing
	allowlist map[string]Listing
	watchlist map[string]Listing
	trusted   []string
}

type Option func(*Classifier) error

// WithThresholds sets the confidence bounds used to derive the risk level.
func WithThresholds(low, high int) Option {
	return func(c *Classifier) error {
		c.low, c.high = low, high
		return nil
	}
}

// WithDenylist adds addresses that are always flagged HIGH.
func WithDenylist(listings ...Listing) Option {
	return func(c *Classifier) error {
		c.deny = append(c.deny, listings...)
		return nil
	}
}

// WithAllowlist adds known addresses. They short-circuit to LOW and serve as
// the reference set for lookalike detection.
func WithAllowlist(listings ...Listing) Option {
	return func(c *Classifier) error {
		c.allow = append(c.allow, listings...)
		return nil
	}
}

// WithWatchlist adds addresses the caller monitors without condemning them.
func WithWatchlist(listings ...Listing) Option {
	return func(c *Classifier) error {
		c.watch = append(c.watch, listings...)
		return nil
	}
}

// WithRules appends rules after the built-in table.
func WithRules(rules ...Rule) Option {
	return func(c *Classifier) error {
		c.rules = append(c.rules, rules...)
		return nil
	}
}

// WithChain registers or replaces a chain, e.g. a local devnet.
func WithChain(chain Chain) Option {
	return func(c *Classifier) error {
		if chain.Strategy == nil {
			return fmt.Errorf("%w: chain %d has no address strategy", ErrInvalidConfig, chain.ID)
		}
		c.chains[chain.ID] = chain
		return nil
	}
}

// NewClassifier builds a classifier over the built-in chains and rules.
func NewClassifier(opts ...Option) (*Classifier, error) {
	c := &Classifier{
		chains: make(map[int64]Chain, len(registry)),
		rules:  BuiltinRules(),
		low:    DefaultLowThreshold,
		high:   DefaultHighThreshold,
	}
	for id, chain := range registry {
		c.chains[id] = chain
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.low < 0 || c.high <= 0 || c.low >= c.high || c.high > maxScore {
		return nil, fmt.Errorf("%w: thresholds low=%d high=%d", ErrInvalidConfig, c.low, c.high)
	}
	seen := make(map[string]bool, len(c.rules))
	for _, r := range c.rules {
		if r.Tag == "" || r.Match == nil || seen[r.Tag] {
			return nil, fmt.Errorf("%w: rule %q", ErrInvalidConfig, r.Tag)
		}
		seen[r.Tag] = true
	}
	if err := c.buildLists(); err != nil {
		return nil, err
	}
	c.deny, c.allow, c.watch = nil, nil, nil
	return c, nil
}

// buildLists files every listing under each address family that accepts it.
// A listing no registered family accepts is a config error.
func (c *Classifier) buildLists() error {
	strategies := map[string]ChainStrategy{}
	for _, chain := range c.chains {
		strategies[chain.Strategy.Name()] = chain.Strategy
	}
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)

	c.lists = make(map[string]*listSet, len(names))
	for _, name := range names {
		c.lists[name] = &listSet{
			denylist:  map[string]Listing{},
			allowlist: map[string]Listing{},
			watchlist: map[string]Listing{},
		}
	}

	file := func(kind string, listings []Listing, pick func(*listSet) map[string]Listing) error {
		for _, l := range listings {
			accepted := false
			for _, name := range names {
				s := strategies[name]
				if !s.IsValidSyntax(l.Address) {
					continue
				}
				pick(c.lists[name])[s.Normalize(l.Address)] = l
				accepted = true
			}
			if !accepted {
				return fmt.Errorf("%w: %s address %q", ErrInvalidConfig, kind, l.Address)
			}
		}
		return nil
	}
	if err := file("denylist", c.deny, func(ls *listSet) map[string]Listing { return ls.denylist }); err != nil {
		return err
	}
	if err := file("allowlist", c.allow, func(ls *listSet) map[string]Listing { return ls.allowlist }); err != nil {
		return err
	}
	if err := file("watchlist", c.watch, func(ls *listSet) map[string]Listing { return ls.watchlist }); err != nil {
		return err
	}

	for _, name := range names {
		ls := c.lists[name]
		for key := range ls.allowlist {
			ls.trusted = append(ls.trusted, strategies[name].Body(key))
		}
		sort.Strings(ls.trusted)
	}
	return nil
}

// Chain returns the chain registered under id, including ones added with WithChain.
func (c *Classifier) Chain(id int64) (Chain, error) {
	chain, ok := c.chains[id]
	if !ok {
		return Chain{}, fmt.Errorf("%w: %d", ErrUnsupportedChain, id)
	}
	return chain, nil
}

// Chains lists every chain the classifier accepts, ordered by id.
func (c *Classifier) Chains() []Chain {
	return sortedChains(c.chains)
}

// Classify returns the verdict for address on chainID. The only error is
// ErrUnsupportedChain; a malformed address is a normal, invalid Result.
func (c *Classifier) Classify(chainID int64, address string) (Result, error) {
	chain, err := c.Chain(chainID)
	if err != nil {
		return Result{}, err
	}
	strategy := chain.Strategy

	if !strategy.IsValidSyntax(address) {
		return Result{
			IsValid:    false,
			Confidence: 0,
			WalletType: WalletUnknown,
			RiskLevel:  RiskMedium,
			Features:   []string{FeatureInvalidFormat},
		}, nil
	}

	t := tally{features: []string{}, walletType: WalletUnknown}

	switch strategy.Checksum(address) {
	case ChecksumAbsent:
		t.penalty += checksumAbsentPenalty
	case ChecksumMismatch:
		t.features = append(t.features, FeatureChecksumMismatch)
		t.penalty += checksumMismatchPenalty
	}

	key := strategy.Normalize(address)
	lists := c.lists[strategy.Name()]

	if s, ok := strategy.Sentinel(key); ok {
		t.features = append(t.features, s.Tag)
		t.penalty += s.SecurityPenalty
		t.walletType = s.WalletType
		return c.finish(t), nil
	}
	if _, ok := lists.denylist[key]; ok {
		t.features = append(t.features, FeatureDenylisted)
		t.confidence = maxScore
		t.penalty += denylistPenalty
		t.escalated, t.denied = true, true
		t.walletType = WalletFlagged
		return c.finish(t), nil
	}
	if l, ok := lists.allowlist[key]; ok {
		t.features = append(t.features, FeatureKnownAddress)
		t.walletType = l.Type
		if t.walletType == "" {
			t.walletType = WalletContract
		}
		return c.finish(t), nil
	}

	subject := Subject{
		Key:     key,
		Body:    strategy.Body(key),
		trusted: lists.trusted,
		watched: lists.watchlist,
	}
	// the type comes from the heaviest fired rule that names one; untyped
	// rules only add confidence
	typed, typeWeight := false, 0
	for _, r := range c.rules {
		if !r.Match(subject) {
			continue
		}
		t.features = append(t.features, r.Tag)
		t.confidence += r.Weight
		t.penalty += r.SecurityPenalty
		if r.EscalatesRisk {
			t.escalated = true
		}
		if r.WalletType != "" && (!typed || r.Weight > typeWeight) {
			t.walletType, typed, typeWeight = r.WalletType, true, r.Weight
		}
	}
	return c.finish(t), nil
}

// Label returns the caller supplied label for address on chainID, checking
// the denylist, allowlist and watchlist in that order.
func (c *Classifier) Label(chainID int64, address string) (string, bool) {
	chain, ok := c.chains[chainID]
	if !ok || !chain.Strategy.IsValidSyntax(address) {
		return "", false
	}
	key := chain.Strategy.Normalize(address)
	ls := c.lists[chain.Strategy.Name()]
	for _, list := range []map[string]Listing{ls.denylist, ls.allowlist, ls.watchlist} {
		if l, ok := list[key]; ok {
			return l.Label, true
		}
	}
	return "", false
}

type tally struct {
	features   []string
	confidence int
	penalty    int
	escalated  bool
	denied     bool
	walletType WalletType
}

func (c *Classifier) finish(t tally) Result {
	confidence := clamp(t.confidence, 0, maxScore)

	risk := RiskMedium
	switch {
	case t.escalated || confidence >= c.high:
		risk = RiskHigh
	case confidence <= c.low && !t.denied:
		risk = RiskLow
	}

	return Result{
		IsValid:       true,
		Confidence:    confidence,
		WalletType:    t.walletType,
		RiskLevel:     risk,
		Features:      t.features,
		SecurityScore: clamp(maxScore-t.penalty, 0, maxScore),
	}
}

func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
