package validator

import "errors"

// ErrUnsupportedChain is returned when the caller passes a chain id the
// registry knows nothing about. Malformed addresses are not errors.
var ErrUnsupportedChain = errors.New("unsupported chain")

// ErrInvalidConfig is returned by NewClassifier for bad thresholds, rules or listings.
var ErrInvalidConfig = errors.New("invalid classifier config")

type WalletType string

const (
	WalletEOA      WalletType = "eoa"
	WalletContract WalletType = "contract"
	WalletMultisig WalletType = "multisig"
	WalletBurn     WalletType = "burn_address"
	WalletFlagged  WalletType = "flagged"
	WalletUnknown  WalletType = "unknown"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Feature tags produced by the format gate, checksum check and sentinels.
// Rule tags live next to the rule table.
const (
	FeatureInvalidFormat    = "invalid_format"
	FeatureChecksumMismatch = "checksum_mismatch"
	FeatureBurnAddress      = "burn_address"
	FeaturePrecompile       = "precompile"
	FeatureDenylisted       = "denylisted"
	FeatureKnownAddress     = "known_address"
)

// Result is the verdict for one address. A fresh value is built on every call.
type Result struct {
	IsValid       bool       `json:"is_valid"`
	Confidence    int        `json:"confidence"` // 0-100, sum of fired rule weights
	WalletType    WalletType `json:"wallet_type"`
	RiskLevel     RiskLevel  `json:"risk_level"`
	Features      []string   `json:"features"`       // evaluation order
	SecurityScore int        `json:"security_score"` // 0-100, address hygiene
}

// HasFeature reports whether tag fired for this result.
func (r Result) HasFeature(tag string) bool {
	for _, f := range r.Features {
		if f == tag {
			return true
		}
	}
	return false
}

// Listing is a caller supplied address with a human label, used for the
// denylist, allowlist and watchlist.
type Listing struct {
	Address string     `json:"address" toml:"address"`
	Label   string     `json:"label" toml:"label"`
	Type    WalletType `json:"type,omitempty" toml:"type"`
}

type ChecksumStatus int

const (
	ChecksumNotApplicable ChecksumStatus = iota // no letters, nothing to encode
	ChecksumValid
	ChecksumAbsent // single case input
	ChecksumMismatch
)

// Sentinel describes a reserved address with a fixed meaning.
type Sentinel struct {
	Tag             string
	WalletType      WalletType
	SecurityPenalty int
}

// ChainStrategy is the address family of a chain: its literal shape,
// checksum scheme and reserved addresses.
type ChainStrategy interface {
	Name() string
	IsValidSyntax(address string) bool
	// Normalize returns the canonical lookup key of a syntactically valid address.
	Normalize(address string) string
	// Body strips any family prefix from a normalized key; rules match on it.
	Body(key string) string
	Checksum(address string) ChecksumStatus
	Sentinel(key string) (Sentinel, bool)
}
