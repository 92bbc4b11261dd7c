package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piyushdaiya/address-classifier/internal/validator"
)

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadPolicyEmptyPath(t *testing.T) {
	p, err := LoadPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), p)
}

func TestLoadPolicyFile(t *testing.T) {
	path := writePolicy(t, `
low_threshold = 10
high_threshold = 60
include_known_contracts = false

[[allowlist]]
address = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
label = "treasury safe"
type = "multisig"

[[watchlist]]
address = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
label = "exchange"
`)
	p, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, 10, p.LowThreshold)
	assert.Equal(t, 60, p.HighThreshold)
	assert.False(t, p.IncludeKnownContracts)
	assert.True(t, p.IncludeKnownThreats)
	require.Len(t, p.Allowlist, 1)
	assert.Equal(t, validator.WalletMultisig, p.Allowlist[0].Type)
	require.Len(t, p.Watchlist, 1)

	c, err := p.NewClassifier()
	require.NoError(t, err)

	got, err := c.Classify(1, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	require.NoError(t, err)
	assert.Equal(t, validator.WalletMultisig, got.WalletType)

	got, err = c.Classify(1, "0xd90e2f925DA726b50C4Ed8D0Fb90Ad053324F31b")
	require.NoError(t, err)
	assert.Equal(t, validator.RiskHigh, got.RiskLevel)

	// known contracts are off, so WETH is just a plain address
	got, err = c.Classify(1, "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	require.NoError(t, err)
	assert.NotContains(t, got.Features, validator.FeatureKnownAddress)
}

func TestLoadPolicyRejectsUnknownKeys(t *testing.T) {
	path := writePolicy(t, "hihg_threshold = 80\n")
	_, err := LoadPolicy(path)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "hihg_threshold"), err.Error())
}

func TestLoadPolicyMissingFile(t *testing.T) {
	_, err := LoadPolicy(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestPolicyExtraDeny(t *testing.T) {
	sanctioned := validator.Listing{Address: "0x27b1fdb04752bbc536007a920d24acb045561c26", Label: "OFAC ETH"}
	c, err := DefaultPolicy().NewClassifier(sanctioned)
	require.NoError(t, err)

	got, err := c.Classify(1, sanctioned.Address)
	require.NoError(t, err)
	assert.Equal(t, []string{validator.FeatureDenylisted}, got.Features)
}

func TestPolicyInvalidThresholds(t *testing.T) {
	p := DefaultPolicy()
	p.LowThreshold, p.HighThreshold = 80, 40
	_, err := p.NewClassifier()
	assert.ErrorIs(t, err, validator.ErrInvalidConfig)
}

func TestPolicyChains(t *testing.T) {
	path := writePolicy(t, `
[[chains]]
id = 31337
name = "Anvil"
explorer = "http://localhost:5100"
`)
	p, err := LoadPolicy(path)
	require.NoError(t, err)
	require.Len(t, p.Chains, 1)

	c, err := p.NewClassifier()
	require.NoError(t, err)
	ch, err := c.Chain(31337)
	require.NoError(t, err)
	assert.Equal(t, "Anvil", ch.Name)

	got, err := c.Classify(31337, "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	require.NoError(t, err)
	assert.Equal(t, []string{validator.FeatureKnownAddress}, got.Features)
}
