package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupChain(t *testing.T) {
	c, err := LookupChain(1)
	require.NoError(t, err)
	assert.Equal(t, "Ethereum", c.Name)
	assert.Equal(t, "EVM", c.Strategy.Name())

	_, err = LookupChain(999999)
	assert.ErrorIs(t, err, ErrUnsupportedChain)
}

func TestSupportedChainsSorted(t *testing.T) {
	chains := SupportedChains()
	require.Len(t, chains, len(registry))
	for i := 1; i < len(chains); i++ {
		assert.Less(t, chains[i-1].ID, chains[i].ID)
	}
}

func TestAddressURL(t *testing.T) {
	u, err := AddressURL(1, wethChecksummed)
	require.NoError(t, err)
	assert.Equal(t, "https://etherscan.io/address/"+wethChecksummed, u)

	u, err = AddressURL(8453, zeroAddress)
	require.NoError(t, err)
	assert.Equal(t, "https://basescan.org/address/"+zeroAddress, u)

	_, err = AddressURL(424242, zeroAddress)
	assert.ErrorIs(t, err, ErrUnsupportedChain)
}

func TestChainDisplayAddress(t *testing.T) {
	eth, err := LookupChain(1)
	require.NoError(t, err)
	assert.Equal(t, wethChecksummed, eth.DisplayAddress(strings.ToLower(wethChecksummed)))
	assert.Equal(t, "not-an-address", eth.DisplayAddress("not-an-address"))

	other := Chain{ID: 900, Strategy: base58Strategy{}}
	assert.Equal(t, "So11111111111111111111111111111111111111112", other.DisplayAddress("So11111111111111111111111111111111111111112"))
	assert.Empty(t, other.AddressURL("So11111111111111111111111111111111111111112"))
}

func TestBuiltinListingsAreValid(t *testing.T) {
	s := &EVMStrategy{}
	for _, l := range append(append([]Listing{}, KnownContracts...), KnownThreats...) {
		assert.True(t, s.IsValidSyntax(l.Address), l.Label)
		assert.Equal(t, ChecksumValid, s.Checksum(l.Address), l.Label)
	}
}
