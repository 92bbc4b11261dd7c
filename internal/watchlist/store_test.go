package watchlist

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piyushdaiya/address-classifier/internal/logging"
	"github.com/piyushdaiya/address-classifier/internal/validator"
)

const (
	sanctionedETH = "0x8589427373D6D84E98730D7795D8f6f8731FDA16"
	sanctionedBTC = "bc1qa5wkgaew2dkv56kfvj49j0av5nml45x9ek9hz6"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	logging.DiscardLogging()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "watchlist.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreLookup(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Upsert(ctx, Entry{Address: " " + sanctionedETH + " ", Currency: "ETH", Source: SourceOFAC}))
	require.NoError(t, s.Upsert(ctx, Entry{Address: sanctionedBTC, Currency: "XBT", Source: SourceOFAC}))

	got, err := s.Lookup(ctx, sanctionedETH)
	require.NoError(t, err)
	assert.True(t, got.Sanctioned)
	assert.Equal(t, "ETH", got.Currency)
	assert.Equal(t, SourceOFAC, got.Source)

	// EVM lookups ignore case
	got, err = s.Lookup(ctx, "0x8589427373d6d84e98730d7795d8f6f8731fda16")
	require.NoError(t, err)
	assert.True(t, got.Sanctioned)

	got, err = s.Lookup(ctx, "0x0000000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.False(t, got.Sanctioned)
	assert.Empty(t, got.Currency)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStoreAddressesFilter(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Upsert(ctx, Entry{Address: sanctionedETH, Currency: "ETH", Source: SourceOFAC}))
	require.NoError(t, s.Upsert(ctx, Entry{Address: sanctionedBTC, Currency: "XBT", Source: SourceOFAC}))

	all, err := s.Addresses(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	eth, err := s.Addresses(ctx, "ETH", "USDC")
	require.NoError(t, err)
	require.Len(t, eth, 1)
	assert.Equal(t, "0x8589427373d6d84e98730d7795d8f6f8731fda16", eth[0].Address)
	assert.False(t, eth[0].UpdatedAt.IsZero())
}

func TestStoreBatchCommit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	lm, err := s.LastModified(ctx)
	require.NoError(t, err)
	assert.Empty(t, lm)

	b, err := s.Begin(ctx, SourceOFAC)
	require.NoError(t, err)
	require.NoError(t, b.Add(sanctionedETH, "ETH"))
	require.NoError(t, b.Add(sanctionedBTC, "XBT"))
	assert.Equal(t, 2, b.Loaded())
	require.NoError(t, b.Commit("Tue, 01 Jul 2025 12:00:00 GMT"))

	lm, err = s.LastModified(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Tue, 01 Jul 2025 12:00:00 GMT", lm)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStoreBatchRollback(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	b, err := s.Begin(ctx, SourceOFAC)
	require.NoError(t, err)
	require.NoError(t, b.Add(sanctionedETH, "ETH"))
	b.Rollback()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStoreDenylist(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Upsert(ctx, Entry{Address: sanctionedETH, Currency: "ETH", Source: SourceOFAC}))
	require.NoError(t, s.Upsert(ctx, Entry{Address: sanctionedBTC, Currency: "XBT", Source: SourceOFAC}))

	deny, err := s.Denylist(ctx)
	require.NoError(t, err)
	require.Len(t, deny, 1)
	assert.Equal(t, validator.WalletFlagged, deny[0].Type)
	assert.Equal(t, "OFAC sanctioned (ETH)", deny[0].Label)

	c, err := validator.NewClassifier(validator.WithDenylist(deny...))
	require.NoError(t, err)
	res, err := c.Classify(1, sanctionedETH)
	require.NoError(t, err)
	assert.Equal(t, validator.RiskHigh, res.RiskLevel)
}
