package watchlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/piyushdaiya/address-classifier/internal/core"
	"github.com/piyushdaiya/address-classifier/internal/validator"
)

const schema = `
CREATE TABLE IF NOT EXISTS sanctioned_addresses (
	address TEXT PRIMARY KEY,
	currency TEXT,
	source TEXT,
	updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS metadata (key TEXT PRIMARY KEY, value TEXT);
`

const (
	upsertSQL   = "INSERT OR REPLACE INTO sanctioned_addresses(address, currency, source, updated_at) VALUES(?, ?, ?, ?)"
	metadataSQL = "INSERT OR REPLACE INTO metadata(key, value) VALUES(?, ?)"

	keyLastModified = "last_modified"
)

// Entry is one stored sanctioned address.
type Entry struct {
	Address   string
	Currency  string
	Source    string
	UpdatedAt time.Time
}

// Store is the sqlite backed sanctions list.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeAddress trims input and lowercases EVM addresses, whose case
// only carries a checksum. Other families are case sensitive.
func normalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if (&validator.EVMStrategy{}).IsValidSyntax(address) {
		return strings.ToLower(address)
	}
	return address
}

// Lookup reports whether address is sanctioned.
func (s *Store) Lookup(ctx context.Context, address string) (core.Sanction, error) {
	var out core.Sanction
	err := s.db.QueryRowContext(ctx,
		"SELECT currency, source FROM sanctioned_addresses WHERE address = ?", normalizeAddress(address),
	).Scan(&out.Currency, &out.Source)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return core.Sanction{}, nil
	case err != nil:
		return core.Sanction{}, fmt.Errorf("lookup %s: %w", address, err)
	}
	out.Sanctioned = true
	return out, nil
}

// Upsert stores a single address outside of a sync.
func (s *Store) Upsert(ctx context.Context, e Entry) error {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, upsertSQL, normalizeAddress(e.Address), e.Currency, e.Source, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", e.Address, err)
	}
	return nil
}

// Addresses returns stored entries, optionally filtered by currency, ordered by address.
func (s *Store) Addresses(ctx context.Context, currencies ...string) ([]Entry, error) {
	query := "SELECT address, currency, source, updated_at FROM sanctioned_addresses"
	args := make([]any, 0, len(currencies))
	if len(currencies) > 0 {
		query += " WHERE currency IN (?" + strings.Repeat(", ?", len(currencies)-1) + ")"
		for _, c := range currencies {
			args = append(args, c)
		}
	}
	query += " ORDER BY address"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Address, &e.Currency, &e.Source, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sanctioned_addresses").Scan(&n); err != nil {
		return 0, fmt.Errorf("count addresses: %w", err)
	}
	return n, nil
}

// LastModified returns the Last-Modified header recorded by the last sync, or "".
func (s *Store) LastModified(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", keyLastModified).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read last_modified: %w", err)
	}
	return v, nil
}

// Batch groups a sync's writes into one transaction.
type Batch struct {
	tx     *sql.Tx
	stmt   *sql.Stmt
	source string
	now    time.Time
	loaded int
}

func (s *Store) Begin(ctx context.Context, source string) (*Batch, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("prepare: %w", err)
	}
	return &Batch{tx: tx, stmt: stmt, source: source, now: time.Now().UTC()}, nil
}

func (b *Batch) Add(address, currency string) error {
	if _, err := b.stmt.Exec(normalizeAddress(address), currency, b.source, b.now); err != nil {
		return fmt.Errorf("insert %s: %w", address, err)
	}
	b.loaded++
	return nil
}

func (b *Batch) Loaded() int { return b.loaded }

// Commit records lastModified (when set) and commits the batch.
func (b *Batch) Commit(lastModified string) error {
	defer b.stmt.Close()
	if lastModified != "" {
		if _, err := b.tx.Exec(metadataSQL, keyLastModified, lastModified); err != nil {
			b.tx.Rollback()
			return fmt.Errorf("write last_modified: %w", err)
		}
	}
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (b *Batch) Rollback() {
	b.stmt.Close()
	b.tx.Rollback()
}

// Denylist returns every stored EVM address as a classifier listing.
func (s *Store) Denylist(ctx context.Context) ([]validator.Listing, error) {
	entries, err := s.Addresses(ctx)
	if err != nil {
		return nil, err
	}
	evm := &validator.EVMStrategy{}
	out := make([]validator.Listing, 0, len(entries))
	for _, e := range entries {
		if !evm.IsValidSyntax(e.Address) {
			continue
		}
		out = append(out, validator.Listing{
			Address: e.Address,
			Label:   fmt.Sprintf("%s sanctioned (%s)", e.Source, e.Currency),
			Type:    validator.WalletFlagged,
		})
	}
	return out, nil
}
