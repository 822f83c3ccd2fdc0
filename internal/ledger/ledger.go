// Package ledger implements the account store, the append-only operation
// log with conditional rollback, and the snapshot store, all persisted
// through the kv namespace.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/iho/networth/internal/domain"
	"github.com/iho/networth/internal/kv"
)

// IDGenerator generates unique IDs for accounts and operations.
type IDGenerator interface {
	Generate() string
}

// ULIDGenerator generates ULID-based IDs.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}

// Ledger is the user's balance sheet: accounts, operation log, and
// snapshots, all read and written through one kv store.
//
// A single mutex serializes every mutation: local mutations are atomic with
// respect to each other, and only the sync engine's network round-trips
// interleave.
type Ledger struct {
	mu    sync.Mutex
	store kv.Store
	idGen IDGenerator
	now   func() time.Time
	log   zerolog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithIDGenerator overrides the default ULID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(l *Ledger) { l.idGen = g }
}

// WithClock overrides the time source. Tests use this to pin timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger sets the structured logger.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// New creates a Ledger over the given store.
func New(store kv.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		idGen: NewULIDGenerator(),
		now:   time.Now,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// loadJSON reads and decodes the value at key into v. A missing key leaves
// v untouched.
func (l *Ledger) loadJSON(ctx context.Context, key string, v any) error {
	raw, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// saveJSON encodes v and writes it at key.
func (l *Ledger) saveJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := l.store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (l *Ledger) loadAccounts(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := l.loadJSON(ctx, KeyAccounts, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (l *Ledger) saveAccounts(ctx context.Context, accounts []domain.Account) error {
	return l.saveJSON(ctx, KeyAccounts, accounts)
}

func (l *Ledger) loadOperations(ctx context.Context) ([]domain.Operation, error) {
	var ops []domain.Operation
	if err := l.loadJSON(ctx, KeyOperations, &ops); err != nil {
		return nil, err
	}
	return ops, nil
}

func (l *Ledger) saveOperations(ctx context.Context, ops []domain.Operation) error {
	return l.saveJSON(ctx, KeyOperations, ops)
}

func (l *Ledger) loadSnapshots(ctx context.Context) ([]domain.Snapshot, error) {
	var snaps []domain.Snapshot
	if err := l.loadJSON(ctx, KeySnapshots, &snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

func (l *Ledger) saveSnapshots(ctx context.Context, snaps []domain.Snapshot) error {
	return l.saveJSON(ctx, KeySnapshots, snaps)
}
