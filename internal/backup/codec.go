// Package backup serializes the engine's entire persisted state into a
// versioned, portable document and restores it back.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iho/networth/internal/domain"
	"github.com/iho/networth/internal/kv"
	"github.com/iho/networth/internal/ledger"
)

// Schema is the fixed version tag. Documents carrying any other tag are
// rejected outright; there is no forward or backward migration.
const Schema = "networth.backup.v1"

// Document is the portable backup wire format. Items holds every persisted
// key under the engine's namespace except device-local ones, raw values
// verbatim.
type Document struct {
	Schema    string            `json:"schema"`
	CreatedAt string            `json:"createdAt"`
	Items     map[string]string `json:"items"`
}

// RestoreReport records what a restore did to storage, key by key.
type RestoreReport struct {
	Cleared []string
	Written []string
	Skipped []string
}

// Codec exports and restores the namespaced key set of one store.
type Codec struct {
	store    kv.Store
	prefix   string
	excluded []string
	now      func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for createdAt stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec creates a Codec over the engine namespace with the standard
// excluded prefixes.
func NewCodec(store kv.Store, opts ...Option) *Codec {
	c := &Codec{
		store:    store,
		prefix:   ledger.Namespace,
		excluded: ledger.ExcludedPrefixes,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Codec) excludedKey(key string) bool {
	for _, p := range c.excluded {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// includedKeys returns the namespaced, non-excluded keys currently in
// storage, sorted lexicographically.
func (c *Codec) includedKeys(ctx context.Context) ([]string, error) {
	keys, err := c.store.Keys(ctx, c.prefix)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}

	out := keys[:0]
	for _, k := range keys {
		if !c.excludedKey(k) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Export builds a Document from current storage. Keys are sorted before
// serialization, so two exports of identical state are byte-identical.
func (c *Codec) Export(ctx context.Context) (*Document, error) {
	keys, err := c.includedKeys(ctx)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Schema:    Schema,
		CreatedAt: c.now().UTC().Format(time.RFC3339),
		Items:     make(map[string]string, len(keys)),
	}
	for _, k := range keys {
		v, ok, err := c.store.Get(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", k, err)
		}
		if !ok {
			continue
		}
		doc.Items[k] = v
	}
	return doc, nil
}

// Encode serializes a document. encoding/json writes map keys in sorted
// order, which keeps the byte-identical export guarantee.
func Encode(doc *Document) ([]byte, error) {
	return json.Marshal(doc)
}

// Decode parses and validates a backup document: the schema literal must
// match, createdAt must be a string, items must be an object. Item values
// that are not strings are dropped silently, not errored.
func Decode(data []byte) (*Document, error) {
	var raw struct {
		Schema    string                     `json:"schema"`
		CreatedAt *string                    `json:"createdAt"`
		Items     map[string]json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSchemaMismatch, err)
	}

	if raw.Schema != Schema {
		return nil, fmt.Errorf("%w: got %q, want %q", domain.ErrSchemaMismatch, raw.Schema, Schema)
	}
	if raw.CreatedAt == nil {
		return nil, fmt.Errorf("%w: missing createdAt", domain.ErrSchemaMismatch)
	}
	if raw.Items == nil {
		return nil, fmt.Errorf("%w: missing items", domain.ErrSchemaMismatch)
	}

	doc := &Document{
		Schema:    raw.Schema,
		CreatedAt: *raw.CreatedAt,
		Items:     make(map[string]string, len(raw.Items)),
	}
	for k, v := range raw.Items {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			continue
		}
		doc.Items[k] = s
	}
	return doc, nil
}

// Restore replaces storage with the document's contents in two phases:
// first clear every non-excluded namespaced key, then write every document
// key that belongs to the namespace and is not excluded. The clear-first
// ordering guarantees no leftover keys survive from before the restore.
// Keys outside the namespace or under an excluded prefix are recorded as
// skipped, never written.
func (c *Codec) Restore(ctx context.Context, doc *Document) (*RestoreReport, error) {
	report := &RestoreReport{}

	keys, err := c.includedKeys(ctx)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		if err := c.store.Delete(ctx, k); err != nil {
			return nil, fmt.Errorf("clear %s: %w", k, err)
		}
		report.Cleared = append(report.Cleared, k)
	}

	incoming := make([]string, 0, len(doc.Items))
	for k := range doc.Items {
		incoming = append(incoming, k)
	}
	sort.Strings(incoming)

	for _, k := range incoming {
		if !strings.HasPrefix(k, c.prefix) || c.excludedKey(k) {
			report.Skipped = append(report.Skipped, k)
			continue
		}
		if err := c.store.Set(ctx, k, doc.Items[k]); err != nil {
			return nil, fmt.Errorf("write %s: %w", k, err)
		}
		report.Written = append(report.Written, k)
	}
	return report, nil
}
