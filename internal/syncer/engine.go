package syncer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/networth/internal/backup"
	"github.com/iho/networth/internal/domain"
	"github.com/iho/networth/internal/kv"
	"github.com/iho/networth/internal/ledger"
)

// Defaults for the engine's timing knobs.
const (
	DefaultDebounce = 3 * time.Second
	DefaultCooldown = 500 * time.Millisecond
	DefaultTimeout  = 30 * time.Second
)

// Status is a read-only view of the engine's state machine.
type Status struct {
	Remote       string
	Enabled      bool
	InFlight     bool
	Pending      bool
	LastBackupAt time.Time
	LastError    string
}

// Engine watches for local mutations and pushes backup documents to one
// remote store. Its state machine has exactly three states: Idle, InFlight,
// and InFlight with a pending follow-up; the inFlight flag is the only lock
// in the system and serializes backup and restore against each other.
//
// Two engines for two different remote configurations are independent and
// do not exclude each other.
type Engine struct {
	store  kv.Store
	codec  *backup.Codec
	remote RemoteStore
	log    zerolog.Logger

	debounce time.Duration
	cooldown time.Duration
	timeout  time.Duration

	mu           sync.Mutex
	enabled      bool
	inFlight     bool
	pending      bool
	lastBackupAt time.Time
	lastError    string
	timer        *time.Timer
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithDebounce sets the default debounce delay used by the change watcher.
func WithDebounce(d time.Duration) EngineOption {
	return func(e *Engine) { e.debounce = d }
}

// WithCooldown sets the delay before a coalesced follow-up backup.
func WithCooldown(d time.Duration) EngineOption {
	return func(e *Engine) { e.cooldown = d }
}

// WithTimeout bounds each network round-trip.
func WithTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.timeout = d }
}

// WithEngineLogger sets the structured logger.
func WithEngineLogger(log zerolog.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

// NewEngine creates an Engine for one remote store configuration. The
// engine starts disabled.
func NewEngine(store kv.Store, remote RemoteStore, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    store,
		codec:    backup.NewCodec(store),
		remote:   remote,
		log:      zerolog.Nop(),
		debounce: DefaultDebounce,
		cooldown: DefaultCooldown,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetEnabled turns the engine on or off. Disabling cancels any armed
// debounce timer and drops the pending flag; an in-flight request is never
// interrupted mid-push.
func (e *Engine) SetEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.enabled = enabled
	if !enabled {
		e.pending = false
		e.stopTimerLocked()
	}
}

// Status returns a copy of the engine's current state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Status{
		Remote:       e.remote.Name(),
		Enabled:      e.enabled,
		InFlight:     e.inFlight,
		Pending:      e.pending,
		LastBackupAt: e.lastBackupAt,
		LastError:    e.lastError,
	}
}

// QueueBackup marks a backup as pending and (re)starts the debounce timer.
// Each call supersedes the previous timer, so a burst of mutations results
// in a single upload once the burst settles. A disabled engine ignores the
// call entirely.
func (e *Engine) QueueBackup(delay time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.enabled {
		return
	}

	e.pending = true
	e.stopTimerLocked()
	e.timer = time.AfterFunc(delay, e.debounceFired)
}

func (e *Engine) debounceFired() {
	e.mu.Lock()
	if !e.pending {
		e.mu.Unlock()
		return
	}
	e.pending = false
	e.mu.Unlock()

	e.RequestBackup()
}

// RequestBackup runs a backup without blocking the caller. Errors surface
// through Status().LastError; the next debounce cycle retries automatically.
func (e *Engine) RequestBackup() {
	go func() {
		if err := e.Backup(context.Background()); err != nil {
			e.log.Debug().Err(err).Str("remote", e.remote.Name()).Msg("background backup not run")
		}
	}()
}

// Backup serializes current state and pushes it to the remote store.
//
// If a backup or restore is already in flight the request coalesces: the
// pending flag is set and ErrSyncBusy is returned without starting a second
// concurrent push. When the in-flight request completes it schedules exactly
// one follow-up after a short cooldown, reflecting the latest state.
func (e *Engine) Backup(ctx context.Context) error {
	e.mu.Lock()
	if !e.enabled {
		e.mu.Unlock()
		return domain.ErrSyncDisabled
	}
	if e.inFlight {
		e.pending = true
		e.mu.Unlock()
		return domain.ErrSyncBusy
	}
	e.inFlight = true
	// This push will reflect any mutation the debounce was armed for.
	e.pending = false
	e.stopTimerLocked()
	e.mu.Unlock()

	err := e.push(ctx)
	e.finish(err)
	return err
}

func (e *Engine) push(ctx context.Context) error {
	doc, err := e.codec.Export(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	data, err := backup.Encode(doc)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.remote.Upload(ctx, data); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}

// finish leaves the InFlight state. Success stamps lastBackupAt (also
// persisted under the device-local remote prefix, which the watcher
// ignores); failure records lastError text. Local state is the source of
// truth either way, so a failed push never rolls anything back.
func (e *Engine) finish(err error) {
	e.mu.Lock()
	e.inFlight = false
	if err != nil {
		e.lastError = err.Error()
		e.log.Warn().Err(err).Str("remote", e.remote.Name()).Msg("backup failed")
	} else {
		e.lastBackupAt = time.Now()
		e.lastError = ""
		e.log.Info().Str("remote", e.remote.Name()).Msg("backup uploaded")
	}
	followUp := e.pending
	e.pending = false
	stamp := e.lastBackupAt
	e.mu.Unlock()

	if err == nil {
		key := ledger.RemotePrefix + e.remote.Name() + ":last-backup-at"
		if serr := e.store.Set(context.Background(), key, stamp.UTC().Format(time.RFC3339)); serr != nil {
			e.log.Warn().Err(serr).Msg("failed to persist last backup time")
		}
	}

	if followUp {
		time.AfterFunc(e.cooldown, e.RequestBackup)
	}
}

// RestoreFromRemote downloads the remote document, validates it, and
// replaces local state with it. It fails fast when sync is disabled or a
// backup/restore is already in flight; both paths share the inFlight flag,
// so no two network operations ever race against the same remote object.
func (e *Engine) RestoreFromRemote(ctx context.Context) (*backup.RestoreReport, error) {
	e.mu.Lock()
	if !e.enabled {
		e.mu.Unlock()
		return nil, domain.ErrSyncDisabled
	}
	if e.inFlight {
		e.mu.Unlock()
		return nil, domain.ErrSyncBusy
	}
	e.inFlight = true
	e.stopTimerLocked()
	e.mu.Unlock()

	report, err := e.restore(ctx)
	e.finishRestore(err)
	return report, err
}

func (e *Engine) restore(ctx context.Context) (*backup.RestoreReport, error) {
	dlCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	data, err := e.remote.Download(dlCtx)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	doc, err := backup.Decode(data)
	if err != nil {
		return nil, err
	}
	return e.codec.Restore(ctx, doc)
}

func (e *Engine) finishRestore(err error) {
	e.mu.Lock()
	e.inFlight = false
	if err != nil {
		e.lastError = err.Error()
		e.log.Warn().Err(err).Str("remote", e.remote.Name()).Msg("restore failed")
	} else {
		e.lastError = ""
		e.log.Info().Str("remote", e.remote.Name()).Msg("restore applied")
	}
	followUp := e.pending
	e.pending = false
	e.mu.Unlock()

	if followUp {
		time.AfterFunc(e.cooldown, e.RequestBackup)
	}
}

// Watch subscribes the engine to storage change events, debouncing a backup
// for every namespaced write that is not device-local. The returned cancel
// function removes the subscription.
func (e *Engine) Watch(bus *kv.Bus) (cancel func()) {
	return bus.Subscribe(func(ev kv.Event) {
		if !strings.HasPrefix(ev.Key, ledger.Namespace) {
			return
		}
		for _, p := range ledger.ExcludedPrefixes {
			if strings.HasPrefix(ev.Key, p) {
				return
			}
		}
		e.QueueBackup(e.debounce)
	})
}

// stopTimerLocked cancels an armed debounce timer. Callers hold e.mu.
func (e *Engine) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}
