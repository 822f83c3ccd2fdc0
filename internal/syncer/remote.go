// Package syncer pushes local state to a remote backup store under a
// debounce + single-flight + coalescing discipline, and restores from it.
package syncer

import (
	"context"

	"github.com/google/uuid"

	"github.com/iho/networth/internal/kv"
	"github.com/iho/networth/internal/ledger"
)

// RemoteStore is the narrow interface both remote variants (WebDAV and the
// account-based HTTP API) implement. The engine treats them as
// interchangeable.
type RemoteStore interface {
	// Name identifies the store in logs and status output.
	Name() string
	// Upload pushes one serialized backup document.
	Upload(ctx context.Context, data []byte) error
	// Download fetches the current remote document.
	Download(ctx context.Context) ([]byte, error)
}

// DeviceID returns this device's stable sync identity, creating one on
// first use. The key lives under the device-local prefix so it never leaks
// into portable backups.
func DeviceID(ctx context.Context, store kv.Store) (string, error) {
	id, ok, err := store.Get(ctx, ledger.KeyDeviceID)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := store.Set(ctx, ledger.KeyDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}
