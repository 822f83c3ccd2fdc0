package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File is a Store persisted as a single JSON object on disk. Every write
// rewrites the file through an atomic rename, so a crash mid-write leaves
// the previous state intact.
type File struct {
	mu    sync.Mutex
	path  string
	items map[string]string
	bus   *Bus
}

// OpenFile loads (or creates) the store at path. bus may be nil.
func OpenFile(path string, bus *Bus) (*File, error) {
	f := &File{path: path, items: make(map[string]string), bus: bus}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return f, nil
		}
		return nil, fmt.Errorf("open kv file: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &f.items); err != nil {
			return nil, fmt.Errorf("decode kv file %s: %w", path, err)
		}
	}
	return f, nil
}

func (f *File) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.items[key]
	return v, ok, nil
}

func (f *File) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	prev, existed := f.items[key]
	f.items[key] = value
	err := f.flushLocked()
	if err != nil {
		// Roll the map back so memory matches disk.
		if existed {
			f.items[key] = prev
		} else {
			delete(f.items, key)
		}
	}
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if f.bus != nil {
		f.bus.Publish(Event{Key: key})
	}
	return nil
}

func (f *File) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	prev, existed := f.items[key]
	if !existed {
		f.mu.Unlock()
		return nil
	}
	delete(f.items, key)
	err := f.flushLocked()
	if err != nil {
		f.items[key] = prev
	}
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if f.bus != nil {
		f.bus.Publish(Event{Key: key})
	}
	return nil
}

func (f *File) Keys(ctx context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (f *File) flushLocked() error {
	data, err := json.MarshalIndent(f.items, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create kv dir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write kv file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace kv file: %w", err)
	}
	return nil
}
