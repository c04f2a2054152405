package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const recordFileMode = 0o600

// record is one JSON document on disk, loaded through koanf and rewritten
// wholesale on every change.
type record struct {
	mu   sync.RWMutex
	path string
	k    *koanf.Koanf
}

func loadRecord(path string) *record {
	r := &record{path: path, k: koanf.New(".")}

	if _, err := os.Stat(path); err != nil {
		return r
	}

	if err := r.k.Load(file.Provider(path), json.Parser()); err != nil {
		slog.Warn("ignoring unreadable record", "path", path, "error", err)
		r.k = koanf.New(".")
	}
	return r
}

func (r *record) get(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.k.String(key)
}

func (r *record) set(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.k.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return r.flushLocked()
}

// reset drops every key and persists the empty record.
func (r *record) reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.k = koanf.New(".")
	return r.flushLocked()
}

func (r *record) flushLocked() error {
	data, err := r.k.Marshal(json.Parser())
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", r.path, err)
	}
	return writeFileAtomic(r.path, data)
}

// writeFileAtomic replaces path with data so readers observe either the old
// or the new content, never a partial write.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, recordFileMode); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
