package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const kvFileName = "kv.json"

// File is a directory-backed store for local-only deployments. Each snapshot
// key maps to <dir>/<key>.json; KV entries live in a single kv.json with
// absolute expiry timestamps.
type File struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

type kvEntry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewFile creates the data directory when missing.
func NewFile(dir string, logger *zap.Logger) (*File, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &File{dir: dir, logger: logger, now: time.Now}, nil
}

// Load reads a snapshot file. Missing files and malformed payloads both
// resolve to an empty collection.
func (f *File) Load(_ context.Context, key string) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.snapshotPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot %s: %w", key, err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		f.logger.Warn("malformed snapshot, treating as empty",
			zap.String("key", key), zap.Error(err))
		return nil, nil
	}
	return records, nil
}

// Save atomically replaces a snapshot file.
func (f *File) Save(_ context.Context, key string, records []json.RawMessage) error {
	if records == nil {
		records = []json.RawMessage{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeFile(f.snapshotPath(key), payload)
}

// Get returns a KV entry or ErrKVMiss; expired entries are pruned lazily.
func (f *File) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := f.readKV()
	entry, ok := entries[key]
	if !ok {
		return "", ErrKVMiss
	}
	if f.now().After(entry.ExpiresAt) {
		delete(entries, key)
		_ = f.writeKV(entries)
		return "", ErrKVMiss
	}
	return entry.Value, nil
}

// SetWithTTL stores a KV entry that expires after ttl.
func (f *File) SetWithTTL(_ context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := f.readKV()
	entries[key] = kvEntry{Value: value, ExpiresAt: f.now().Add(ttl)}
	return f.writeKV(entries)
}

// Delete removes a KV entry.
func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := f.readKV()
	delete(entries, key)
	return f.writeKV(entries)
}

func (f *File) snapshotPath(key string) string {
	// Keys come from configuration, not user input; Base guards against
	// separators sneaking into file names regardless.
	name := filepath.Base(strings.TrimSpace(key))
	return filepath.Join(f.dir, name+".json")
}

func (f *File) readKV() map[string]kvEntry {
	entries := make(map[string]kvEntry)
	raw, err := os.ReadFile(filepath.Join(f.dir, kvFileName))
	if err != nil {
		return entries
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		f.logger.Warn("malformed kv file, starting empty", zap.Error(err))
		return make(map[string]kvEntry)
	}
	return entries
}

func (f *File) writeKV(entries map[string]kvEntry) error {
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal kv entries: %w", err)
	}
	return f.writeFile(filepath.Join(f.dir, kvFileName), payload)
}

// writeFile writes via a temp file and rename so readers never observe a
// partial snapshot.
func (f *File) writeFile(path string, payload []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
