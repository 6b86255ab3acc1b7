package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	archiveName  = "archive.tgz"
	metadataName = "metadata.json"
)

// entryMetadata is stored alongside each archive so prefix lookups can rank
// candidates without opening them.
type entryMetadata struct {
	Key     string    `json:"key"`
	Paths   []string  `json:"paths"`
	Size    int64     `json:"size"`
	SavedAt time.Time `json:"saved_at"`
}

// DiskStore keeps cache entries on the local filesystem, one directory per
// key. Entries are sharded by the first two key characters to keep directory
// fanout sane, and saves go through a temp directory plus rename so a crashed
// run never leaves a half-written entry behind.
type DiskStore struct {
	root   string
	logger *slog.Logger
}

func NewDiskStore(root string, logger *slog.Logger) *DiskStore {
	return &DiskStore{root: root, logger: logger}
}

func (s *DiskStore) entryDir(key string) string {
	shard := key
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return filepath.Join(s.root, shard, key)
}

func (s *DiskStore) Lookup(_ context.Context, key string, restorePrefixes []string) (string, bool, error) {
	if _, err := os.Stat(filepath.Join(s.entryDir(key), archiveName)); err == nil {
		return key, true, nil
	}

	for _, prefix := range restorePrefixes {
		candidate, err := s.newestWithPrefix(prefix)
		if err != nil {
			return "", false, err
		}
		if candidate != "" {
			s.logger.Debug("cache prefix fallback", "prefix", prefix, "resolved", candidate)
			return candidate, true, nil
		}
	}
	return "", false, nil
}

// newestWithPrefix scans the store for keys matching prefix and returns the
// most recently saved one, or "" when none match.
func (s *DiskStore) newestWithPrefix(prefix string) (string, error) {
	shards, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to scan cache store: %w", err)
	}

	best := ""
	var bestTime time.Time
	for _, shard := range shards {
		if !shard.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(s.root, shard.Name()))
		if err != nil {
			return "", fmt.Errorf("failed to scan cache store: %w", err)
		}
		for _, entry := range entries {
			if !entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
				continue
			}
			savedAt := s.savedAt(entry.Name())
			if best == "" || savedAt.After(bestTime) {
				best = entry.Name()
				bestTime = savedAt
			}
		}
	}
	return best, nil
}

func (s *DiskStore) savedAt(key string) time.Time {
	data, err := os.ReadFile(filepath.Join(s.entryDir(key), metadataName))
	if err == nil {
		var meta entryMetadata
		if json.Unmarshal(data, &meta) == nil && !meta.SavedAt.IsZero() {
			return meta.SavedAt
		}
	}
	info, err := os.Stat(filepath.Join(s.entryDir(key), archiveName))
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func (s *DiskStore) Restore(_ context.Context, key, dest string) error {
	f, err := os.Open(filepath.Join(s.entryDir(key), archiveName))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("failed to open cache entry %q: %w", key, err)
	}
	defer f.Close()

	s.logger.Info("restoring cache entry", "key", key, "dest", dest)
	if err := unpack(f, dest); err != nil {
		return fmt.Errorf("failed to restore cache entry %q: %w", key, err)
	}
	return nil
}

func (s *DiskStore) Save(_ context.Context, key, base string, paths []string) error {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return fmt.Errorf("failed to create cache store: %w", err)
	}

	tmp, err := os.MkdirTemp(s.root, "save-*")
	if err != nil {
		return fmt.Errorf("failed to stage cache entry: %w", err)
	}
	defer os.RemoveAll(tmp)

	archive, err := os.Create(filepath.Join(tmp, archiveName))
	if err != nil {
		return fmt.Errorf("failed to stage cache entry: %w", err)
	}
	if err := pack(archive, base, paths); err != nil {
		archive.Close()
		return err
	}
	if err := archive.Close(); err != nil {
		return fmt.Errorf("failed to stage cache entry: %w", err)
	}

	info, err := os.Stat(filepath.Join(tmp, archiveName))
	if err != nil {
		return fmt.Errorf("failed to stage cache entry: %w", err)
	}
	meta := entryMetadata{Key: key, Paths: paths, Size: info.Size(), SavedAt: time.Now().UTC()}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tmp, metadataName), data, 0644); err != nil {
		return fmt.Errorf("failed to stage cache entry: %w", err)
	}

	dir := s.entryDir(key)
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return fmt.Errorf("failed to save cache entry %q: %w", key, err)
	}
	// last-write-wins: drop any existing entry, then move the staged one in
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to replace cache entry %q: %w", key, err)
	}
	if err := os.Rename(tmp, dir); err != nil {
		return fmt.Errorf("failed to save cache entry %q: %w", key, err)
	}

	s.logger.Info("saved cache entry", "key", key, "size", meta.Size)
	return nil
}
