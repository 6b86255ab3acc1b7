package cachekey

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"
)

// fileStamp identifies one observed file state. A changed size or mtime
// invalidates the memoized digest.
type fileStamp struct {
	path      string
	size      int64
	mtimeNano int64
}

// Resolver expands hash globs against a root directory and digests the
// matched file contents. Per-file digests are memoized by (path, size, mtime)
// so deriving the wheel, ccache and pip keys over overlapping glob sets reads
// each file once.
type Resolver struct {
	root string
	memo *lru.Cache[fileStamp, [sha256.Size]byte]
}

func NewResolver(root string) (*Resolver, error) {
	if root == "" {
		root = "."
	}
	memo, err := lru.New[fileStamp, [sha256.Size]byte](4096)
	if err != nil {
		return nil, fmt.Errorf("failed to create digest memo: %w", err)
	}
	return &Resolver{root: root, memo: memo}, nil
}

// Glob expands the patterns relative to the resolver root, drops duplicates
// and directories, and returns root-relative slash paths in lexicographic
// order. The order patterns are given in never leaks into the result.
func (r *Resolver) Glob(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	fsys := os.DirFS(r.root)
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		pattern = strings.TrimPrefix(pattern, "./")
		if pattern == "" {
			continue
		}
		matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid hash pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			info, err := os.Lstat(filepath.Join(r.root, filepath.FromSlash(m)))
			if err != nil {
				return nil, fmt.Errorf("failed to stat matched file %q: %w", m, err)
			}
			if info.IsDir() {
				continue
			}
			seen[m] = struct{}{}
		}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// Digest hashes the sorted match set into a single hex digest. Each path and
// each per-file digest is length-prefixed so component boundaries cannot
// collide. An empty match set yields the stable empty-input digest. A matched
// file that cannot be read is fatal: a key that silently omits a source file
// would alias caches built from different inputs.
func (r *Resolver) Digest(patterns []string) (string, error) {
	paths, err := r.Glob(patterns)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	for _, p := range paths {
		sum, err := r.fileDigest(p)
		if err != nil {
			return "", err
		}
		writeField(h, []byte(p))
		writeField(h, sum[:])
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Derive computes the full key for one cache scope.
func (r *Resolver) Derive(scope Scope, platform, runtime string, patterns []string) (Key, error) {
	digest, err := r.Digest(patterns)
	if err != nil {
		return Key{}, fmt.Errorf("failed to derive %s cache key: %w", scope, err)
	}
	return Key{Scope: scope, Platform: platform, Runtime: runtime, Digest: digest}, nil
}

func (r *Resolver) fileDigest(rel string) ([sha256.Size]byte, error) {
	var sum [sha256.Size]byte

	full := filepath.Join(r.root, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil {
		return sum, fmt.Errorf("failed to read hash input %q: %w", rel, err)
	}
	stamp := fileStamp{path: rel, size: info.Size(), mtimeNano: info.ModTime().UnixNano()}
	if cached, ok := r.memo.Get(stamp); ok {
		return cached, nil
	}

	f, err := os.Open(full)
	if err != nil {
		return sum, fmt.Errorf("failed to read hash input %q: %w", rel, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return sum, fmt.Errorf("failed to read hash input %q: %w", rel, err)
	}
	copy(sum[:], h.Sum(nil))
	r.memo.Add(stamp, sum)
	return sum, nil
}

// writeField writes a length-prefixed field so "ab"+"c" and "a"+"bc" hash
// differently.
func writeField(h hash.Hash, b []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(b)))
	h.Write(n[:])
	h.Write(b)
}
