package normalize

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Pass applies a normalizer to every file matched by the configured globs.
type Pass struct {
	root   string
	globs  []string
	norm   Normalizer
	logger *slog.Logger
}

func NewPass(root string, globs []string, norm Normalizer, logger *slog.Logger) *Pass {
	return &Pass{root: root, globs: globs, norm: norm, logger: logger}
}

// Apply rewrites every matched file whose canonical form differs from its
// current content and returns the rewritten paths in lexicographic order.
// Files already in canonical form are left untouched.
func (p *Pass) Apply() ([]string, error) {
	matches, err := p.expand()
	if err != nil {
		return nil, err
	}
	p.logger.Info("normalizing generated source", "normalizer", p.norm.Name(), "files", len(matches))

	var rewritten []string
	for _, rel := range matches {
		full := filepath.Join(p.root, filepath.FromSlash(rel))
		content, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q for normalization: %w", rel, err)
		}
		canonical := p.norm.Normalize(content)
		if bytes.Equal(content, canonical) {
			continue
		}
		mode := fs.FileMode(0644)
		if info, err := os.Stat(full); err == nil {
			mode = info.Mode().Perm()
		}
		if err := os.WriteFile(full, canonical, mode); err != nil {
			return nil, fmt.Errorf("failed to rewrite %q: %w", rel, err)
		}
		rewritten = append(rewritten, rel)
	}

	if len(rewritten) > 0 {
		p.logger.Info("normalization rewrote files", "count", len(rewritten))
	}
	return rewritten, nil
}

func (p *Pass) expand() ([]string, error) {
	seen := make(map[string]struct{})
	fsys := os.DirFS(p.root)
	for _, pattern := range p.globs {
		pattern = strings.TrimSpace(strings.TrimPrefix(pattern, "./"))
		if pattern == "" {
			continue
		}
		matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid normalize pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			info, err := os.Lstat(filepath.Join(p.root, filepath.FromSlash(m)))
			if err != nil {
				return nil, fmt.Errorf("failed to stat %q: %w", m, err)
			}
			if !info.Mode().IsRegular() {
				continue
			}
			seen[m] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}
