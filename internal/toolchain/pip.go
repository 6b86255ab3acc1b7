package toolchain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/BobTheBuidler/mypycify/internal/cache"
	"github.com/BobTheBuidler/mypycify/internal/cachekey"
	"github.com/BobTheBuidler/mypycify/internal/execx"
)

// PipCache restores and persists pip's download cache so dependency installs
// skip the network on repeat builds.
type PipCache struct {
	runner execx.Runner
	store  cache.Store
	logger *slog.Logger
}

func NewPipCache(runner execx.Runner, store cache.Store, logger *slog.Logger) *PipCache {
	return &PipCache{runner: runner, store: store, logger: logger}
}

// Dir asks pip where its cache lives for the given interpreter.
func (p *PipCache) Dir(ctx context.Context, interp Interpreter) (string, error) {
	res, err := p.runner.Run(ctx, execx.Command{Name: interp.Command, Args: []string{"-m", "pip", "cache", "dir"}})
	if err != nil {
		return "", fmt.Errorf("failed to locate pip cache: %w", err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("pip cache dir failed: %s", strings.TrimSpace(res.Stderr))
	}
	dir := strings.TrimSpace(res.Stdout)
	if dir == "" {
		return "", fmt.Errorf("pip reported an empty cache dir")
	}
	return dir, nil
}

// Restore pulls the dependency cache for key into dir. The pip cache is
// additive, so a prefix fallback to an older entry is still a win; a complete
// miss is not an error.
func (p *PipCache) Restore(ctx context.Context, key cachekey.Key, dir string) (bool, error) {
	resolved, ok, err := p.store.Lookup(ctx, key.String(), []string{key.RestorePrefix()})
	if err != nil {
		return false, fmt.Errorf("failed to look up pip cache: %w", err)
	}
	if !ok {
		p.logger.Info("no pip cache to restore", "key", key.String())
		return false, nil
	}
	if err := p.store.Restore(ctx, resolved, filepath.Dir(dir)); err != nil {
		return false, fmt.Errorf("failed to restore pip cache: %w", err)
	}
	p.logger.Info("restored pip cache", "key", resolved)
	return true, nil
}

// Save stores pip's cache directory under key.
func (p *PipCache) Save(ctx context.Context, key cachekey.Key, dir string) error {
	if err := p.store.Save(ctx, key.String(), filepath.Dir(dir), []string{filepath.Base(dir)}); err != nil {
		return fmt.Errorf("failed to save pip cache: %w", err)
	}
	return nil
}
