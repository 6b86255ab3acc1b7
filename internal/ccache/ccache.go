// Package ccache restores and persists the compiler cache around the wheel
// build, so repeated mypyc C compilation reuses earlier object files.
package ccache

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BobTheBuidler/mypycify/internal/cache"
	"github.com/BobTheBuidler/mypycify/internal/cachekey"
	"github.com/BobTheBuidler/mypycify/internal/execx"
)

// Wrapper manages one ccache directory against the cache store.
type Wrapper struct {
	runner execx.Runner
	store  cache.Store
	dir    string
	logger *slog.Logger
}

func New(runner execx.Runner, store cache.Store, dir string, logger *slog.Logger) *Wrapper {
	return &Wrapper{runner: runner, store: store, dir: dir, logger: logger}
}

// Env returns the environment override pointing the compiler wrapper at the
// managed directory.
func (w *Wrapper) Env() []string {
	return []string{"CCACHE_DIR=" + w.dir}
}

// Restore pulls the compiler cache before the build. The cache is additive,
// so a prefix fallback to a stale entry still improves hit rates, and a
// complete miss is not an error.
func (w *Wrapper) Restore(ctx context.Context, key cachekey.Key) (bool, error) {
	resolved, ok, err := w.store.Lookup(ctx, key.String(), []string{key.RestorePrefix()})
	if err != nil {
		return false, err
	}
	if !ok {
		w.logger.Info("no compiler cache to restore", "key", key.String())
		return false, nil
	}
	if err := w.store.Restore(ctx, resolved, filepath.Dir(w.dir)); err != nil {
		return false, err
	}
	w.logger.Info("restored compiler cache", "key", resolved)
	return true, nil
}

// Save persists the compiler cache regardless of how the build went. Partial
// state from a failed build is still valid compiler cache and speeds up the
// retry.
func (w *Wrapper) Save(ctx context.Context, key cachekey.Key) error {
	if _, err := os.Stat(w.dir); os.IsNotExist(err) {
		w.logger.Info("no compiler cache directory to save", "dir", w.dir)
		return nil
	}
	return w.store.Save(ctx, key.String(), filepath.Dir(w.dir), []string{filepath.Base(w.dir)})
}

// ZeroStats resets ccache's counters so the post-build stats cover only this
// build. Stats are advisory, so a missing ccache binary is logged, not fatal.
func (w *Wrapper) ZeroStats(ctx context.Context) {
	res, err := w.runner.Run(ctx, execx.Command{Name: "ccache", Args: []string{"--zero-stats"}, Env: w.Env()})
	if err != nil || res.ExitCode != 0 {
		w.logger.Debug("ccache --zero-stats unavailable", "error", err, "exit", res.ExitCode)
	}
}

// LogStats logs ccache's hit statistics after the build.
func (w *Wrapper) LogStats(ctx context.Context) {
	res, err := w.runner.Run(ctx, execx.Command{Name: "ccache", Args: []string{"--show-stats"}, Env: w.Env()})
	if err != nil || res.ExitCode != 0 {
		w.logger.Debug("ccache --show-stats unavailable", "error", err, "exit", res.ExitCode)
		return
	}
	w.logger.Info("compiler cache statistics", "stats", strings.TrimSpace(res.Stdout))
}
