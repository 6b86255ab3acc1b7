// Package build runs the wheel build behind the artifact cache: an exact key
// hit skips the build entirely, a miss runs it and saves the output.
package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BobTheBuidler/mypycify/internal/cache"
	"github.com/BobTheBuidler/mypycify/internal/cachekey"
	"github.com/BobTheBuidler/mypycify/internal/execx"
)

// Input describes one conditional build.
type Input struct {
	Key     cachekey.Key
	Command string
	WorkDir string
	DistDir string
	Env     []string
}

// Result reports what the build stage did.
type Result struct {
	Key      string
	Restored bool
	Wheels   []string
}

type Builder struct {
	runner execx.Runner
	store  cache.Store
	logger *slog.Logger
}

func New(runner execx.Runner, store cache.Store, logger *slog.Logger) *Builder {
	return &Builder{runner: runner, store: store, logger: logger}
}

// Run restores the wheel archive when the primary key hits and otherwise
// executes the build command and saves its output under that key. The lookup
// is exact on purpose: an artifact built from different inputs is never an
// acceptable substitute for a wheel.
func (b *Builder) Run(ctx context.Context, in Input) (Result, error) {
	key := in.Key.String()

	_, hit, err := b.store.Lookup(ctx, key, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to look up build cache: %w", err)
	}
	if hit {
		b.logger.Info("build cache hit, skipping build", "key", key)
		if err := b.store.Restore(ctx, key, in.WorkDir); err != nil {
			return Result{}, fmt.Errorf("failed to restore build artifacts: %w", err)
		}
		wheels, err := b.listWheels(in)
		if err != nil {
			return Result{}, err
		}
		return Result{Key: key, Restored: true, Wheels: wheels}, nil
	}

	b.logger.Info("build cache miss, running build", "key", key, "command", in.Command)
	res, err := b.runner.Run(ctx, execx.Command{
		Name: "sh",
		Args: []string{"-c", in.Command},
		Dir:  in.WorkDir,
		Env:  in.Env,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to run build command: %w", err)
	}
	if res.ExitCode != 0 {
		return Result{}, fmt.Errorf("build command exited with code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	if _, err := os.Stat(filepath.Join(in.WorkDir, in.DistDir)); err != nil {
		return Result{}, fmt.Errorf("build command succeeded but left no %q directory: %w", in.DistDir, err)
	}

	if err := b.store.Save(ctx, key, in.WorkDir, []string{in.DistDir}); err != nil {
		return Result{}, fmt.Errorf("failed to save build artifacts: %w", err)
	}
	wheels, err := b.listWheels(in)
	if err != nil {
		return Result{}, err
	}
	if len(wheels) == 0 {
		b.logger.Warn("build produced no wheels", "dist", in.DistDir)
	}
	return Result{Key: key, Wheels: wheels}, nil
}

// listWheels returns the wheel files under the dist directory, sorted.
func (b *Builder) listWheels(in Input) ([]string, error) {
	dist := filepath.Join(in.WorkDir, in.DistDir)
	entries, err := os.ReadDir(dist)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", in.DistDir, err)
	}

	var wheels []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".whl") {
			continue
		}
		wheels = append(wheels, filepath.Join(dist, e.Name()))
	}
	sort.Strings(wheels)
	return wheels, nil
}
