// Package pipeline sequences the build stages: toolchain checks, cache key
// derivation, the conditional build behind the wheel cache, compiler cache
// handling, artifact staging and post-build source reconciliation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BobTheBuidler/mypycify/internal/artifact"
	"github.com/BobTheBuidler/mypycify/internal/build"
	"github.com/BobTheBuidler/mypycify/internal/cache"
	"github.com/BobTheBuidler/mypycify/internal/cachekey"
	"github.com/BobTheBuidler/mypycify/internal/ccache"
	"github.com/BobTheBuidler/mypycify/internal/config"
	"github.com/BobTheBuidler/mypycify/internal/execx"
	"github.com/BobTheBuidler/mypycify/internal/git"
	"github.com/BobTheBuidler/mypycify/internal/normalize"
	"github.com/BobTheBuidler/mypycify/internal/reconcile"
	"github.com/BobTheBuidler/mypycify/internal/toolchain"
)

// Summary reports what one full run did.
type Summary struct {
	PythonVersion string
	WheelsKey     string
	CacheHit      bool
	Wheels        []string
	ArtifactName  string
	Outcome       reconcile.Outcome
	PRNumber      int
}

type Pipeline struct {
	cfg    *config.Config
	runner execx.Runner
	store  cache.Store
	logger *slog.Logger
}

func New(cfg *config.Config, runner execx.Runner, store cache.Store, logger *slog.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, runner: runner, store: store, logger: logger}
}

// Run executes the stages in order. Stages receive the immutable config and
// return explicit results; the only cross-stage state is what lands on disk.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	// constructed up front so a push-source run missing its GitHub token
	// fails before the build, not after
	var rec *reconcile.Reconciler
	if p.cfg.PushSource {
		var err error
		rec, err = p.newReconciler()
		if err != nil {
			return summary, err
		}
	}

	// stage 1: toolchain
	python := toolchain.NewPython(p.runner, p.logger)
	interp, err := python.Resolve(ctx, p.cfg.PythonVersion)
	if err != nil {
		return summary, err
	}
	summary.PythonVersion = interp.Version

	resolver, err := cachekey.NewResolver(p.cfg.WorkDir)
	if err != nil {
		return summary, err
	}

	pip := toolchain.NewPipCache(p.runner, p.store, p.logger)
	var pipKey cachekey.Key
	var pipDir string
	if len(p.cfg.PipDependencyGlobs) > 0 {
		pipKey, err = resolver.Derive(cachekey.ScopePip, p.cfg.Platform, p.cfg.PythonVersion, p.cfg.PipDependencyGlobs)
		if err != nil {
			return summary, err
		}
		pipDir, err = pip.Dir(ctx, interp)
		if err != nil {
			return summary, err
		}
		if _, err := pip.Restore(ctx, pipKey, pipDir); err != nil {
			return summary, err
		}
	}

	// stage 2: cache keys
	wheelsKey, err := resolver.Derive(cachekey.ScopeWheels, p.cfg.Platform, p.cfg.PythonVersion, p.cfg.HashGlobs)
	if err != nil {
		return summary, err
	}
	summary.WheelsKey = wheelsKey.String()
	p.logger.Info("derived cache keys", "wheels", summary.WheelsKey)

	// stage 3+4: compiler cache around the conditional build
	var buildEnv []string
	var cc *ccache.Wrapper
	var ccKey cachekey.Key
	if p.cfg.Ccache {
		cc = ccache.New(p.runner, p.store, p.cfg.CcacheDir, p.logger)
		// same digest, separate namespace: the compiler cache keys off the
		// same inputs as the wheels but must never collide with them
		ccKey = cachekey.Key{
			Scope:    cachekey.ScopeCcache,
			Platform: wheelsKey.Platform,
			Runtime:  wheelsKey.Runtime,
			Digest:   wheelsKey.Digest,
		}
		if _, err := cc.Restore(ctx, ccKey); err != nil {
			return summary, err
		}
		cc.ZeroStats(ctx)
		buildEnv = cc.Env()
	}

	builder := build.New(p.runner, p.store, p.logger)
	buildRes, buildErr := builder.Run(ctx, build.Input{
		Key:     wheelsKey,
		Command: p.cfg.BuildCommand,
		WorkDir: p.cfg.WorkDir,
		DistDir: p.cfg.DistDir,
		Env:     buildEnv,
	})

	// the compiler cache is saved no matter how the build went: partial
	// state from a failed compile still speeds up the retry
	if cc != nil {
		cc.LogStats(ctx)
		if err := cc.Save(ctx, ccKey); err != nil {
			p.logger.Error("failed to save compiler cache", "error", err)
			if buildErr == nil {
				buildErr = err
			}
		}
	}
	if buildErr != nil {
		return summary, buildErr
	}
	summary.CacheHit = buildRes.Restored
	summary.Wheels = buildRes.Wheels

	if pipDir != "" {
		if err := pip.Save(ctx, pipKey, pipDir); err != nil {
			return summary, err
		}
	}

	// artifact staging
	uploader := artifact.NewUploader(p.cfg.ArtifactDir, p.logger)
	name, err := uploader.Publish(p.cfg.ArtifactLabel(), buildRes.Wheels)
	if err != nil {
		return summary, err
	}
	summary.ArtifactName = name
	if err := artifact.WriteActionOutput(p.logger, "artifact-name", name); err != nil {
		return summary, err
	}

	// stage 5: reconciliation
	if rec != nil {
		recRes, err := rec.Run(ctx)
		if err != nil {
			return summary, err
		}
		summary.Outcome = recRes.Outcome
		summary.PRNumber = recRes.PRNumber
	}
	return summary, nil
}

func (p *Pipeline) newReconciler() (*reconcile.Reconciler, error) {
	gitClient := git.NewClient(p.runner, p.cfg.WorkDir, p.cfg.Remote, p.logger)

	var opener reconcile.Opener
	if !p.cfg.WriteAccess() {
		// a fork checkout is certain to take the PR path
		o, err := reconcile.NewPROpener(p.logger)
		if err != nil {
			return nil, fmt.Errorf("push-source from a fork needs the GitHub API: %w", err)
		}
		opener = o
	}

	var pass *normalize.Pass
	if p.cfg.NormalizeSource {
		pass = normalize.NewPass(p.cfg.WorkDir, p.cfg.NormalizeGlobs, normalize.CSource{}, p.logger)
	}
	return reconcile.New(p.cfg, gitClient, opener, pass, p.logger), nil
}
