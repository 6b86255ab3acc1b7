// Package config assembles and validates the inputs every pipeline stage
// consumes. Values come from flags, INPUT_* environment variables (the
// composite-action convention) and an optional committed BuildSpec file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultCommitMessage labels commits that push regenerated C back.
	DefaultCommitMessage = "chore: compile C files for source control"
	// DefaultBuildCommand builds the wheel when the cache misses.
	DefaultBuildCommand = "python -m build --wheel"
	// DefaultRemote is the git remote probed for branch existence and pushed to.
	DefaultRemote = "origin"

	defaultCommitAuthor = "mypycify[bot]"
	defaultCommitEmail  = "mypycify[bot]@users.noreply.github.com"
)

// DefaultNormalizeGlobs selects the mypyc-generated sources.
var DefaultNormalizeGlobs = []string{"**/*.c", "**/*.h"}

// S3Settings configures the optional shared cache bucket.
type S3Settings struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Config is the immutable input surface of one run. It is assembled once and
// handed to the stages; stages never mutate it.
type Config struct {
	PythonVersion      string
	HashGlobs          []string
	PipDependencyGlobs []string
	BuildCommand       string
	DistDir            string

	Ccache    bool
	CcacheDir string

	PushSource        bool
	NormalizeSource   bool
	NormalizeGlobs    []string
	CommitMessage     string
	CommitAuthor      string
	CommitEmail       string
	TriggerPRNumber   string
	TriggerBranchName string
	Repository        string
	HeadRepository    string
	Remote            string

	Platform     string
	WorkDir      string
	CacheDir     string
	ArtifactDir  string
	ArtifactName string

	S3 S3Settings
}

// FromViper reads the full input surface out of v. Flag defaults, INPUT_*
// environment variables and explicit flags all land here through viper's
// precedence rules.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		PythonVersion:      v.GetString("python-version"),
		HashGlobs:          splitPatterns(v.GetString("hash-key")),
		PipDependencyGlobs: splitPatterns(v.GetString("pip-cache-dependency-path")),
		BuildCommand:       v.GetString("build-command"),
		DistDir:            v.GetString("dist-dir"),
		Ccache:             v.GetBool("ccache"),
		CcacheDir:          v.GetString("ccache-dir"),
		PushSource:         v.GetBool("push-source"),
		NormalizeSource:    v.GetBool("normalize-source"),
		NormalizeGlobs:     splitPatterns(v.GetString("normalize-globs")),
		CommitMessage:      v.GetString("commit-message"),
		CommitAuthor:       v.GetString("commit-author"),
		CommitEmail:        v.GetString("commit-email"),
		TriggerPRNumber:    strings.TrimSpace(v.GetString("trigger-pr-number")),
		TriggerBranchName:  strings.TrimSpace(v.GetString("trigger-branch-name")),
		Repository:         strings.TrimSpace(v.GetString("repository")),
		HeadRepository:     strings.TrimSpace(v.GetString("head-repository")),
		Remote:             v.GetString("remote"),
		Platform:           v.GetString("platform"),
		WorkDir:            v.GetString("workdir"),
		CacheDir:           v.GetString("cache-dir"),
		ArtifactDir:        v.GetString("artifact-dir"),
		ArtifactName:       v.GetString("artifact-name"),
		S3: S3Settings{
			Endpoint:  strings.TrimSpace(v.GetString("s3-endpoint")),
			Region:    v.GetString("s3-region"),
			AccessKey: v.GetString("s3-access-key"),
			SecretKey: v.GetString("s3-secret-key"),
			Bucket:    strings.TrimSpace(v.GetString("s3-bucket")),
			UseSSL:    true,
		},
	}
	if v.IsSet("s3-use-ssl") {
		cfg.S3.UseSSL = v.GetBool("s3-use-ssl")
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.BuildCommand == "" {
		c.BuildCommand = DefaultBuildCommand
	}
	if c.DistDir == "" {
		c.DistDir = "dist"
	}
	if c.CommitMessage == "" {
		c.CommitMessage = DefaultCommitMessage
	}
	if c.CommitAuthor == "" {
		c.CommitAuthor = defaultCommitAuthor
	}
	if c.CommitEmail == "" {
		c.CommitEmail = defaultCommitEmail
	}
	if c.Remote == "" {
		c.Remote = DefaultRemote
	}
	if c.Platform == "" {
		c.Platform = runtime.GOOS + "-" + runtime.GOARCH
	}
	if c.WorkDir == "" {
		c.WorkDir = "."
	}
	if len(c.NormalizeGlobs) == 0 {
		c.NormalizeGlobs = DefaultNormalizeGlobs
	}

	if c.CacheDir == "" || c.CcacheDir == "" || c.ArtifactDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to resolve home directory for defaults: %w", err)
		}
		if c.CacheDir == "" {
			c.CacheDir = filepath.Join(home, ".cache", "mypycify")
		}
		if c.CcacheDir == "" {
			if env := os.Getenv("CCACHE_DIR"); env != "" {
				c.CcacheDir = env
			} else {
				c.CcacheDir = filepath.Join(home, ".ccache")
			}
		}
		if c.ArtifactDir == "" {
			c.ArtifactDir = filepath.Join(c.CacheDir, "artifacts")
		}
	}
	return nil
}

// Validate checks the full pipeline input surface.
func (c *Config) Validate() error {
	if c.PythonVersion == "" {
		return fmt.Errorf("python-version is required")
	}
	if len(c.HashGlobs) == 0 {
		return fmt.Errorf("hash-key requires at least one glob pattern")
	}
	return c.validateReconcileInputs()
}

// ValidateReconcile checks only the inputs the reconciliation stage needs,
// for running that stage standalone.
func (c *Config) ValidateReconcile() error {
	return c.validateReconcileInputs()
}

func (c *Config) validateReconcileInputs() error {
	if c.NormalizeSource && !c.PushSource {
		return fmt.Errorf("normalize-source requires push-source to be enabled")
	}
	if c.PushSource && c.Repository == "" {
		return fmt.Errorf("repository is required when push-source is enabled (set INPUT_REPOSITORY or GITHUB_REPOSITORY)")
	}
	if (c.S3.Endpoint == "") != (c.S3.Bucket == "") {
		return fmt.Errorf("s3-endpoint and s3-bucket must be set together")
	}
	return nil
}

// WriteAccess reports whether this run can push directly to the canonical
// repository. A checkout taken from a different head repository is a fork
// pull request, which only ever gets the PR path.
func (c *Config) WriteAccess() bool {
	if c.HeadRepository == "" {
		return true
	}
	return strings.EqualFold(c.HeadRepository, c.Repository)
}

// ArtifactLabel returns the artifact-name output value downstream workflow
// steps address the wheels by.
func (c *Config) ArtifactLabel() string {
	if c.ArtifactName != "" {
		return c.ArtifactName
	}
	return fmt.Sprintf("wheels-%s-py%s", c.Platform, c.PythonVersion)
}

// splitPatterns turns a newline-separated input value into a pattern list,
// dropping blanks and surrounding whitespace.
func splitPatterns(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
