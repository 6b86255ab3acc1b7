package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BuildSpec is the committed YAML form of the build inputs. Run context
// (trigger PR, trigger branch, repositories) stays out of it: those describe
// one run, not the project.
type BuildSpec struct {
	Kind       string        `yaml:"kind"`
	APIVersion string        `yaml:"apiVersion"`
	Spec       BuildSpecSpec `yaml:"spec"`
}

type BuildSpecSpec struct {
	PythonVersion          string   `yaml:"pythonVersion"`
	HashKey                []string `yaml:"hashKey"`
	PipCacheDependencyPath []string `yaml:"pipCacheDependencyPath"`
	BuildCommand           string   `yaml:"buildCommand"`
	DistDir                string   `yaml:"distDir,omitempty"`
	Ccache                 *bool    `yaml:"ccache"`
	PushSource             *bool    `yaml:"pushSource"`
	NormalizeSource        *bool    `yaml:"normalizeSource"`
	NormalizeGlobs         []string `yaml:"normalizeGlobs"`
	CommitMessage          string   `yaml:"commitMessage,omitempty"`
}

// LoadSpecFile reads a BuildSpec document and overlays its set fields on cfg.
func LoadSpecFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read buildspec file: %w", err)
	}

	var spec BuildSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("failed to parse buildspec file: %w", err)
	}
	if spec.Kind != "BuildSpec" {
		return fmt.Errorf("invalid buildspec: kind must be 'BuildSpec', got '%s'", spec.Kind)
	}

	s := spec.Spec
	if s.PythonVersion != "" {
		cfg.PythonVersion = s.PythonVersion
	}
	if len(s.HashKey) > 0 {
		cfg.HashGlobs = s.HashKey
	}
	if len(s.PipCacheDependencyPath) > 0 {
		cfg.PipDependencyGlobs = s.PipCacheDependencyPath
	}
	if s.BuildCommand != "" {
		cfg.BuildCommand = s.BuildCommand
	}
	if s.DistDir != "" {
		cfg.DistDir = s.DistDir
	}
	if s.Ccache != nil {
		cfg.Ccache = *s.Ccache
	}
	if s.PushSource != nil {
		cfg.PushSource = *s.PushSource
	}
	if s.NormalizeSource != nil {
		cfg.NormalizeSource = *s.NormalizeSource
	}
	if len(s.NormalizeGlobs) > 0 {
		cfg.NormalizeGlobs = s.NormalizeGlobs
	}
	if s.CommitMessage != "" {
		cfg.CommitMessage = s.CommitMessage
	}
	return nil
}
