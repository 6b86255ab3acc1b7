// Package toolchain locates the requested Python interpreter and manages the
// pip dependency cache around it. The interpreter itself is provisioned by
// the runner image; a missing or mismatched one is a precondition failure,
// not something this tool installs.
package toolchain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BobTheBuidler/mypycify/internal/execx"
)

// Interpreter is a resolved Python toolchain.
type Interpreter struct {
	Command string
	Version string
}

type Python struct {
	runner execx.Runner
	logger *slog.Logger
}

func NewPython(runner execx.Runner, logger *slog.Logger) *Python {
	return &Python{runner: runner, logger: logger}
}

// Resolve finds an interpreter on PATH matching the requested version and
// verifies the version it actually reports.
func (p *Python) Resolve(ctx context.Context, version string) (Interpreter, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return Interpreter{}, fmt.Errorf("python version is required")
	}

	candidates := []string{"python" + version, "python3", "python"}
	for _, name := range candidates {
		res, err := p.runner.Run(ctx, execx.Command{Name: name, Args: []string{"--version"}})
		if err != nil || res.ExitCode != 0 {
			continue
		}
		reported := parseVersion(res.Stdout + res.Stderr)
		if reported == "" || !versionMatches(reported, version) {
			p.logger.Debug("interpreter version mismatch", "command", name, "reported", reported, "requested", version)
			continue
		}
		p.logger.Info("resolved python interpreter", "command", name, "version", reported)
		return Interpreter{Command: name, Version: reported}, nil
	}
	return Interpreter{}, fmt.Errorf("no python interpreter matching %q found on PATH", version)
}

// parseVersion extracts "3.11.9" from "Python 3.11.9". Older interpreters
// print the banner on stderr, so callers pass both streams.
func parseVersion(banner string) string {
	fields := strings.Fields(banner)
	for i, f := range fields {
		if f == "Python" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}

// versionMatches reports whether a full reported version satisfies the
// requested one: "3.11.9" matches "3.11" and "3.11.9" but not "3.1".
func versionMatches(reported, requested string) bool {
	if reported == requested {
		return true
	}
	return strings.HasPrefix(reported, requested+".")
}
