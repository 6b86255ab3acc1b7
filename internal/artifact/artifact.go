// Package artifact stages built wheels for upload and exposes the
// artifact-name output downstream workflow steps consume.
package artifact

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Uploader copies wheels into a named staging directory, one per artifact.
type Uploader struct {
	dir    string
	logger *slog.Logger
}

func NewUploader(dir string, logger *slog.Logger) *Uploader {
	return &Uploader{dir: dir, logger: logger}
}

// Publish stages the wheels under name and returns name as the artifact
// identifier. Publishing zero wheels still produces the artifact directory so
// downstream steps resolve a consistent name.
func (u *Uploader) Publish(name string, wheels []string) (string, error) {
	dest := filepath.Join(u.dir, name)
	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	for _, wheel := range wheels {
		target := filepath.Join(dest, filepath.Base(wheel))
		if err := copyFile(wheel, target); err != nil {
			return "", fmt.Errorf("failed to stage wheel %q: %w", filepath.Base(wheel), err)
		}
	}

	u.logger.Info("staged build artifact", "name", name, "wheels", len(wheels), "dir", dest)
	return name, nil
}

// WriteActionOutput appends a name=value pair to the GitHub Actions output
// file. Outside a workflow (no GITHUB_OUTPUT) the value is only logged.
func WriteActionOutput(logger *slog.Logger, name, value string) error {
	path := os.Getenv("GITHUB_OUTPUT")
	if path == "" {
		logger.Info("GITHUB_OUTPUT not set, skipping output", "name", name, "value", value)
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open GITHUB_OUTPUT: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s=%s\n", name, value); err != nil {
		return fmt.Errorf("failed to write GITHUB_OUTPUT: %w", err)
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
