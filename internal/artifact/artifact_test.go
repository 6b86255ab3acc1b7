package artifact

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishStagesWheels(t *testing.T) {
	src := t.TempDir()
	wheel := filepath.Join(src, "pkg-1.0-cp311-linux_x86_64.whl")
	if err := os.WriteFile(wheel, []byte("wheel bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	u := NewUploader(dir, testLogger())
	name, err := u.Publish("wheels-linux-amd64-py3.11", []string{wheel})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if name != "wheels-linux-amd64-py3.11" {
		t.Errorf("unexpected artifact name: %q", name)
	}

	staged := filepath.Join(dir, name, "pkg-1.0-cp311-linux_x86_64.whl")
	got, err := os.ReadFile(staged)
	if err != nil {
		t.Fatalf("staged wheel missing: %v", err)
	}
	if string(got) != "wheel bytes" {
		t.Errorf("staged content mismatch: %q", got)
	}
}

func TestPublishWithNoWheelsStillNames(t *testing.T) {
	dir := t.TempDir()
	u := NewUploader(dir, testLogger())

	name, err := u.Publish("wheels-empty", nil)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if name != "wheels-empty" {
		t.Errorf("unexpected artifact name: %q", name)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		t.Errorf("artifact directory must exist even when empty: %v", err)
	}
}

func TestWriteActionOutput(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "output")
	t.Setenv("GITHUB_OUTPUT", outputFile)

	if err := WriteActionOutput(testLogger(), "artifact-name", "wheels-linux-amd64-py3.11"); err != nil {
		t.Fatal(err)
	}
	if err := WriteActionOutput(testLogger(), "cache-hit", "true"); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(outputFile)
	if err != nil {
		t.Fatal(err)
	}
	want := "artifact-name=wheels-linux-amd64-py3.11\ncache-hit=true\n"
	if string(content) != want {
		t.Errorf("unexpected output file content: %q", content)
	}
}

func TestWriteActionOutputOutsideWorkflow(t *testing.T) {
	t.Setenv("GITHUB_OUTPUT", "")

	if err := WriteActionOutput(testLogger(), "artifact-name", "x"); err != nil {
		t.Errorf("missing GITHUB_OUTPUT must not be an error: %v", err)
	}
}

func TestPublishMissingWheelFails(t *testing.T) {
	u := NewUploader(t.TempDir(), testLogger())
	if _, err := u.Publish("wheels", []string{"/does/not/exist.whl"}); err == nil {
		t.Error("publishing a missing wheel must fail")
	}
}
