package cachekey

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newTestTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "setup.py", "from setuptools import setup\n")
	writeFile(t, root, "requirements.txt", "mypy==1.8.0\n")
	writeFile(t, root, "pkg/core.py", "def run(): ...\n")
	writeFile(t, root, "pkg/sub/util.py", "X = 1\n")
	return root
}

func mustDigest(t *testing.T, root string, patterns []string) string {
	t.Helper()
	r, err := NewResolver(root)
	if err != nil {
		t.Fatal(err)
	}
	d, err := r.Digest(patterns)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestDigestDeterministic(t *testing.T) {
	root := newTestTree(t)
	patterns := []string{"setup.py", "pkg/**/*.py"}

	first := mustDigest(t, root, patterns)
	second := mustDigest(t, root, patterns)
	if first != second {
		t.Errorf("same tree, same patterns must digest identically: %s != %s", first, second)
	}
}

func TestDigestSensitiveToContent(t *testing.T) {
	root := newTestTree(t)
	patterns := []string{"pkg/**/*.py"}

	before := mustDigest(t, root, patterns)
	writeFile(t, root, "pkg/core.py", "def run(): ...  # changed\n")
	after := mustDigest(t, root, patterns)
	if before == after {
		t.Error("a content change inside the match set must change the digest")
	}
}

func TestDigestIgnoresPatternOrder(t *testing.T) {
	root := newTestTree(t)

	a := mustDigest(t, root, []string{"setup.py", "requirements.txt", "pkg/**/*.py"})
	b := mustDigest(t, root, []string{"pkg/**/*.py", "requirements.txt", "setup.py"})
	if a != b {
		t.Errorf("pattern order must not affect the digest: %s != %s", a, b)
	}
}

func TestDigestDeduplicatesOverlappingPatterns(t *testing.T) {
	root := newTestTree(t)

	plain := mustDigest(t, root, []string{"setup.py"})
	overlapping := mustDigest(t, root, []string{"setup.py", "*.py", "setup.py"})
	if plain != overlapping {
		t.Errorf("overlapping patterns matching the same set must not change the digest")
	}
}

func TestDigestEmptyMatchSetIsStable(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()

	a := mustDigest(t, rootA, []string{"does/not/exist/**"})
	b := mustDigest(t, rootB, []string{"does/not/exist/**"})
	if a == "" || a != b {
		t.Errorf("empty match sets must digest to the same stable value, got %q and %q", a, b)
	}
}

func TestDigestFatalOnUnreadableMatch(t *testing.T) {
	root := newTestTree(t)
	if err := os.Symlink(filepath.Join(root, "gone.py"), filepath.Join(root, "dangling.py")); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	r, err := NewResolver(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Digest([]string{"*.py"}); err == nil {
		t.Fatal("a matched file that cannot be read must fail key derivation")
	}
}

func TestGlobSkipsDirectories(t *testing.T) {
	root := newTestTree(t)

	r, err := NewResolver(root)
	if err != nil {
		t.Fatal(err)
	}
	paths, err := r.Glob([]string{"pkg/**"})
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range paths {
		if p == "pkg" || p == "pkg/sub" {
			t.Errorf("directories must not appear in the match set, got %v", paths)
		}
	}
}

func TestGlobSortsMatches(t *testing.T) {
	root := newTestTree(t)

	r, err := NewResolver(root)
	if err != nil {
		t.Fatal(err)
	}
	paths, err := r.Glob([]string{"**/*.py", "**/*.txt"})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(paths); i++ {
		if paths[i-1] >= paths[i] {
			t.Errorf("matches must be sorted, got %v", paths)
		}
	}
}

func TestDeriveDistinguishesPlatformAndRuntime(t *testing.T) {
	root := newTestTree(t)
	r, err := NewResolver(root)
	if err != nil {
		t.Fatal(err)
	}

	base, err := r.Derive(ScopeWheels, "linux-amd64", "3.11", []string{"setup.py"})
	if err != nil {
		t.Fatal(err)
	}
	otherPlatform, err := r.Derive(ScopeWheels, "darwin-arm64", "3.11", []string{"setup.py"})
	if err != nil {
		t.Fatal(err)
	}
	otherRuntime, err := r.Derive(ScopeWheels, "linux-amd64", "3.12", []string{"setup.py"})
	if err != nil {
		t.Fatal(err)
	}

	if base.String() == otherPlatform.String() {
		t.Error("platform must be part of the key")
	}
	if base.String() == otherRuntime.String() {
		t.Error("runtime version must be part of the key")
	}
	if base.Digest != otherPlatform.Digest || base.Digest != otherRuntime.Digest {
		t.Error("digest depends only on file content, not on platform or runtime")
	}
}
