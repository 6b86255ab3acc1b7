package ccache

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/BobTheBuidler/mypycify/internal/cache"
	"github.com/BobTheBuidler/mypycify/internal/cachekey"
	"github.com/BobTheBuidler/mypycify/internal/execx"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testKey(digest string) cachekey.Key {
	return cachekey.Key{Scope: cachekey.ScopeCcache, Platform: "linux-amd64", Runtime: "3.11", Digest: digest}
}

func TestEnvPointsAtManagedDir(t *testing.T) {
	w := New(execx.NewFakeRunner(), cache.NewDiskStore(t.TempDir(), testLogger()), "/home/runner/.ccache", testLogger())
	env := w.Env()
	if len(env) != 1 || env[0] != "CCACHE_DIR=/home/runner/.ccache" {
		t.Errorf("unexpected env: %v", env)
	}
}

func TestRestoreMissIsNotAnError(t *testing.T) {
	w := New(execx.NewFakeRunner(), cache.NewDiskStore(t.TempDir(), testLogger()),
		filepath.Join(t.TempDir(), ".ccache"), testLogger())

	hit, err := w.Restore(context.Background(), testKey("d1"))
	if err != nil {
		t.Fatalf("a miss must not be an error: %v", err)
	}
	if hit {
		t.Error("empty store reported a hit")
	}
}

func TestSaveSkipsMissingDirectory(t *testing.T) {
	store := cache.NewDiskStore(t.TempDir(), testLogger())
	w := New(execx.NewFakeRunner(), store, filepath.Join(t.TempDir(), "never-created"), testLogger())

	if err := w.Save(context.Background(), testKey("d2")); err != nil {
		t.Fatalf("saving a nonexistent ccache dir must be a no-op: %v", err)
	}
	_, hit, _ := store.Lookup(context.Background(), testKey("d2").String(), nil)
	if hit {
		t.Error("nothing should have been saved")
	}
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	store := cache.NewDiskStore(t.TempDir(), testLogger())
	ctx := context.Background()

	dir := filepath.Join(t.TempDir(), ".ccache")
	if err := os.MkdirAll(filepath.Join(dir, "0", "a"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "0", "a", "object.o"), []byte("obj"), 0644); err != nil {
		t.Fatal(err)
	}

	w := New(execx.NewFakeRunner(), store, dir, testLogger())
	if err := w.Save(ctx, testKey("d3")); err != nil {
		t.Fatalf("save: %v", err)
	}

	fresh := filepath.Join(t.TempDir(), ".ccache")
	w2 := New(execx.NewFakeRunner(), store, fresh, testLogger())
	hit, err := w2.Restore(ctx, testKey("d3"))
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Fatal("expected a hit after save")
	}
	if _, err := os.Stat(filepath.Join(fresh, "0", "a", "object.o")); err != nil {
		t.Errorf("restored compiler cache incomplete: %v", err)
	}
}

func TestRestoreFallsBackToPrefix(t *testing.T) {
	store := cache.NewDiskStore(t.TempDir(), testLogger())
	ctx := context.Background()

	dir := filepath.Join(t.TempDir(), ".ccache")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "stamp"), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	w := New(execx.NewFakeRunner(), store, dir, testLogger())
	if err := w.Save(ctx, testKey("old-digest")); err != nil {
		t.Fatal(err)
	}

	fresh := filepath.Join(t.TempDir(), ".ccache")
	w2 := New(execx.NewFakeRunner(), store, fresh, testLogger())
	hit, err := w2.Restore(ctx, testKey("new-digest"))
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("an older entry under the same prefix must satisfy the restore")
	}
}

func TestStatsAreAdvisory(t *testing.T) {
	fake := execx.NewFakeRunner()
	fake.Stub("ccache", execx.Result{ExitCode: 127}, nil)

	w := New(fake, cache.NewDiskStore(t.TempDir(), testLogger()), t.TempDir(), testLogger())
	// must not panic or fail the build in any way
	w.ZeroStats(context.Background())
	w.LogStats(context.Background())
}
