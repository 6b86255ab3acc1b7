package git

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/BobTheBuidler/mypycify/internal/execx"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChangedFilesParsesPorcelain(t *testing.T) {
	fake := execx.NewFakeRunner()
	fake.Stub("git status --porcelain", execx.Result{
		Stdout: " M pkg/core.c\n?? pkg/new.c\nR  old.c -> renamed.c\nA  added.h\n",
	}, nil)

	c := NewClient(fake, "/repo", "origin", testLogger())
	files, err := c.ChangedFiles(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"added.h", "pkg/core.c", "pkg/new.c", "renamed.c"}
	if len(files) != len(want) {
		t.Fatalf("expected %v, got %v", want, files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("expected %v, got %v", want, files)
			break
		}
	}
}

func TestChangedFilesCleanTree(t *testing.T) {
	fake := execx.NewFakeRunner()
	fake.Stub("git status --porcelain", execx.Result{Stdout: ""}, nil)

	c := NewClient(fake, "/repo", "origin", testLogger())
	files, err := c.ChangedFiles(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Errorf("clean tree must report no changes, got %v", files)
	}
}

func TestRemoteBranchExists(t *testing.T) {
	fake := execx.NewFakeRunner()
	fake.Stub("git ls-remote --heads origin refs/heads/feature/x",
		execx.Result{Stdout: "73ab\trefs/heads/feature/x\n"}, nil)
	fake.Stub("git ls-remote", execx.Result{Stdout: "\n"}, nil)

	c := NewClient(fake, "/repo", "origin", testLogger())

	exists, err := c.RemoteBranchExists(context.Background(), "feature/x")
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("branch with a ls-remote line must exist")
	}

	exists, err = c.RemoteBranchExists(context.Background(), "deleted-branch")
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("an empty ls-remote answer means the branch is gone")
	}
}

func TestCommitCarriesIdentity(t *testing.T) {
	fake := execx.NewFakeRunner()
	c := NewClient(fake, "/repo", "origin", testLogger())

	if err := c.Commit(context.Background(), "chore: compile C files for source control", "mypycify[bot]", "bot@example.com"); err != nil {
		t.Fatal(err)
	}

	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one git call, got %d", len(calls))
	}
	line := calls[0].Line()
	for _, part := range []string{"user.name=mypycify[bot]", "user.email=bot@example.com", "commit -m chore: compile C files for source control"} {
		if !strings.Contains(line, part) {
			t.Errorf("commit invocation missing %q: %s", part, line)
		}
	}
	if calls[0].Dir != "/repo" {
		t.Errorf("git must run in the checkout, got dir %q", calls[0].Dir)
	}
}

func TestPushTargetsRemoteBranch(t *testing.T) {
	fake := execx.NewFakeRunner()
	c := NewClient(fake, "/repo", "upstream", testLogger())

	if err := c.Push(context.Background(), "main"); err != nil {
		t.Fatal(err)
	}
	if got := fake.CommandLines()[0]; got != "git push upstream HEAD:refs/heads/main" {
		t.Errorf("unexpected push invocation: %q", got)
	}
}

func TestGitFailureSurfacesStderr(t *testing.T) {
	fake := execx.NewFakeRunner()
	fake.Stub("git push", execx.Result{ExitCode: 128, Stderr: "remote: permission denied\n"}, nil)

	c := NewClient(fake, "/repo", "origin", testLogger())
	err := c.Push(context.Background(), "main")
	if err == nil || !strings.Contains(err.Error(), "permission denied") {
		t.Errorf("expected the git stderr in the error, got %v", err)
	}
}

func TestCurrentBranchDetachedHead(t *testing.T) {
	fake := execx.NewFakeRunner()
	fake.Stub("git rev-parse --abbrev-ref HEAD", execx.Result{Stdout: "HEAD\n"}, nil)

	c := NewClient(fake, "/repo", "origin", testLogger())
	branch, err := c.CurrentBranch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if branch != "" {
		t.Errorf("detached HEAD must report no branch, got %q", branch)
	}
}

func TestAuthenticatedURL(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		token string
		want  string
	}{
		{
			name:  "https with token",
			url:   "https://github.com/owner/repo.git",
			token: "ghp_token",
			want:  "https://ghp_token:@github.com/owner/repo.git",
		},
		{
			name:  "ssh passthrough",
			url:   "git@github.com:owner/repo.git",
			token: "ghp_token",
			want:  "git@github.com:owner/repo.git",
		},
		{
			name:  "no token passthrough",
			url:   "https://github.com/owner/repo.git",
			token: "",
			want:  "https://github.com/owner/repo.git",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AuthenticatedURL(tt.url, tt.token)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("AuthenticatedURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
