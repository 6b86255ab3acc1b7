// Package git wraps the git CLI for the worktree inspection, commit and
// remote operations the reconciliation stage needs.
package git

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/BobTheBuidler/mypycify/internal/execx"
)

// Client runs git against one checkout and one remote.
type Client struct {
	runner execx.Runner
	dir    string
	remote string
	logger *slog.Logger
}

func NewClient(runner execx.Runner, dir, remote string, logger *slog.Logger) *Client {
	return &Client{runner: runner, dir: dir, remote: remote, logger: logger}
}

// git runs one git command and returns its stdout, treating a non-zero exit
// as an error carrying the command's stderr.
func (c *Client) git(ctx context.Context, args ...string) (string, error) {
	res, err := c.runner.Run(ctx, execx.Command{Name: "git", Args: args, Dir: c.dir})
	if err != nil {
		return "", fmt.Errorf("failed to run git: %w", err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("git %s failed: %s", args[0], strings.TrimSpace(res.Stderr))
	}
	return res.Stdout, nil
}

// ChangedFiles lists paths that differ from HEAD, untracked files included,
// sorted lexicographically. An empty result means the worktree is clean.
func (c *Client) ChangedFiles(ctx context.Context) ([]string, error) {
	out, err := c.git(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		p := line[3:]
		// renames read "R  old -> new"; the new path is what changed
		if idx := strings.Index(p, " -> "); idx >= 0 {
			p = p[idx+4:]
		}
		p = strings.Trim(p, `"`)
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// AddAll stages every change in the worktree.
func (c *Client) AddAll(ctx context.Context) error {
	_, err := c.git(ctx, "add", "--all")
	return err
}

// Commit records the staged changes under the given identity.
func (c *Client) Commit(ctx context.Context, message, author, email string) error {
	c.logger.Info("committing changes", "message", message)
	_, err := c.git(ctx,
		"-c", "user.name="+author,
		"-c", "user.email="+email,
		"commit", "-m", message)
	return err
}

// Push updates branch on the remote with the local HEAD.
func (c *Client) Push(ctx context.Context, branch string) error {
	c.logger.Info("pushing to remote branch", "remote", c.remote, "branch", branch)
	_, err := c.git(ctx, "push", c.remote, "HEAD:refs/heads/"+branch)
	return err
}

// RemoteBranchExists probes the remote for branch. A clean empty answer means
// the branch is gone; callers treat that as a graceful stop, not a failure.
func (c *Client) RemoteBranchExists(ctx context.Context, branch string) (bool, error) {
	out, err := c.git(ctx, "ls-remote", "--heads", c.remote, "refs/heads/"+branch)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// CurrentBranch returns the checked-out branch name, or "" for a detached
// HEAD.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	out, err := c.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(out)
	if name == "HEAD" {
		return "", nil
	}
	return name, nil
}

// HeadSHA returns the commit the worktree is at.
func (c *Client) HeadSHA(ctx context.Context) (string, error) {
	out, err := c.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// EnsureAuth rewrites an HTTPS remote to carry GITHUB_TOKEN so pushes from a
// bare runner authenticate. Without a token or with a non-HTTPS remote it
// leaves the configuration alone.
func (c *Client) EnsureAuth(ctx context.Context) error {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		c.logger.Debug("no GITHUB_TOKEN found, relying on ambient git credentials")
		return nil
	}

	out, err := c.git(ctx, "remote", "get-url", c.remote)
	if err != nil {
		return err
	}
	authenticated, err := AuthenticatedURL(strings.TrimSpace(out), token)
	if err != nil {
		return fmt.Errorf("failed to prepare remote URL: %w", err)
	}
	if authenticated == strings.TrimSpace(out) {
		return nil
	}
	_, err = c.git(ctx, "remote", "set-url", "--push", c.remote, authenticated)
	return err
}

// AuthenticatedURL injects token into an HTTPS remote URL as the username,
// the way GitHub accepts token auth. Non-HTTPS URLs pass through unchanged.
func AuthenticatedURL(remoteURL, token string) (string, error) {
	if token == "" || !strings.HasPrefix(remoteURL, "https://") {
		return remoteURL, nil
	}

	u, err := url.Parse(remoteURL)
	if err != nil {
		return "", fmt.Errorf("invalid repository URL: %w", err)
	}
	u.User = url.UserPassword(token, "")
	return u.String(), nil
}
