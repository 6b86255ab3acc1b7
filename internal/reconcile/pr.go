package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/google/go-github/v58/github"
	"golang.org/x/oauth2"
)

// Opener files pull requests. The GitHub-backed implementation is PROpener;
// tests substitute their own.
type Opener interface {
	Open(ctx context.Context, repo, title, body, head, base string) (int, error)
}

// PROpener creates pull requests through the GitHub API.
type PROpener struct {
	logger *slog.Logger
	client *github.Client
}

// NewPROpener builds an authenticated API client from GITHUB_TOKEN.
func NewPROpener(logger *slog.Logger) (*PROpener, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable must be set")
	}

	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	return &PROpener{
		logger: logger,
		client: client,
	}, nil
}

// Open files a pull request merging head into base and returns its number.
// An empty base means the repository's default branch.
func (o *PROpener) Open(ctx context.Context, repo, title, body, head, base string) (int, error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid repo format, expected 'owner/repo'")
	}
	owner, name := parts[0], parts[1]

	if base == "" {
		r, _, err := o.client.Repositories.Get(ctx, owner, name)
		if err != nil {
			return 0, fmt.Errorf("failed to resolve default branch: %w", err)
		}
		base = r.GetDefaultBranch()
	}

	o.logger.Info("opening pull request", "repo", repo, "head", head, "base", base)
	pr, _, err := o.client.PullRequests.Create(ctx, owner, name, &github.NewPullRequest{
		Title:               github.String(title),
		Head:                github.String(head),
		Base:                github.String(base),
		Body:                github.String(body),
		MaintainerCanModify: github.Bool(true),
	})
	if err != nil {
		o.logger.Error("failed to create pull request", "error", err, "repo", repo)
		if r, ok := err.(*github.ErrorResponse); ok {
			if r.Response.StatusCode == http.StatusUnprocessableEntity {
				o.logger.Error("pull request rejected, ensure the head branch was pushed and differs from base", "head", head, "base", base)
			}
		}
		return 0, err
	}

	o.logger.Info("pull request created", "number", pr.GetNumber(), "url", pr.GetHTMLURL())
	return pr.GetNumber(), nil
}
