package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/BobTheBuidler/mypycify/internal/config"
	"github.com/BobTheBuidler/mypycify/internal/git"
	"github.com/BobTheBuidler/mypycify/internal/normalize"
)

// Result reports what reconciliation did.
type Result struct {
	Outcome  Outcome
	Changed  []string
	Branch   string
	PRNumber int
}

// Reconciler walks the post-build decision: normalize, diff, check the
// triggering branch, then push directly or open a pull request.
type Reconciler struct {
	cfg    *config.Config
	git    *git.Client
	opener Opener
	pass   *normalize.Pass
	logger *slog.Logger
}

// New wires a reconciler. pass may be nil when normalization is disabled;
// opener may be nil when the run has direct write access and will never take
// the pull request path.
func New(cfg *config.Config, gitClient *git.Client, opener Opener, pass *normalize.Pass, logger *slog.Logger) *Reconciler {
	return &Reconciler{cfg: cfg, git: gitClient, opener: opener, pass: pass, logger: logger}
}

func (r *Reconciler) Run(ctx context.Context) (Result, error) {
	if !r.cfg.PushSource {
		r.logger.Info("push-source disabled, nothing to reconcile")
		return Result{Outcome: OutcomeNoChange}, nil
	}

	if r.pass != nil {
		if _, err := r.pass.Apply(); err != nil {
			return Result{}, fmt.Errorf("failed to normalize generated source: %w", err)
		}
	}

	changed, err := r.git.ChangedFiles(ctx)
	if err != nil {
		return Result{}, err
	}

	branch, err := r.triggerBranch(ctx)
	if err != nil {
		return Result{}, err
	}

	conditions := Conditions{ChangesEmpty: len(changed) == 0}
	if !conditions.ChangesEmpty {
		if branch != "" {
			exists, err := r.git.RemoteBranchExists(ctx, branch)
			if err != nil {
				return Result{}, err
			}
			conditions.BranchExists = exists
		} else {
			// no branch to probe; absence of trigger context must not fake a
			// branch-gone exit
			conditions.BranchExists = true
		}
		conditions.WriteAccess = branch != "" && r.cfg.WriteAccess()
	}

	outcome := Decide(conditions)
	result := Result{Outcome: outcome, Changed: changed, Branch: branch}

	switch outcome {
	case OutcomeNoChange:
		r.logger.Info("working tree matches HEAD, nothing to push")
		return result, nil

	case OutcomeBranchGone:
		r.logger.Info("triggering branch no longer exists, skipping source push", "branch", branch)
		return result, nil

	case OutcomeDirectPush:
		if err := r.commit(ctx); err != nil {
			return Result{}, err
		}
		if err := r.git.Push(ctx, branch); err != nil {
			return Result{}, err
		}
		r.logger.Info("pushed regenerated source", "branch", branch, "files", len(changed))
		return result, nil

	default: // OutcomePROpened
		if r.opener == nil {
			return Result{}, fmt.Errorf("pull request path requires a GitHub API client (is GITHUB_TOKEN set?)")
		}
		if err := r.commit(ctx); err != nil {
			return Result{}, err
		}
		head := fmt.Sprintf("mypycify/regen-%.8s", uuid.New().String())
		if err := r.git.Push(ctx, head); err != nil {
			return Result{}, err
		}
		body := Provenance(r.cfg.TriggerPRNumber, r.cfg.TriggerBranchName)
		number, err := r.opener.Open(ctx, r.cfg.Repository, r.cfg.CommitMessage, body, head, branch)
		if err != nil {
			return Result{}, err
		}
		result.PRNumber = number
		r.logger.Info("opened pull request for regenerated source", "number", number, "head", head)
		return result, nil
	}
}

// triggerBranch resolves the branch this run is acting for: the explicit
// trigger input when present, the checked-out branch otherwise, or "" on a
// detached HEAD.
func (r *Reconciler) triggerBranch(ctx context.Context) (string, error) {
	if r.cfg.TriggerBranchName != "" {
		return r.cfg.TriggerBranchName, nil
	}
	return r.git.CurrentBranch(ctx)
}

func (r *Reconciler) commit(ctx context.Context) error {
	if err := r.git.EnsureAuth(ctx); err != nil {
		return err
	}
	if err := r.git.AddAll(ctx); err != nil {
		return err
	}
	return r.git.Commit(ctx, r.cfg.CommitMessage, r.cfg.CommitAuthor, r.cfg.CommitEmail)
}
