// Package reconcile decides and performs what happens to regenerated source
// after a build: nothing, a direct push, or a pull request.
package reconcile

import "fmt"

// Outcome is the terminal state of one reconciliation run.
type Outcome int

const (
	// OutcomeNoChange: the worktree matches HEAD after the build.
	OutcomeNoChange Outcome = iota
	// OutcomeBranchGone: changes exist but the triggering branch disappeared,
	// so the work product is no longer wanted anywhere.
	OutcomeBranchGone
	// OutcomeDirectPush: changes were committed and pushed to the triggering
	// branch.
	OutcomeDirectPush
	// OutcomePROpened: changes were published on a fresh branch behind a pull
	// request.
	OutcomePROpened
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoChange:
		return "no-change"
	case OutcomeBranchGone:
		return "branch-gone"
	case OutcomeDirectPush:
		return "direct-push"
	case OutcomePROpened:
		return "pr-opened"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Conditions are the three observations the decision depends on, evaluated
// in this order: an empty changeset wins over everything, a vanished branch
// beats both publication paths, and write access selects between them.
type Conditions struct {
	ChangesEmpty bool
	BranchExists bool
	WriteAccess  bool
}

// Decide maps observed conditions to the terminal outcome.
func Decide(c Conditions) Outcome {
	switch {
	case c.ChangesEmpty:
		return OutcomeNoChange
	case !c.BranchExists:
		return OutcomeBranchGone
	case c.WriteAccess:
		return OutcomeDirectPush
	default:
		return OutcomePROpened
	}
}
