package reconcile

import "testing"

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		c    Conditions
		want Outcome
	}{
		{
			name: "empty changeset wins over everything",
			c:    Conditions{ChangesEmpty: true, BranchExists: true, WriteAccess: true},
			want: OutcomeNoChange,
		},
		{
			name: "empty changeset with branch gone is still no-change",
			c:    Conditions{ChangesEmpty: true, BranchExists: false, WriteAccess: false},
			want: OutcomeNoChange,
		},
		{
			name: "vanished branch beats both publication paths",
			c:    Conditions{ChangesEmpty: false, BranchExists: false, WriteAccess: true},
			want: OutcomeBranchGone,
		},
		{
			name: "write access pushes directly",
			c:    Conditions{ChangesEmpty: false, BranchExists: true, WriteAccess: true},
			want: OutcomeDirectPush,
		},
		{
			name: "no write access opens a pull request",
			c:    Conditions{ChangesEmpty: false, BranchExists: true, WriteAccess: false},
			want: OutcomePROpened,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.c); got != tt.want {
				t.Errorf("Decide(%+v) = %v, want %v", tt.c, got, tt.want)
			}
		})
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		o    Outcome
		want string
	}{
		{OutcomeNoChange, "no-change"},
		{OutcomeBranchGone, "branch-gone"},
		{OutcomeDirectPush, "direct-push"},
		{OutcomePROpened, "pr-opened"},
		{Outcome(42), "outcome(42)"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(tt.o), got, tt.want)
		}
	}
}

func TestProvenance(t *testing.T) {
	tests := []struct {
		name     string
		prNumber string
		branch   string
		want     string
	}{
		{"pr number only", "482", "", "Triggered by #482"},
		{"branch only", "", "feature/x", "Triggered by branch: feature/x"},
		{"pr number wins over branch", "17", "feature/x", "Triggered by #17"},
		{"neither yields no line", "", "", ""},
		{"whitespace is not a pr number", "  ", "feature/x", "Triggered by branch: feature/x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Provenance(tt.prNumber, tt.branch); got != tt.want {
				t.Errorf("Provenance(%q, %q) = %q, want %q", tt.prNumber, tt.branch, got, tt.want)
			}
		})
	}
}
