package reconcile

import (
	"fmt"
	"strings"
)

// Provenance renders the line that records what triggered a run, for commit
// and pull request bodies. A PR number wins over a branch name when both are
// present; with neither, there is no provenance to record.
func Provenance(prNumber, branchName string) string {
	if n := strings.TrimSpace(prNumber); n != "" {
		return fmt.Sprintf("Triggered by #%s", n)
	}
	if b := strings.TrimSpace(branchName); b != "" {
		return fmt.Sprintf("Triggered by branch: %s", b)
	}
	return ""
}
