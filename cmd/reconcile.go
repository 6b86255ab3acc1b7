package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BobTheBuidler/mypycify/internal/execx"
	"github.com/BobTheBuidler/mypycify/internal/git"
	"github.com/BobTheBuidler/mypycify/internal/normalize"
	"github.com/BobTheBuidler/mypycify/internal/reconcile"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [buildspec]",
	Short: "Push regenerated source back to the repository",
	Long: `Runs the post-build reconciliation on its own: normalizes generated
C source when enabled, commits whatever changed, and either pushes to the
triggering branch or opens a pull request when the checkout has no write
access. A deleted trigger branch is reported and skipped, not an error.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := GetLogger()

		cfg, err := buildConfig(cmd, args)
		if err != nil {
			logger.Error("failed to assemble configuration", "error", err)
			return err
		}
		// reconcile on its own is an explicit request to push
		cfg.PushSource = true
		if err := cfg.ValidateReconcile(); err != nil {
			logger.Error("invalid configuration", "error", err)
			return err
		}

		runner := execx.NewExecRunner()
		gitClient := git.NewClient(runner, cfg.WorkDir, cfg.Remote, logger)

		var opener reconcile.Opener
		if !cfg.WriteAccess() {
			o, err := reconcile.NewPROpener(logger)
			if err != nil {
				logger.Error("failed to create GitHub client", "error", err)
				return fmt.Errorf("push-source from a fork needs the GitHub API: %w", err)
			}
			opener = o
		}

		var pass *normalize.Pass
		if cfg.NormalizeSource {
			pass = normalize.NewPass(cfg.WorkDir, cfg.NormalizeGlobs, normalize.CSource{}, logger)
		}

		result, err := reconcile.New(cfg, gitClient, opener, pass, logger).Run(cmd.Context())
		if err != nil {
			logger.Error("reconciliation failed", "error", err)
			return err
		}

		logger.Info("reconciliation complete",
			"outcome", result.Outcome.String(),
			"changed_files", len(result.Changed),
			"branch", result.Branch,
			"pr", result.PRNumber)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	registerInputFlags(reconcileCmd)
}
