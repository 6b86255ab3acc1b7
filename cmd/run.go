package cmd

import (
	"github.com/spf13/cobra"

	"github.com/BobTheBuidler/mypycify/internal/execx"
	"github.com/BobTheBuidler/mypycify/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run [buildspec]",
	Short: "Run the full wheel build pipeline",
	Long: `Run every stage in order: resolve the Python toolchain, derive the
cache keys, build the wheel behind the artifact cache, handle the compiler
and pip caches, stage the artifact, and reconcile regenerated source back to
the repository.

An optional BuildSpec YAML file overlays the flag and environment inputs.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := GetLogger()

		cfg, err := buildConfig(cmd, args)
		if err != nil {
			logger.Error("failed to assemble configuration", "error", err)
			return err
		}
		if err := cfg.Validate(); err != nil {
			logger.Error("invalid configuration", "error", err)
			return err
		}

		store, err := openStore(cfg)
		if err != nil {
			logger.Error("failed to open cache store", "error", err)
			return err
		}

		summary, err := pipeline.New(cfg, execx.NewExecRunner(), store, logger).Run(cmd.Context())
		if err != nil {
			logger.Error("pipeline failed", "error", err)
			return err
		}

		logger.Info("pipeline complete",
			"python", summary.PythonVersion,
			"key", summary.WheelsKey,
			"cache_hit", summary.CacheHit,
			"wheels", len(summary.Wheels),
			"artifact", summary.ArtifactName,
			"outcome", summary.Outcome.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	registerInputFlags(runCmd)
}
