package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BobTheBuidler/mypycify/internal/cachekey"
)

var keyCmd = &cobra.Command{
	Use:   "key [buildspec]",
	Short: "Print the cache keys the pipeline would use",
	Long: `Derives the wheel, compiler and pip cache keys from the configured
hash patterns and prints them, one per line. Useful for debugging cache
misses: run it on two commits and diff the output.`,
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

		resolver, err := cachekey.NewResolver(cfg.WorkDir)
		if err != nil {
			logger.Error("failed to create key resolver", "error", err)
			return err
		}

		wheels, err := resolver.Derive(cachekey.ScopeWheels, cfg.Platform, cfg.PythonVersion, cfg.HashGlobs)
		if err != nil {
			logger.Error("failed to derive wheel cache key", "error", err)
			return err
		}
		ccache, err := resolver.Derive(cachekey.ScopeCcache, cfg.Platform, cfg.PythonVersion, cfg.HashGlobs)
		if err != nil {
			logger.Error("failed to derive compiler cache key", "error", err)
			return err
		}

		fmt.Println(wheels.String())
		fmt.Println(ccache.String())

		if len(cfg.PipDependencyGlobs) > 0 {
			pip, err := resolver.Derive(cachekey.ScopePip, cfg.Platform, cfg.PythonVersion, cfg.PipDependencyGlobs)
			if err != nil {
				logger.Error("failed to derive pip cache key", "error", err)
				return err
			}
			fmt.Println(pip.String())
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(keyCmd)
	registerInputFlags(keyCmd)
}
