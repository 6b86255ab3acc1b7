package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save paths into the cache under a key",
	Long: `Archives one or more paths, relative to the working directory, and
stores them under the given key. Saving to an existing key replaces it.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := GetLogger()

		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			logger.Error("failed to assemble configuration", "error", err)
			return err
		}

		key, _ := cmd.Flags().GetString("key")
		paths, _ := cmd.Flags().GetStringArray("path")
		if key == "" {
			return errors.New("--key is required")
		}
		if len(paths) == 0 {
			return errors.New("at least one --path is required")
		}

		store, err := openStore(cfg)
		if err != nil {
			logger.Error("failed to open cache store", "error", err)
			return err
		}

		logger.Info("saving cache entry", "key", key, "paths", len(paths))
		if err := store.Save(cmd.Context(), key, cfg.WorkDir, paths); err != nil {
			logger.Error("failed to save cache entry", "key", key, "error", err)
			return err
		}

		logger.Info("cache entry saved", "key", key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(saveCmd)
	registerStoreFlags(saveCmd)

	saveCmd.Flags().String("key", "", "Cache key to save under")
	saveCmd.Flags().StringArray("path", nil, "Path to archive, relative to the working directory (repeatable)")
}
