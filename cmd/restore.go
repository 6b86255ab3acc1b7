package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/BobTheBuidler/mypycify/internal/cache"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore a cache entry into a directory",
	Long: `Looks up a cache entry by exact key, falling back to the newest entry
matching any --restore-key prefix, and unpacks it under --path. Exits with an
error when nothing matches.`,
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
		prefixes, _ := cmd.Flags().GetStringArray("restore-key")
		dest, _ := cmd.Flags().GetString("path")
		if key == "" {
			return errors.New("--key is required")
		}
		if dest == "" {
			dest = cfg.WorkDir
		}

		store, err := openStore(cfg)
		if err != nil {
			logger.Error("failed to open cache store", "error", err)
			return err
		}

		resolved, ok, err := store.Lookup(cmd.Context(), key, prefixes)
		if err != nil {
			logger.Error("cache lookup failed", "key", key, "error", err)
			return err
		}
		if !ok {
			logger.Error("no cache entry matched", "key", key, "restore_keys", len(prefixes))
			return cache.ErrNotFound
		}

		logger.Info("restoring cache entry", "key", resolved, "dest", dest, "exact", resolved == key)
		if err := store.Restore(cmd.Context(), resolved, dest); err != nil {
			logger.Error("failed to restore cache entry", "key", resolved, "error", err)
			return err
		}

		logger.Info("cache entry restored", "key", resolved)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
	registerStoreFlags(restoreCmd)

	restoreCmd.Flags().String("key", "", "Exact cache key to restore")
	restoreCmd.Flags().StringArray("restore-key", nil, "Key prefix to fall back to, newest entry wins (repeatable)")
	restoreCmd.Flags().String("path", "", "Directory to unpack into (defaults to the working directory)")
}
