package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var logger *slog.Logger

var rootCmd = &cobra.Command{
	Use:   "mypycify",
	Short: "Build mypyc-compiled wheels with layered caching",
	Long: `Mypycify orchestrates mypyc wheel builds on CI runners: it derives
deterministic cache keys from source content, restores and saves the wheel,
compiler and pip dependency caches, and pushes regenerated C sources back as
a commit or a pull request.

Inputs are read from flags or from INPUT_* environment variables, the
convention composite actions use to pass their inputs down.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("workdir", "", "repository checkout to operate on (default current directory)")
	rootCmd.PersistentFlags().String("cache-dir", "", "local cache store directory (default $HOME/.cache/mypycify)")
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("workdir", rootCmd.PersistentFlags().Lookup("workdir"))
	_ = viper.BindPFlag("cache-dir", rootCmd.PersistentFlags().Lookup("cache-dir"))

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func initConfig() {
	_ = godotenv.Load()

	viper.SetEnvPrefix("INPUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// values GitHub Actions provides natively, so bare runs need no extra wiring
	_ = viper.BindEnv("repository", "INPUT_REPOSITORY", "GITHUB_REPOSITORY")
	_ = viper.BindEnv("trigger-branch-name", "INPUT_TRIGGER_BRANCH_NAME", "GITHUB_HEAD_REF")

	level := viper.GetString("log-level")
	switch level {
	case "debug":
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case "warn":
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	case "error":
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	}
}

func GetLogger() *slog.Logger {
	return logger
}
