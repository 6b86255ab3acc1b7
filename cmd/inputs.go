package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/BobTheBuidler/mypycify/internal/cache"
	"github.com/BobTheBuidler/mypycify/internal/config"
)

// registerInputFlags declares the composite-action input surface on cmd.
// Binding into viper happens at run time (see buildConfig) so INPUT_*
// environment variables and flag defaults resolve against the command that
// actually executes.
func registerInputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("python-version", "", "python runtime version to build against (required)")
	f.String("hash-key", "", "newline-separated glob patterns hashed into the cache key (required)")
	f.String("pip-cache-dependency-path", "", "newline-separated globs keying the pip dependency cache")
	f.String("build-command", config.DefaultBuildCommand, "build command to run on a cache miss")
	f.String("dist-dir", "dist", "directory the build writes wheels into")
	f.Bool("ccache", false, "wrap the build with a compiler cache")
	f.String("ccache-dir", "", "compiler cache directory (default $CCACHE_DIR or $HOME/.ccache)")
	f.Bool("push-source", false, "push regenerated source back after the build")
	f.Bool("normalize-source", false, "normalize generated source before diffing (requires push-source)")
	f.String("normalize-globs", "", "newline-separated globs selecting files to normalize (default **/*.c and **/*.h)")
	f.String("commit-message", config.DefaultCommitMessage, "commit message for pushed source")
	f.String("commit-author", "", "author name for pushed commits")
	f.String("commit-email", "", "author email for pushed commits")
	f.String("trigger-pr-number", "", "pull request number that triggered this run, for provenance")
	f.String("trigger-branch-name", "", "branch that triggered this run")
	f.String("repository", "", "canonical owner/repo (defaults to GITHUB_REPOSITORY)")
	f.String("head-repository", "", "owner/repo the checkout came from, when building a fork PR")
	f.String("remote", config.DefaultRemote, "git remote to probe and push to")
	f.String("platform", "", "cache key platform component (default GOOS-GOARCH)")
	f.String("artifact-dir", "", "directory wheels are staged into (default <cache-dir>/artifacts)")
	f.String("artifact-name", "", "override the artifact-name output")
	registerStoreFlags(cmd)
}

// registerStoreFlags declares the cache store backend inputs.
func registerStoreFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("s3-endpoint", "", "S3-compatible endpoint; enables the shared remote cache store")
	f.String("s3-bucket", "", "bucket for the remote cache store")
	f.String("s3-region", "", "region for the remote cache store")
	f.String("s3-access-key", "", "access key for the remote cache store")
	f.String("s3-secret-key", "", "secret key for the remote cache store")
	f.Bool("s3-use-ssl", true, "use TLS for the remote cache store")
}

// buildConfig binds the executing command's flags into viper and assembles
// the config, overlaying an optional BuildSpec file given as the positional
// argument.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		if err := config.LoadSpecFile(args[0], cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (cache.Store, error) {
	return cache.Open(cfg.CacheDir, cache.S3Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Bucket:    cfg.S3.Bucket,
		UseSSL:    cfg.S3.UseSSL,
	}, GetLogger())
}
