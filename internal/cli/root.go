// Package cli implements the nerdscourt commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdscourt/canon-core/internal/archive"
	"github.com/nerdscourt/canon-core/internal/backend"
	"github.com/nerdscourt/canon-core/internal/config"
	"github.com/nerdscourt/canon-core/internal/logging"
	"github.com/nerdscourt/canon-core/internal/media"
	"github.com/nerdscourt/canon-core/internal/store"
)

var (
	formatFlag string
	envFile    string

	cfg    *config.Config
	logger = zap.NewNop()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:          "nerdscourt",
	Short:        "NerdsCourt canon core",
	Long:         "Personas, trials, lore and media for the NerdsCourt tribunal. Config comes from the environment and .env.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if formatFlag != "json" && formatFlag != "yaml" {
			return fmt.Errorf("invalid --format %q (use json or yaml)", formatFlag)
		}
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		c, err := config.Load(files...)
		if err != nil {
			return err
		}
		l, err := logging.New(c.Logger)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or yaml")
	RootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Env file to load (default: ./.env)")

	RootCmd.AddCommand(&cobra.Command{
		Use:   "env",
		Short: "Describe the supported environment variables",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.Usage())
		},
	})
}

func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Archive.Backend {
	case config.BackendSQLite:
		return store.NewSQLiteStore(cfg.Archive.SQLitePath)
	case config.BackendRedis:
		return store.OpenRedisStore(ctx, cfg.Archive.RedisURL, store.DefaultRedisPrefix)
	default:
		return store.NewFileStore(cfg.Archive.Path), nil
	}
}

// openArchive opens the configured archive. Callers close it via Store().Close().
func openArchive(ctx context.Context) (*archive.Archive, error) {
	s, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	return archive.New(s, logger), nil
}

func newBackend() *backend.Client {
	return backend.New(cfg.Convex.URL, cfg.Convex.APIKey, cfg.Convex.Timeout, logger)
}

func newMedia() *media.Bridge {
	return media.New(cfg.HuggingFace.Token, cfg.HuggingFace.Timeout, logger)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
