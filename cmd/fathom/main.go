package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fathomhq/fathom/config"
	"github.com/fathomhq/fathom/internal/app"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

// requiredEnv must be set (directly or via .env) before the service starts.
var requiredEnv = []string{
	"OPENAI_API_KEY",
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "fathom",
		Short:         "Voice-first assistant backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cfgPath)
			if err != nil {
				return err
			}
			defer syncLogger(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx, cfg, logger)
		},
	}

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the built-in actions into the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cfgPath)
			if err != nil {
				return err
			}
			defer syncLogger(logger)
			return app.Seed(cmd.Context(), cfg, logger)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	root.AddCommand(serve, seed, versionCmd)
	return root
}

func setup(cfgPath string) (*config.Config, *zap.Logger, error) {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()
	if missing := missingEnv(); len(missing) > 0 {
		return nil, nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger, nil
}

func missingEnv() []string {
	var missing []string
	for _, name := range requiredEnv {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func syncLogger(logger *zap.Logger) {
	// Sync on stderr commonly returns EINVAL; nothing useful to do with it.
	_ = logger.Sync()
}
