// Package main provides the kbslice CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agenthands/kbslice/internal/config"
	"github.com/agenthands/kbslice/internal/logging"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

const defaultConfigPath = "config/kbslice.toml"

// app carries what every subcommand needs once the root has set it up.
type app struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log *zap.Logger
}

func main() {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "kbslice",
		Short: "Slice a UMLS release down to an allow-list of concepts",
		Long: `kbslice extracts names, semantic types and provenance-carrying relations
for an allow-list of UMLS concepts, and filters scored relation predictions
down to a deduplicated silver triple set.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to the TOML config (default $CONFIG_PATH or "+defaultConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log.level")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kbslice v%s (%s)\n", version, commit)
		},
	})
	rootCmd.AddCommand(
		a.goldCmd(),
		a.silverCmd(),
		a.extractCmd(),
		a.loadCmd(),
		a.serveCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if a.log != nil {
			a.log.Error("command failed", zap.Error(err))
			_ = a.log.Sync()
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	// .env is optional
	_ = godotenv.Load()

	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

// loadConfig reads path, or CONFIG_PATH, or the default location. Only a
// missing default file falls back to the built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	explicit := true
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
		explicit = false
	}

	cfg, err := config.Load(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}
