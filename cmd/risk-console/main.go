package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"credit-risk-console/internal/common/config"
	"credit-risk-console/internal/common/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile    string
	scoringURL string
	logLevel   string
	logFormat  string
	version    = "dev"

	rootCmd = &cobra.Command{
		Use:   "risk-console",
		Short: "Credit-risk decision support for analysts",
		Long: `risk-console scores loan applicants against a remote prediction service,
keeps a store of assessed applications, and derives decision guidance
(recommended action, pricing band, affordability, improvement tips).`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initApp,
	}

	app struct {
		cfg *config.Config
		zap *zap.Logger
		log logger.Logger
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&scoringURL, "scoring-url", "", "scoring service base URL, e.g. http://localhost:8000/api")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (console, json)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(assessCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(healthCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if app.zap != nil {
		_ = app.zap.Sync()
	}

	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func initApp(cmd *cobra.Command, _ []string) error {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if scoringURL != "" {
		cfg.Scoring.BaseURL = scoringURL
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	app.cfg = cfg
	app.zap = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	app.log = logger.NewZapAdapter(app.zap).WithFields(map[string]interface{}{
		"command": cmd.Name(),
	})
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		// version needs no config
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "risk-console %s\n", version)
		},
	}
}
