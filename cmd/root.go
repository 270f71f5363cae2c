package cmd

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/config"
)

var (
	cfgFile  string
	logLevel string

	// cfg is loaded before any subcommand runs
	cfg config.Config

	rootCmd = &cobra.Command{
		Use:   "cevicheria-pos",
		Short: "Point of sale for a cevichería",
		Long: `Point of sale for a small cevichería.

Functions:
- Seat tables and take takeout orders
- Add and remove dishes on open orders, print kitchen and customer tickets
- Keep one cash register entry per business day
- Import the menu from a spreadsheet`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initConfig,
	}
)

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (overrides the config)")
}

// initConfig loads the configuration and sets up the global logger
func initConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfig(".", cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	setupLogging(cfg)
	return nil
}

func setupLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Logging.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	log.Debug().Str("level", level.String()).Str("environment", cfg.Environment).Msg("Logger configured")
}
