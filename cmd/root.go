package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/config"
)

var (
	flagMonitor  string
	flagConfig   string
	flagDB       string
	flagLogLevel string

	// cfg is loaded before every command runs.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cronometro",
	Short: "Cronômetro – race timing station for the finish line",
	Long: `cronometro records finish and delayed-start times per bib number,
ranks the runners and exports the classification.
Records are kept in ~/.cronometro/cronometro.db unless a shared database is configured.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagMonitor, "monitor", "", "Monitor name written on every record (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ~/.cronometro/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Database file for sqlite or URL for postgres")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(finishCmd)
	rootCmd.AddCommand(delayedStartCmd)
	rootCmd.AddCommand(checkinCmd)
	rootCmd.AddCommand(stopwatchCmd)
	rootCmd.AddCommand(rankingCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(runnersCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(raceCmd)
	rootCmd.AddCommand(clockCmd)
	rootCmd.AddCommand(serveCmd)
}

// setup loads .env and the config file, applies global flags and configures
// the logger.
func setup(cmd *cobra.Command, args []string) error {
	// A missing .env is normal.
	_ = godotenv.Load()

	loaded, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagMonitor != "" {
		loaded.Monitor = flagMonitor
	}
	if flagDB != "" {
		loaded.Storage.DSN = flagDB
	}
	if flagLogLevel != "" {
		loaded.Log.Level = flagLogLevel
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = loaded

	level, _ := zerolog.ParseLevel(cfg.Log.Level)
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	return nil
}
