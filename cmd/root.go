package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"proptag/internal/config"
	"proptag/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "proptag",
	Short: "Bulk-apply catalog properties to your game library",
	Long: `proptag looks up a tag, genre, category, feature or series in an
external catalog, matches the catalog's entries against your local library
and applies the property to every matched record in one operation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if logFormat != "" {
			cfg.LogFormat = logFormat
		}
		logger, err = logging.New(logging.Options{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			Output: cmd.ErrOrStderr(),
		})
		return err
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&cfgFile,
		"config",
		"c",
		"",
		"path to config file",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel,
		"log-level",
		"",
		"log level (debug, info, warn, error)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logFormat,
		"log-format",
		"",
		"log format (console, json)",
	)
}

func requireCatalogURL() error {
	if cfg.CatalogURL == "" {
		return fmt.Errorf("no catalog url configured (set [catalog] url in the config file)")
	}
	return nil
}
