// Command cityos runs the CityOS government-data and operations console API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cityos/internal/config"
	"cityos/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg     *config.Config
	cfgPath string
	logger  *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cityos",
	Short: "CityOS - open government data and smart city operations console",
	Long: `CityOS serves Brazilian open government data (Câmara, Senado and Portal
da Transparência), answers questions about it with charts, and drives a
synthetic smart city operations console.

Run "cityos serve" to start the HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, cfgPath, err = config.LoadFromPath(configPath)
		} else {
			cfg, cfgPath, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}

		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: search CITYOS_CONFIG, ./cityos.yaml, user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, simulateCmd, analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
