package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/chrisdamba/dispatchsim/internal/logger"
	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     *models.Config
)

var rootCmd = &cobra.Command{
	Use:   "dispatchsim",
	Short: "Simulates a day of courier dispatch for a network of shops",
	Long: `dispatchsim replays one day of shop orders against a courier roster, bundling
orders into trips, deciding when each trip leaves and falling back to taxis,
then writes every dispatched delivery to the configured destination.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyCommandFlags(cmd); err != nil {
			return err
		}
		return initConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("date", "", "simulated day, RFC3339")

	bindFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig loads the config of the command being executed.
func initConfig(cmd *cobra.Command) error {
	var err error
	cfg, err = models.LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.Logging.Level)

	if date, _ := cmd.Flags().GetString("date"); date != "" {
		if cfg.Simulation.Date, err = time.Parse(time.RFC3339, date); err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
