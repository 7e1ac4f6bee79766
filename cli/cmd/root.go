package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/audiencelab/leadpipe/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "leadpipectl",
	Short: "Leadpipe admin CLI",
	Long: `leadpipectl is the admin command-line interface for the leadpipe
ingestion service.

Inspect raw events and ledger outcomes, look up leads, and force a retry
of events left unprocessed by transient failures.`,
	Version: "0.1.0",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load config: %v\n", err)
		cfg = &config.Config{}
	}
}
