// Command engine ingests Greenhouse and Lever job boards into one store and
// serves today/search queries over it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	dataDirFlag string
	configFlag  string
)

var rootCmd = &cobra.Command{
	Use:           "engine",
	Short:         "Job board aggregator",
	Long:          "engine pulls postings from Greenhouse and Lever, normalizes them into one store and answers today/search queries.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (default $JOBPORTAL_DATA_DIR or .)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default <data-dir>/config.yml, created on first run)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
