package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sqs-simulator",
	Short: "SQS queue types simulator",
	Long: `sqs-simulator models the delivery semantics of Amazon SQS standard, FIFO
and dead-letter queues. "serve" runs the simulation behind an HTTP API; the
remaining commands drive a running server or replay a seeded simulation locally.`,
	SilenceUsage: true,
}

var (
	configFile string
	serverURL  string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (defaults to $SIMULATOR_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", defaultServerURL(), "simulator API base URL")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(clientCommands()...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
