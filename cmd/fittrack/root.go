package fittrack

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPath          string
	apiURL          string
	logLevel        string
	logFormat       string
	metricsTextfile string
)

var rootCmd = &cobra.Command{
	Use:           "fittrack",
	Short:         "fittrack logs workouts and shows AI recommendations from your terminal",
	Long:          "fittrack is a command line client for the fitness tracking API: log activities, browse them, and read the recommendations generated for each one.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Base URL of the fitness API")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write API request metrics to this file after the command")
}
