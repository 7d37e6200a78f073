package fittrack

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/fittrack-cli/internal/config"
	"github.com/saadjs/fittrack-cli/internal/storage"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check local session and configuration state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			report, err := storage.RunDoctor(sqldb, doctorFix)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Schema version: %d\n", report.SchemaVersion)
			fmt.Fprintf(out, "Local storage keys: %s\n", strings.Join(report.StorageKeys, ", "))
			fmt.Fprintf(out, "Broken session: %t\n", report.BrokenSession)
			fmt.Fprintf(out, "Unknown config keys: %d\n", len(report.UnknownConfig))
			fmt.Fprintf(out, "Empty config values: %d\n", len(report.EmptyConfig))

			saved, err := storage.ListConfig(sqldb)
			if err != nil {
				return err
			}
			invalid := config.ValidatePersisted(saved)
			if invalid != nil {
				fmt.Fprintf(out, "Saved config invalid: %v\n", invalid)
			}

			if doctorFix {
				fmt.Fprintf(out, "Fixed rows: %d\n", report.FixedRows)
				if report, err = storage.RunDoctor(sqldb, false); err != nil {
					return err
				}
			}
			if !report.Healthy() || invalid != nil {
				return fmt.Errorf("doctor found issues")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Remove broken session data and ignored config rows")
}
