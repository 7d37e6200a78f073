package fittrack

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/fittrack-cli/internal/config"
	"github.com/saadjs/fittrack-cli/internal/storage"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage fittrack local configuration",
}

var (
	cfgAPIURL         string
	cfgLogLevel       string
	cfgLogFormat      string
	cfgRequestTimeout string
)

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set configuration values",
	RunE: func(cmd *cobra.Command, args []string) error {
		updates := map[string]string{}
		for flag, key := range map[string]string{
			"api-url":         storage.ConfigAPIBaseURL,
			"log-level":       storage.ConfigLogLevel,
			"log-format":      storage.ConfigLogFormat,
			"request-timeout": storage.ConfigRequestTimeout,
		} {
			if !cmd.Flags().Changed(flag) {
				continue
			}
			value, _ := cmd.Flags().GetString(flag)
			updates[key] = strings.TrimSpace(value)
		}
		if len(updates) == 0 {
			return fmt.Errorf("set at least one flag")
		}
		if err := config.ValidatePersisted(updates); err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			for key, value := range updates {
				if err := storage.SetConfig(sqldb, key, value); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d config value(s)\n", len(updates))
			return nil
		})
	},
}

var configUnsetCmd = &cobra.Command{
	Use:       "unset <key>",
	Short:     "Remove a saved configuration value",
	Args:      cobra.ExactArgs(1),
	ValidArgs: storage.ConfigKeys,
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(strings.TrimSpace(args[0]))
		known := false
		for _, k := range storage.ConfigKeys {
			if k == key {
				known = true
			}
		}
		if !known {
			return fmt.Errorf("unknown config key %q (expected one of %s)", key, strings.Join(storage.ConfigKeys, ", "))
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := storage.UnsetConfig(sqldb, key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", key)
			return nil
		})
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			saved := map[string]string{}
			if s.db != nil {
				var err error
				if saved, err = storage.ListConfig(s.db); err != nil {
					return err
				}
			}
			dbPath, err := resolveDBPath(s.cfg)
			if err != nil {
				return err
			}
			timeout := "none"
			if s.cfg.RequestTimeout > 0 {
				timeout = s.cfg.RequestTimeout.String()
			}
			rows := [][2]string{
				{config.KeyAPIBaseURL, s.cfg.APIBaseURL},
				{config.KeyDBPath, dbPath},
				{config.KeyLogLevel, s.cfg.LogLevel},
				{config.KeyLogFormat, s.cfg.LogFormat},
				{config.KeyRequestTimeout, timeout},
				{config.KeyMetricsTextfile, s.cfg.MetricsTextfile},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "KEY\tVALUE\tSAVED")
			for _, row := range rows {
				fmt.Fprintf(out, "%s\t%s\t%s\n", row[0], row[1], saved[row[0]])
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd, configGetCmd, configUnsetCmd)

	configSetCmd.Flags().StringVar(&cfgAPIURL, "api-url", "", "Base URL of the fitness API")
	configSetCmd.Flags().StringVar(&cfgLogLevel, "log-level", "", "Default log level")
	configSetCmd.Flags().StringVar(&cfgLogFormat, "log-format", "", "Default log format (console, json)")
	configSetCmd.Flags().StringVar(&cfgRequestTimeout, "request-timeout", "", "HTTP request timeout, e.g. 30s (0 disables)")
}
