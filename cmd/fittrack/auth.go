package fittrack

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/fittrack-cli/internal/store"
)

var loginToken string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with an access token from the identity provider",
	Long:  "Sign in with an access token issued by the identity provider. The token can also be supplied through FITTRACK_TOKEN.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			token := strings.TrimSpace(loginToken)
			if token == "" {
				token = s.cfg.Token
			}
			claims, expiresAt, err := store.DecodeToken(token)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			s.auth.SetCredentials(token, claims)

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", claims.DisplayName())
			if !expiresAt.IsZero() && expiresAt.Before(time.Now()) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: token expired at %s\n", expiresAt.Local().Format(time.RFC3339))
			}
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			s.auth.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			if err := s.requireLogin(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name: %s\n", s.auth.User().DisplayName())
			fmt.Fprintf(out, "User ID: %s\n", s.auth.UserID())
			fmt.Fprintf(out, "API: %s\n", s.cfg.APIBaseURL)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	loginCmd.Flags().StringVar(&loginToken, "token", "", "Access token (JWT)")
}
