package fittrack

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/fittrack-cli/internal/model"
	"github.com/saadjs/fittrack-cli/internal/store"
	"github.com/saadjs/fittrack-cli/internal/view"
)

var activityCmd = &cobra.Command{
	Use:     "activity",
	Aliases: []string{"activities"},
	Short:   "Manage logged activities",
}

var activityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List activities",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			if err := s.requireLogin(); err != nil {
				return err
			}
			s.activities.FetchActivities(cmd.Context())
			st := s.activities.State()
			if st.Err != "" {
				return s.failure(st.Err)
			}
			if len(st.Activities) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), `No activities yet. Log one with "fittrack activity add".`)
				return nil
			}
			view.ActivityTable(cmd.OutOrStdout(), st.Activities)
			return nil
		})
	},
}

var activityShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an activity with its recommendations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := model.ActivityID(strings.TrimSpace(args[0]))
		if id == "" {
			return fmt.Errorf("activity id is required")
		}
		return withSession(cmd, func(s *session) error {
			if err := s.requireLogin(); err != nil {
				return err
			}
			s.activities.FetchActivityDetail(cmd.Context(), id)
			st := s.activities.State()
			if st.Err != "" {
				return s.failure("Failed to load activity details: " + st.Err)
			}
			if st.Current == nil {
				return fmt.Errorf("activity %s not found", id)
			}
			view.ActivityDetail(cmd.OutOrStdout(), *st.Current)
			return nil
		})
	},
}

var (
	activityType     string
	activityDuration int
	activityCalories int
	activityMetrics  []string
)

var activityAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log an activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		extra, err := parseMetrics(activityMetrics)
		if err != nil {
			return err
		}
		in := model.ActivityInput{
			Type:              model.ParseActivityType(activityType),
			Duration:          activityDuration,
			CaloriesBurned:    activityCalories,
			AdditionalMetrics: extra,
		}
		if err := store.ValidateActivityInput(in); err != nil {
			return err
		}
		return withSession(cmd, func(s *session) error {
			if err := s.requireLogin(); err != nil {
				return err
			}
			created, err := s.activities.CreateActivity(cmd.Context(), in)
			if err != nil {
				return err
			}
			if st := s.activities.State(); st.Err != "" {
				return s.failure(st.Err)
			}
			if created == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Activity submitted")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added activity %s (%s, %s min, %s kcal)\n", created.ID, view.TypeLabel(created.Type), created.Duration, created.CaloriesBurned)
			return nil
		})
	},
}

var (
	updateType     string
	updateDuration int
	updateCalories int
	updateMetrics  []string
)

var activityUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of an activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := model.ActivityID(strings.TrimSpace(args[0]))
		if id == "" {
			return fmt.Errorf("activity id is required")
		}
		patch, err := buildActivityPatch(cmd)
		if err != nil {
			return err
		}
		if err := store.ValidateActivityPatch(patch); err != nil {
			return err
		}
		return withSession(cmd, func(s *session) error {
			if err := s.requireLogin(); err != nil {
				return err
			}
			raw, err := s.client.UpdateActivity(cmd.Context(), id, patch)
			if err != nil {
				return s.apiFailure(err)
			}
			var updated model.Activity
			if json.Unmarshal(raw, &updated) == nil && updated.HasID() {
				fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s (%s, %s min, %s kcal)\n", updated.ID, view.TypeLabel(updated.Type), updated.Duration, updated.CaloriesBurned)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s\n", id)
			return nil
		})
	},
}

func buildActivityPatch(cmd *cobra.Command) (model.ActivityPatch, error) {
	var patch model.ActivityPatch
	flags := cmd.Flags()
	if flags.Changed("type") {
		t := model.ParseActivityType(updateType)
		patch.Type = &t
	}
	if flags.Changed("duration") {
		d := updateDuration
		patch.Duration = &d
	}
	if flags.Changed("calories") {
		c := updateCalories
		patch.CaloriesBurned = &c
	}
	if flags.Changed("metric") {
		extra, err := parseMetrics(updateMetrics)
		if err != nil {
			return patch, err
		}
		patch.AdditionalMetrics = extra
	}
	return patch, nil
}

var activityDeleteYes bool

var activityDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := model.ActivityID(strings.TrimSpace(args[0]))
		if id == "" {
			return fmt.Errorf("activity id is required")
		}
		if !activityDeleteYes {
			ok, err := confirm(cmd, fmt.Sprintf("Are you sure you want to delete activity %s? [y/N] ", id))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
				return nil
			}
		}
		return withSession(cmd, func(s *session) error {
			if err := s.requireLogin(); err != nil {
				return err
			}
			s.activities.RemoveActivity(cmd.Context(), id)
			if st := s.activities.State(); st.Err != "" {
				return s.failure(st.Err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted activity %s\n", id)
			return nil
		})
	},
}

func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.AddCommand(activityListCmd, activityShowCmd, activityAddCmd, activityUpdateCmd, activityDeleteCmd)

	types := make([]string, 0, len(model.ActivityTypes))
	for _, t := range model.ActivityTypes {
		types = append(types, string(t))
	}
	typeHelp := "Activity type (" + strings.Join(types, ", ") + ")"

	activityAddCmd.Flags().StringVar(&activityType, "type", string(model.ActivityRunning), typeHelp)
	activityAddCmd.Flags().IntVar(&activityDuration, "duration", 0, "Duration in minutes (1-1440)")
	activityAddCmd.Flags().IntVar(&activityCalories, "calories", 0, "Calories burned (1-5000)")
	activityAddCmd.Flags().StringArrayVar(&activityMetrics, "metric", nil, "Additional metric as key=value (repeatable)")

	activityUpdateCmd.Flags().StringVar(&updateType, "type", "", typeHelp)
	activityUpdateCmd.Flags().IntVar(&updateDuration, "duration", 0, "Duration in minutes (1-1440)")
	activityUpdateCmd.Flags().IntVar(&updateCalories, "calories", 0, "Calories burned (1-5000)")
	activityUpdateCmd.Flags().StringArrayVar(&updateMetrics, "metric", nil, "Additional metric as key=value (repeatable)")

	activityDeleteCmd.Flags().BoolVarP(&activityDeleteYes, "yes", "y", false, "Skip the confirmation prompt")
}
