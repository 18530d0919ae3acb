package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/companion-core/internal/feedback"
)

var (
	fbUser       string
	fbSuggestion string
	fbAction     string
	fbRating     int
	fbCategory   string
	fbDifficulty string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record suggestion feedback and show preferences",
}

var feedbackLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Record what the user did with a suggestion",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			var rating *int
			if cmd.Flags().Changed("rating") {
				rating = &fbRating
			}
			meta := feedback.Meta{Category: fbCategory, Difficulty: fbDifficulty}
			entry, err := a.feedback.LogInteraction(ctx, fbUser, fbSuggestion, feedback.Action(fbAction), meta, rating)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), entry)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %s for %s\n", entry.Action, entry.SuggestionID)
			return nil
		})
	},
}

var feedbackStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the preferences derived from a user's feedback",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			prefs, err := a.feedback.Preferences(ctx, fbUser)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return printJSON(out, prefs)
			}
			fmt.Fprintf(out, "Interactions:         %d\n", prefs.TotalInteractions)
			fmt.Fprintf(out, "Acceptance rate:      %.2f\n", prefs.AcceptanceRate)
			fmt.Fprintf(out, "Preferred category:   %s\n", orNone(prefs.PreferredCategory))
			fmt.Fprintf(out, "Preferred difficulty: %s\n", orNone(prefs.PreferredDifficulty))
			return nil
		})
	},
}

func init() {
	feedbackCmd.PersistentFlags().StringVarP(&fbUser, "user", "u", "", "User id (required)")
	_ = feedbackCmd.MarkPersistentFlagRequired("user")

	feedbackLogCmd.Flags().StringVarP(&fbSuggestion, "suggestion", "s", "", "Suggestion id (required)")
	feedbackLogCmd.Flags().StringVarP(&fbAction, "action", "a", "", "accepted, rejected, completed or dismissed")
	feedbackLogCmd.Flags().IntVarP(&fbRating, "rating", "r", 0, "Rating 1-5")
	feedbackLogCmd.Flags().StringVar(&fbCategory, "category", "", "Suggestion category")
	feedbackLogCmd.Flags().StringVar(&fbDifficulty, "difficulty", "", "Suggestion difficulty")
	_ = feedbackLogCmd.MarkFlagRequired("suggestion")
	_ = feedbackLogCmd.MarkFlagRequired("action")

	feedbackCmd.AddCommand(feedbackLogCmd)
	feedbackCmd.AddCommand(feedbackStatsCmd)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
