package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/companion-core/internal/logging"
)

var (
	suggestUser string
	suggestNum  int
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Produce gated suggestions for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			res, err := a.engine.SuggestForUser(ctx, suggestUser, suggestNum, nil)
			if err != nil {
				return err
			}
			if err := a.auditor.Record(ctx, logging.PhaseRecord{
				UserID:  suggestUser,
				Source:  logging.SourceSuggest,
				Phase:   res.Phase,
				Stress:  res.Scores.Stress,
				Burnout: res.Scores.Burnout,
				Danger:  res.Scores.Danger,
				Crisis:  res.Urgent,
				Reasons: res.Explanations,
			}); err != nil {
				a.logger.Warn("audit write failed", zap.Error(err))
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return printJSON(out, res)
			}
			fmt.Fprintf(out, "Phase: %s (stress %d, burnout %d, danger %d)\n",
				res.Phase, res.Scores.Stress, res.Scores.Burnout, res.Scores.Danger)
			if res.Urgent {
				fmt.Fprintln(out, "URGENT: crisis resources first")
			}
			for _, s := range res.Suggestions {
				fmt.Fprintf(out, "  %s  %s\n", s.ID, s.Text)
				fmt.Fprintf(out, "      %s | %s | tied to %s\n", s.Category, s.Difficulty, s.Meta.TiedTo)
				if s.PermissionPrompt != "" {
					fmt.Fprintf(out, "      %s\n", s.PermissionPrompt)
				}
			}
			return nil
		})
	},
}

func init() {
	suggestCmd.Flags().StringVarP(&suggestUser, "user", "u", "", "User id (required)")
	suggestCmd.Flags().IntVarP(&suggestNum, "num", "n", 3, "Number of suggestions (1-10)")
	_ = suggestCmd.MarkFlagRequired("user")
}
