package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	consUser   string
	consDryRun bool
	consWindow int
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Extract durable facts from recent chat into the user's profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			turns, err := a.store.Chat.Recent(ctx, consUser, consWindow)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(turns) == 0 {
				fmt.Fprintln(out, "No recent chat history to consolidate.")
				return nil
			}
			res, err := a.consolidator.FromTranscript(ctx, consUser, turns, consDryRun)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(out, res)
			}
			verb := "added"
			if res.DryRun {
				verb = "would add"
			}
			for _, m := range res.Added {
				fmt.Fprintf(out, "%s  %-11s %.2f  %s\n", verb, m.Type, m.Confidence, m.Text)
			}
			for _, s := range res.Skipped {
				fmt.Fprintf(out, "skipped    %-11s %-14s %s\n", s.Type, s.Reason, s.Text)
			}
			if !res.DryRun && len(res.Added) > 0 && !res.Persisted {
				fmt.Fprintf(out, "no profile for %s; nothing stored\n", consUser)
			}
			return nil
		})
	},
}

func init() {
	consolidateCmd.Flags().StringVarP(&consUser, "user", "u", "", "User id (required)")
	consolidateCmd.Flags().BoolVar(&consDryRun, "dry-run", false, "Show what would be stored without writing")
	consolidateCmd.Flags().IntVar(&consWindow, "window", 50, "Number of recent turns to read")
	_ = consolidateCmd.MarkFlagRequired("user")
}
