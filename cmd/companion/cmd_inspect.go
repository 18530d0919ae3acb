package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/companion-core/internal/logging"
)

var (
	inspectUser string
	inspectLast int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List recent phase decisions for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			recs, err := a.auditor.Recent(ctx, inspectUser, inspectLast)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), recs)
			}
			printAudit(cmd.OutOrStdout(), recs)
			return nil
		})
	},
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectUser, "user", "u", "", "User id (required)")
	inspectCmd.Flags().IntVar(&inspectLast, "last", 20, "Show N most recent decisions")
	_ = inspectCmd.MarkFlagRequired("user")
}

// #region output

// printAudit writes a table of records, newest first, followed by per-phase counts.
func printAudit(w io.Writer, recs []logging.PhaseRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "no phase decisions recorded")
		return
	}
	fmt.Fprintf(w, "%-20s  %-8s  %-8s  %6s  %7s  %6s  %5s  %s\n",
		"Time", "Source", "Phase", "Stress", "Burnout", "Danger", "Chaos", "Flags")
	fmt.Fprintf(w, "%-20s+-%-8s+-%-8s+-%6s+-%7s+-%6s+-%5s+-%s\n",
		"--------------------", "--------", "--------", "------", "-------", "------", "-----", "-----")

	counts := map[string]int{}
	for _, r := range recs {
		flags := ""
		if r.Crisis {
			flags += "crisis "
		}
		if r.Retracted {
			flags += "retracted"
		}
		fmt.Fprintf(w, "%-20s  %-8s  %-8s  %6d  %7d  %6d  %5d  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.Source, r.Phase,
			r.Stress, r.Burnout, r.Danger, r.Chaos, flags)
		counts[r.Phase.String()]++
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(w, "\nPhases:\n")
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %d\n", name, counts[name])
	}
}

// #endregion output
