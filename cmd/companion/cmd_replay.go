package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/companion-core/internal/logging"
	"github.com/danielpatrickdp/companion-core/internal/phase"
	"github.com/danielpatrickdp/companion-core/internal/replay"
)

var (
	replayFixture string
	replayUser    string
	replayDays    int
	replayRecord  bool
)

// errDiverged is returned when a fixture replay does not match its expected phases.
var errDiverged = errors.New("replay diverged from expected results")

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay emotion logs through scoring and phase classification",
	Long: `Fixture mode (--fixture) replays a YAML or JSON fixture and compares each step with
its expected phase; a mismatch exits non-zero. DB mode (--user) replays a stored user's
log history and prints the phase timeline; --record writes it to the audit log.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (replayFixture == "") == (replayUser == "") {
			return errors.New("exactly one of --fixture or --user is required")
		}
		rc, err := replayConfig()
		if err != nil {
			return err
		}
		if replayFixture != "" {
			return runFixtureReplay(cmd.Context(), cmd.OutOrStdout(), replayFixture, rc)
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return runStoredReplay(ctx, cmd.OutOrStdout(), a, replayUser, replayDays, rc)
		})
	},
}

func init() {
	replayCmd.Flags().StringVarP(&replayFixture, "fixture", "f", "", "Fixture file (fixture mode)")
	replayCmd.Flags().StringVarP(&replayUser, "user", "u", "", "Stored user id (DB mode)")
	replayCmd.Flags().IntVar(&replayDays, "days", 30, "DB mode: days of history to replay")
	replayCmd.Flags().BoolVar(&replayRecord, "record", false, "DB mode: write each step to the audit log")
}

func replayConfig() (replay.Config, error) {
	riskCfg, err := cfg.Risk()
	if err != nil {
		return replay.Config{}, err
	}
	return replay.Config{Risk: riskCfg, Thresholds: cfg.Phase}, nil
}

// #region fixture-mode

func runFixtureReplay(ctx context.Context, w io.Writer, path string, rc replay.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f, err := replay.LoadFixture(path)
	if err != nil {
		return err
	}
	results, err := replay.Replay(ctx, f.Steps(), f.Profile.ToProfile(), rc)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(w, results)
	}
	if f.Description != "" {
		fmt.Fprintf(w, "%s\n\n", strings.TrimSpace(f.Description))
	}
	if len(f.ExpectedResults) == 0 {
		printTimeline(w, results)
		return nil
	}
	if printComparison(w, results, f.ExpectedResults) > 0 {
		return errDiverged
	}
	return nil
}

// printComparison writes the expected vs replayed table and returns the number of mismatches.
func printComparison(w io.Writer, results []replay.Result, expected []replay.FixtureExpectedResult) int {
	fmt.Fprintf(w, "%-12s| %-15s| %-15s| %s\n", "Step", "Expected", "Replayed", "Match")
	fmt.Fprintf(w, "%-12s+%-15s+%-15s+%s\n",
		"------------", "----------------", "----------------", "------")

	byID := make(map[string]replay.Result, len(results))
	for _, r := range results {
		byID[r.ID] = r
	}

	matches := 0
	for _, exp := range expected {
		got, ok := byID[exp.ID]
		replayed := "(missing)"
		match := "DIFF"
		if ok {
			replayed = got.Phase.String()
			if got.Prediction.Retracted {
				replayed += "*"
			}
			want, err := phase.Parse(exp.Phase)
			if err == nil && want == got.Phase && exp.Retracted == got.Prediction.Retracted {
				match = "OK"
				matches++
			}
		}
		wanted := strings.ToUpper(exp.Phase)
		if exp.Retracted {
			wanted += "*"
		}
		fmt.Fprintf(w, "%-12s| %-15s| %-15s| %s\n", exp.ID, wanted, replayed, match)
	}

	diverge := len(expected) - matches
	fmt.Fprintf(w, "\nSummary: %d total, %d match, %d diverge (* = retracted)\n", len(expected), matches, diverge)
	return diverge
}

// #endregion fixture-mode

// #region db-mode

func runStoredReplay(ctx context.Context, w io.Writer, a *app, userID string, days int, rc replay.Config) error {
	prof, err := a.store.Profiles.Get(ctx, userID)
	if err != nil {
		return err
	}
	entries, err := a.store.Emotions.Since(ctx, userID, timeNow().AddDate(0, 0, -days))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(w, "no emotion logs for %s in the last %d days\n", userID, days)
		return nil
	}
	steps := make([]replay.Step, len(entries))
	for i, e := range entries {
		steps[i] = replay.Step{ID: fmt.Sprintf("log-%d", i+1), Entry: e}
	}
	results, err := replay.Replay(ctx, steps, prof, rc)
	if err != nil {
		return err
	}

	if replayRecord {
		for _, r := range results {
			rec := logging.PhaseRecord{
				TurnID:    userID + "/" + r.ID,
				UserID:    userID,
				Source:    logging.SourceReplay,
				Phase:     r.Phase,
				Stress:    r.Prediction.Stress,
				Burnout:   r.Prediction.Burnout,
				Danger:    r.Prediction.Danger,
				Chaos:     r.Prediction.Chaos,
				Crisis:    r.Prediction.CrisisDetected,
				Retracted: r.Prediction.Retracted,
				Reasons:   r.Prediction.Explanations,
				CreatedAt: r.At,
			}
			if err := a.auditor.Record(ctx, rec); err != nil {
				return fmt.Errorf("record %s: %w", r.ID, err)
			}
		}
	}

	if jsonOut {
		return printJSON(w, results)
	}
	printTimeline(w, results)
	return nil
}

// #endregion db-mode

// printTimeline writes one row per replayed step and a short summary.
func printTimeline(w io.Writer, results []replay.Result) {
	fmt.Fprintf(w, "%-12s  %-20s  %-8s  %6s  %7s  %6s\n", "Step", "At", "Phase", "Stress", "Burnout", "Danger")
	for _, r := range results {
		fmt.Fprintf(w, "%-12s  %-20s  %-8s  %6d  %7d  %6d\n",
			r.ID, r.At.Format("2006-01-02 15:04"), r.Phase,
			r.Prediction.Stress, r.Prediction.Burnout, r.Prediction.Danger)
	}
	s := replay.Summarize(results)
	fmt.Fprintf(w, "\nSteps: %d | Transitions: %d | Final: %s", s.TotalSteps, s.Transitions, s.Final)
	if s.FirstCrisis != "" {
		fmt.Fprintf(w, " | First crisis: %s", s.FirstCrisis)
	}
	fmt.Fprintln(w)
}
