package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/companion-core/internal/api"
	"github.com/danielpatrickdp/companion-core/internal/chaos"
	"github.com/danielpatrickdp/companion-core/internal/phase"
	"github.com/danielpatrickdp/companion-core/internal/risk"
	"github.com/danielpatrickdp/companion-core/internal/suggest"
)

var (
	predictWorkers int
	predictImpact  bool
)

var predictCmd = &cobra.Command{
	Use:   "predict USER_ID...",
	Short: "Score one or more users and classify their phase",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			rows, err := predictUsers(ctx, a.predictor, a.cfg.Phase, args, predictWorkers)
			if err != nil {
				return err
			}
			if predictImpact {
				if err := attachImpact(ctx, rows, a.forecaster, a.store.Chat); err != nil {
					return err
				}
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			printPredictions(cmd.OutOrStdout(), rows)
			return nil
		})
	},
}

func init() {
	predictCmd.Flags().IntVar(&predictWorkers, "workers", 4, "Users scored concurrently")
	predictCmd.Flags().BoolVar(&predictImpact, "impact", false, "Forecast the 7/30/60-day impact of each user's chaos score")
}

// #region fan-out

// userPrediction is one row of predict output.
type userPrediction struct {
	UserID     string          `json:"user_id"`
	Phase      phase.Phase     `json:"phase"`
	Prediction risk.Prediction `json:"prediction"`
	Impact     *chaos.Impact   `json:"impact,omitempty"`
}

// predictUsers scores every user with at most workers predictions in flight. Results keep the
// order of userIDs; the first error cancels the rest.
func predictUsers(ctx context.Context, p suggest.Predictor, th phase.Thresholds, userIDs []string, workers int) ([]userPrediction, error) {
	if workers < 1 {
		workers = 1
	}
	rows := make([]userPrediction, len(userIDs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range userIDs {
		g.Go(func() error {
			pred, err := p.PredictAll(ctx, risk.Request{UserID: id})
			if err != nil {
				return fmt.Errorf("predict %s: %w", id, err)
			}
			rows[i] = userPrediction{
				UserID:     id,
				Phase:      th.Classify(pred.Stress, pred.Burnout, pred.Danger, pred.CrisisDetected),
				Prediction: pred,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// #endregion fan-out

// attachImpact forecasts each row from its chaos score and the user's recent chat.
func attachImpact(ctx context.Context, rows []userPrediction, f api.ImpactForecaster, history api.ChatHistory) error {
	for i := range rows {
		turns, err := history.Recent(ctx, rows[i].UserID, impactHistory)
		if err != nil {
			return fmt.Errorf("chat history %s: %w", rows[i].UserID, err)
		}
		p := rows[i].Prediction
		imp := f.PredictImpact(ctx, p.Chaos, p.Explanations["chaos"], turns)
		rows[i].Impact = &imp
	}
	return nil
}

const impactHistory = 20

func printPredictions(w io.Writer, rows []userPrediction) {
	fmt.Fprintf(w, "%-16s  %-8s  %6s  %7s  %6s  %5s  %-6s  %s\n",
		"User", "Phase", "Stress", "Burnout", "Danger", "Chaos", "Crisis", "Trend 7d/30d")
	for _, r := range rows {
		p := r.Prediction
		fmt.Fprintf(w, "%-16s  %-8s  %6d  %7d  %6d  %5d  %-6v  %s/%s\n",
			r.UserID, r.Phase, p.Stress, p.Burnout, p.Danger, p.Chaos, p.CrisisDetected,
			p.Trend.SevenDay, p.Trend.ThirtyDay)
		if r.Impact != nil {
			fmt.Fprintf(w, "  7 days:  %s\n  30 days: %s\n  60 days: %s\n",
				r.Impact.SevenDays, r.Impact.ThirtyDays, r.Impact.SixtyDays)
		}
	}
}
