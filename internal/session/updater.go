package session

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/companion-core/internal/llm"
)

// ReportUpdater refreshes a Report from the latest exchange using the generator.
type ReportUpdater struct {
	gen    llm.Generator
	logger *zap.Logger
}

// NewReportUpdater returns an updater backed by gen.
func NewReportUpdater(gen llm.Generator, logger *zap.Logger) *ReportUpdater {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportUpdater{gen: gen, logger: logger}
}

// Update returns the refreshed report, or current unchanged when generation or parsing fails.
func (u *ReportUpdater) Update(ctx context.Context, current Report, userMsg, reply string) Report {
	cur, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return current
	}
	prompt := fmt.Sprintf(`Update the following Session Report based on the new interaction.

Current Report:
%s

New Interaction:
User: %s
Companion: %s

Return ONLY a JSON object matching this schema:
%s

Guidelines:
- Topics: keep this list short (3-5 items). Remove topics no longer relevant to the current conversation.
- Immediate Needs: focus on what the user needs right now (e.g. "Crisis Intervention", "Validation").`,
		cur, userMsg, reply, llm.SchemaFor[Report]())

	out, err := u.gen.Generate(ctx, prompt)
	if err != nil {
		u.logger.Warn("session report update failed", zap.Error(err))
		return current
	}
	var raw map[string]json.RawMessage
	if err := llm.DecodeJSON(out, &raw); err != nil {
		u.logger.Warn("session report unparseable", zap.Error(err))
		return current
	}
	if _, ok := raw["topics"]; !ok {
		u.logger.Warn("session report missing topics")
		return current
	}
	next := NewReport()
	if err := llm.DecodeJSON(out, &next); err != nil {
		u.logger.Warn("session report invalid", zap.Error(err))
		return current
	}
	return next
}
