// Package consolidate extracts durable facts from conversation and stores them on the profile.
package consolidate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/companion-core/internal/chat"
	"github.com/danielpatrickdp/companion-core/internal/llm"
	"github.com/danielpatrickdp/companion-core/internal/pii"
	"github.com/danielpatrickdp/companion-core/internal/profile"
)

// ProfileStore reads and merges profiles.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
	Update(ctx context.Context, userID string, partial map[string]any) (*profile.Profile, error)
}

// Consolidator turns transcripts into important_memories entries.
type Consolidator struct {
	gen      llm.Generator
	profiles ProfileStore
	cfg      Config
	now      func() time.Time
	logger   *zap.Logger
}

// New wires a Consolidator.
func New(gen llm.Generator, profiles ProfileStore, cfg Config, logger *zap.Logger) *Consolidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consolidator{gen: gen, profiles: profiles, cfg: cfg, now: time.Now, logger: logger}
}

// #region consolidate
// FromTranscript extracts facts from turns, filters them and, unless dryRun, merges the kept
// ones into the user's profile. A missing profile is never created.
func (c *Consolidator) FromTranscript(ctx context.Context, userID string, turns []chat.Turn, dryRun bool) (Result, error) {
	if len(turns) == 0 {
		return Result{}, ErrEmptyTranscript
	}
	ext, err := c.Extract(ctx, transcript(turns))
	if err != nil {
		return Result{}, err
	}

	prof, err := c.profiles.Get(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("load profile: %w", err)
	}
	res := c.filter(ext, prof)
	res.DryRun = dryRun

	if dryRun || len(res.Added) == 0 {
		return res, nil
	}
	if prof == nil {
		c.logger.Warn("no profile to consolidate into", zap.String("user", userID), zap.Int("facts", len(res.Added)))
		return res, nil
	}
	if _, err := c.profiles.Update(ctx, userID, map[string]any{"important_memories": res.Added}); err != nil {
		return Result{}, fmt.Errorf("store memories: %w", err)
	}
	res.Persisted = true
	c.logger.Info("memories consolidated",
		zap.String("user", userID),
		zap.Int("added", len(res.Added)),
		zap.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}

// Extract masks contact details in text and asks the model for durable facts.
func (c *Consolidator) Extract(ctx context.Context, text string) (Extraction, error) {
	out, err := c.gen.Generate(ctx, c.prompt(pii.Mask(text)))
	if err != nil {
		return Extraction{}, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	var ext Extraction
	if err := llm.DecodeJSON(out, &ext); err != nil {
		return Extraction{}, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	return ext, nil
}

// #endregion consolidate

// #region filter
func (c *Consolidator) filter(ext Extraction, prof *profile.Profile) Result {
	seen := map[string]bool{}
	if prof != nil {
		for _, m := range prof.ImportantMemories {
			seen[strings.ToLower(strings.TrimSpace(m.Text))] = true
		}
	}

	now := c.now().UTC()
	res := Result{Added: []profile.Memory{}, Skipped: []Skipped{}, Notes: ext.Notes}
	for _, cat := range ext.categories() {
		for _, item := range cat.items {
			text := truncate(pii.Mask(strings.TrimSpace(item.Text)), c.cfg.MaxTextLen)
			switch {
			case text == "":
				res.Skipped = append(res.Skipped, Skipped{Type: cat.kind, Reason: SkipEmpty})
				continue
			case item.Confidence < c.cfg.MinConfidence:
				res.Skipped = append(res.Skipped, Skipped{Type: cat.kind, Text: text, Reason: SkipLowConfidence})
				continue
			case seen[strings.ToLower(text)]:
				res.Skipped = append(res.Skipped, Skipped{Type: cat.kind, Text: text, Reason: SkipDuplicate})
				continue
			}
			seen[strings.ToLower(text)] = true
			res.Added = append(res.Added, profile.Memory{
				Type:       cat.kind,
				Text:       text,
				Confidence: item.Confidence,
				Timestamp:  now,
			})
		}
	}
	return res
}

func truncate(s string, n int) string {
	if n <= 0 || len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// #endregion filter

// #region prompt
func transcript(turns []chat.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}
	return b.String()
}

func (c *Consolidator) prompt(text string) string {
	return fmt.Sprintf(`You extract ONLY permanent, durable facts from a user's conversation transcript.

Rules:
- Do NOT extract casual or ephemeral items (like "I ate pizza today"). Only extract identity-level facts, traumas, major life events, fears, long-term goals and meaningful hobbies.
- Do NOT output phone numbers, emails, addresses or other direct personal identifiers. Replace any with "[REDACTED]".
- Give each item a confidence between 0.0 and 1.0. Only items with confidence >= %.2f will be stored.
- Keep each text under %d characters.
- Use empty arrays when there is nothing to extract.

Return ONLY a JSON object matching this schema:
%s

Transcript to analyze:
%s`, c.cfg.MinConfidence, c.cfg.MaxTextLen, llm.SchemaFor[Extraction](), text)
}

// #endregion prompt
