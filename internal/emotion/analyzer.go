package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/companion-core/internal/llm"
)

// #region keywords
// triggerWords force a full analysis even for very short messages.
var triggerWords = []string{
	"help", "die", "kill", "hurt", "sad", "bad", "depressed", "anxious", "scared", "afraid",
}

// minWords is the word count below which non-trigger text skips the model.
const minWords = 4

// #endregion keywords

// #region analyzer
// Analyzer converts raw user text into structured emotion data.
type Analyzer struct {
	gen    llm.Generator
	now    func() time.Time
	logger *zap.Logger
}

// NewAnalyzer creates an Analyzer. logger may be nil.
func NewAnalyzer(gen llm.Generator, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{gen: gen, now: time.Now, logger: logger}
}

// #endregion analyzer

// #region short-circuit
// ShouldSkip reports whether text is trivial enough to log as neutral without a model call.
func ShouldSkip(text string) bool {
	if len(strings.Fields(text)) >= minWords {
		return false
	}
	lower := strings.ToLower(text)
	for _, w := range triggerWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return true
}

// Neutral builds a neutral entry that still carries the raw text.
func Neutral(text, summary string, at time.Time) Entry {
	return Entry{
		Timestamp: at.UTC(),
		RawText:   text,
		Tags:      []string{},
		Severity:  0,
		Stability: 5,
		Summary:   summary,
	}
}

// #endregion short-circuit

// #region entry
// NewEntry analyzes text and stamps the result. Trivial text short-circuits to a
// neutral entry. Any analysis error is returned unchanged so callers can choose a fallback.
func (a *Analyzer) NewEntry(ctx context.Context, text string) (Entry, error) {
	if strings.TrimSpace(text) == "" {
		return Entry{}, ErrEmptyText
	}
	now := a.now()
	if ShouldSkip(text) {
		a.logger.Debug("short input, skipping analysis", zap.Int("words", len(strings.Fields(text))))
		return Neutral(text, SummaryShortInput, now), nil
	}
	an, err := a.Analyze(ctx, text)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Timestamp: now.UTC(),
		RawText:   text,
		Tags:      an.Tags,
		Severity:  an.Severity,
		Stability: an.Stability,
		Summary:   an.Summary,
	}, nil
}

// #endregion entry

// #region analyze
// Analyze asks the model for tags, severity, stability and summary.
func (a *Analyzer) Analyze(ctx context.Context, text string) (Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return Analysis{}, ErrEmptyText
	}
	out, err := a.gen.Generate(ctx, buildPrompt(text))
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze emotion: %w", err)
	}
	return ParseAnalysis(out)
}

func buildPrompt(text string) string {
	return fmt.Sprintf(`Analyze the emotional content of the message below.
Return ONLY a JSON object matching this schema:
%s

Rules:
- severity: 0 (no distress) to 10 (extreme distress).
- stability: 0 (very unstable) to 10 (very steady).
- emotion_tags: short lowercase words.

Message:
%q
`, llm.SchemaFor[Analysis](), text)
}

// #endregion analyze

// #region parse
type rawAnalysis struct {
	Tags      *tagList   `json:"emotion_tags"`
	Severity  *flexFloat `json:"severity"`
	Stability *flexFloat `json:"stability"`
	Summary   *string    `json:"summary"`
}

// ParseAnalysis decodes model output, coercing tags to a normalized list and
// clamping severity and stability to [0,10]. Missing keys yield ErrMalformed.
func ParseAnalysis(out string) (Analysis, error) {
	var raw rawAnalysis
	if err := llm.DecodeJSON(out, &raw); err != nil {
		return Analysis{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	switch {
	case raw.Tags == nil:
		return Analysis{}, fmt.Errorf("%w: missing emotion_tags", ErrMalformed)
	case raw.Severity == nil:
		return Analysis{}, fmt.Errorf("%w: missing severity", ErrMalformed)
	case raw.Stability == nil:
		return Analysis{}, fmt.Errorf("%w: missing stability", ErrMalformed)
	case raw.Summary == nil:
		return Analysis{}, fmt.Errorf("%w: missing summary", ErrMalformed)
	}
	return Analysis{
		Tags:      normalizeTags(*raw.Tags),
		Severity:  Clamp10(float64(*raw.Severity)),
		Stability: Clamp10(float64(*raw.Stability)),
		Summary:   strings.TrimSpace(*raw.Summary),
	}, nil
}

// Clamp10 bounds v to [0,10]; NaN becomes 0.
func Clamp10(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(10, v))
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// tagList accepts either a JSON array of strings or a single comma-separated string.
type tagList []string

func (t *tagList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = strings.Split(s, ",")
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*t = list
	return nil
}

// flexFloat accepts a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// #endregion parse
