package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/danielpatrickdp/companion-core/internal/chat"
	"github.com/danielpatrickdp/companion-core/internal/emotion"
	"github.com/danielpatrickdp/companion-core/internal/logging"
	"github.com/danielpatrickdp/companion-core/internal/phase"
	"github.com/danielpatrickdp/companion-core/internal/profile"
	"github.com/danielpatrickdp/companion-core/internal/risk"
	"github.com/danielpatrickdp/companion-core/internal/session"
	"github.com/danielpatrickdp/companion-core/internal/suggest"
)

// #region mocks

type memChat struct {
	turns map[string][]chat.Turn
}

func (m *memChat) Append(_ context.Context, userID string, t chat.Turn) error {
	if m.turns == nil {
		m.turns = map[string][]chat.Turn{}
	}
	m.turns[userID] = append(m.turns[userID], t)
	return nil
}

func (m *memChat) Recent(_ context.Context, userID string, limit int) ([]chat.Turn, error) {
	return chat.Last(m.turns[userID], limit), nil
}

type memEmotions struct {
	entries []emotion.Entry
}

func (m *memEmotions) Append(_ context.Context, _ string, e emotion.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memEmotions) Since(context.Context, string, time.Time) ([]emotion.Entry, error) {
	return m.entries, nil
}

type fixedProfiles struct{ prof *profile.Profile }

func (f fixedProfiles) Get(context.Context, string) (*profile.Profile, error) { return f.prof, nil }

type mockAnalyzer struct{ err error }

func (m mockAnalyzer) NewEntry(_ context.Context, text string) (emotion.Entry, error) {
	if m.err != nil {
		return emotion.Entry{}, m.err
	}
	return emotion.Entry{Timestamp: time.Now().UTC(), RawText: text, Tags: []string{"sad"}, Severity: 6, Stability: 4, Summary: "Sad"}, nil
}

type mockPredictor struct {
	pred     risk.Prediction
	err      error
	requests []risk.Request
}

func (m *mockPredictor) PredictAll(_ context.Context, req risk.Request) (risk.Prediction, error) {
	m.requests = append(m.requests, req)
	return m.pred, m.err
}

type mockSuggester struct {
	inputs []suggest.Input
	err    error
}

func (m *mockSuggester) Suggest(_ context.Context, in suggest.Input) (suggest.Result, error) {
	m.inputs = append(m.inputs, in)
	if m.err != nil {
		return suggest.Result{}, m.err
	}
	return suggest.Result{Phase: in.Phase, Suggestions: suggest.Fallback(in.Phase, in.Num)}, nil
}

type mockReports struct{ calls int }

func (m *mockReports) Update(_ context.Context, current session.Report, userMsg, _ string) session.Report {
	m.calls++
	current.Topics = append(current.Topics, userMsg)
	return current
}

type mockAudit struct{ recs []logging.PhaseRecord }

func (m *mockAudit) Record(_ context.Context, rec logging.PhaseRecord) error {
	m.recs = append(m.recs, rec)
	return nil
}

type mockOutlook struct{ histories [][]chat.Turn }

func (m *mockOutlook) PredictiveAnalysis(_ context.Context, history []chat.Turn, _ risk.Prediction) string {
	m.histories = append(m.histories, history)
	return "SHORT-TERM: poorer sleep\nLONG-TERM: chronic stress"
}

type scriptGen struct {
	replies []string
	err     error
	prompts []string
}

func (g *scriptGen) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if len(g.replies) == 0 {
		return "I'm listening.", nil
	}
	r := g.replies[0]
	if len(g.replies) > 1 {
		g.replies = g.replies[1:]
	}
	return r, nil
}

type harness struct {
	orch      *Orchestrator
	chat      *memChat
	emotions  *memEmotions
	predictor *mockPredictor
	suggester *mockSuggester
	reports   *mockReports
	audit     *mockAudit
	outlook   *mockOutlook
	gen       *scriptGen
}

func newHarness(pred risk.Prediction, gen *scriptGen, analyzerErr error) *harness {
	h := &harness{
		chat:      &memChat{},
		emotions:  &memEmotions{},
		predictor: &mockPredictor{pred: pred},
		suggester: &mockSuggester{},
		reports:   &mockReports{},
		audit:     &mockAudit{},
		outlook:   &mockOutlook{},
		gen:       gen,
	}
	h.orch = New(Deps{
		Chat:      h.chat,
		Emotions:  h.emotions,
		Profiles:  fixedProfiles{prof: &profile.Profile{Name: "Sam", Hobbies: []string{"climbing"}}},
		Analyzer:  mockAnalyzer{err: analyzerErr},
		Predictor: h.predictor,
		Suggester: h.suggester,
		Outlook:   h.outlook,
		Sessions:  session.NewManager(session.NewMemoryStore(session.DefaultConfig()), nil),
		Reports:   h.reports,
		Audit:     h.audit,
		Gen:       gen,
	}, DefaultConfig(), phase.DefaultThresholds(), nil)
	return h
}

// #endregion mocks

// #region pipeline-tests

func TestProcessMessage_EmptyMessage(t *testing.T) {
	h := newHarness(risk.Prediction{}, &scriptGen{}, nil)

	_, err := h.orch.ProcessMessage(context.Background(), "u1", "   ")
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if len(h.chat.turns["u1"]) != 0 || len(h.emotions.entries) != 0 {
		t.Fatal("nothing should be persisted for an empty message")
	}
}

func TestProcessMessage_FullPipeline(t *testing.T) {
	pred := risk.Prediction{Stress: 65, Burnout: 20, Explanations: map[string]string{"stress": "high"}}
	h := newHarness(pred, &scriptGen{replies: []string{"That sounds really heavy, Sam."}}, nil)

	resp, err := h.orch.ProcessMessage(context.Background(), "u1", "work has been crushing me all week")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Phase != phase.Hurt || resp.Strategy != StrategyComfort {
		t.Fatalf("expected HURT/comfort, got %s/%s", resp.Phase, resp.Strategy)
	}
	if resp.Text != "That sounds really heavy, Sam." {
		t.Errorf("unexpected reply %q", resp.Text)
	}
	if len(resp.Suggestions) != 2 {
		t.Errorf("expected 2 suggestions, got %d", len(resp.Suggestions))
	}
	if resp.Emotion.Summary != "Sad" {
		t.Errorf("unexpected emotion %+v", resp.Emotion)
	}

	turns := h.chat.turns["u1"]
	if len(turns) != 2 || turns[0].Role != chat.RoleUser || turns[1].Role != chat.RoleSystem {
		t.Fatalf("expected user then system turn, got %+v", turns)
	}
	if turns[1].Metadata["phase"] != "HURT" {
		t.Errorf("system turn metadata = %v", turns[1].Metadata)
	}
	if len(h.emotions.entries) != 1 {
		t.Errorf("expected one emotion entry, got %d", len(h.emotions.entries))
	}

	if len(h.audit.recs) != 1 {
		t.Fatalf("expected one audit row, got %d", len(h.audit.recs))
	}
	rec := h.audit.recs[0]
	if rec.Phase != phase.Hurt || rec.TurnID != turns[0].ID || rec.Source != logging.SourceChat {
		t.Errorf("unexpected audit record %+v", rec)
	}

	if h.reports.calls != 1 || len(resp.Session.Topics) == 0 {
		t.Errorf("expected report refresh, calls=%d report=%+v", h.reports.calls, resp.Session)
	}
	prompt := h.gen.prompts[0]
	if strings.Count(prompt, "User: work has been crushing me all week") != 1 {
		t.Errorf("current message should appear exactly once in prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Hobbies: climbing") {
		t.Error("prompt should include profile hobbies")
	}
}

func TestProcessMessage_StableOffersNoSuggestions(t *testing.T) {
	h := newHarness(risk.Prediction{Stress: 10}, &scriptGen{}, nil)

	resp, err := h.orch.ProcessMessage(context.Background(), "u1", "had a pretty good day actually")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Phase != phase.Stable || len(resp.Suggestions) != 0 || len(h.suggester.inputs) != 0 {
		t.Fatalf("stable turn should not request suggestions: %+v", resp)
	}
}

func TestProcessMessage_GenerationFailureFallsBack(t *testing.T) {
	h := newHarness(risk.Prediction{}, &scriptGen{err: errors.New("quota exhausted")}, nil)

	resp, err := h.orch.ProcessMessage(context.Background(), "u1", "hello there my friend")
	if err != nil {
		t.Fatalf("generation failure must not surface: %v", err)
	}
	if resp.Text != FallbackReply {
		t.Errorf("expected fallback reply, got %q", resp.Text)
	}
	if got := h.chat.turns["u1"][1].Content; got != FallbackReply {
		t.Errorf("fallback should be stored as the system turn, got %q", got)
	}
}

func TestProcessMessage_CrisisAddsResources(t *testing.T) {
	pred := risk.Prediction{Danger: 100, CrisisDetected: true}
	h := newHarness(pred, &scriptGen{replies: []string{"I'm right here with you."}}, nil)

	resp, err := h.orch.ProcessMessage(context.Background(), "u1", "i want to die")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Phase != phase.Crisis {
		t.Fatalf("expected CRISIS, got %s", resp.Phase)
	}
	if !strings.HasSuffix(resp.Text, CrisisResourceLine) {
		t.Errorf("crisis reply must carry a resource line: %q", resp.Text)
	}
	if len(h.suggester.inputs) != 1 || h.suggester.inputs[0].Num != 3 || h.suggester.inputs[0].Phase != phase.Crisis {
		t.Errorf("unexpected suggestion request %+v", h.suggester.inputs)
	}
	if !h.audit.recs[0].Crisis {
		t.Error("audit row should carry the crisis flag")
	}
}

func TestProcessMessage_AnalysisFailureLogsNeutral(t *testing.T) {
	h := newHarness(risk.Prediction{}, &scriptGen{}, errors.New("model down"))

	resp, err := h.orch.ProcessMessage(context.Background(), "u1", "everything feels pointless lately")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Emotion.Summary != "Neutral (Analysis Failed)" || resp.Emotion.Stability != 5 {
		t.Errorf("unexpected fallback entry %+v", resp.Emotion)
	}
	if h.emotions.entries[0].RawText != "everything feels pointless lately" {
		t.Error("fallback entry must keep the raw text")
	}
}

func TestProcessMessage_EfficientModeLoadsHistoryEveryThird(t *testing.T) {
	h := newHarness(risk.Prediction{}, &scriptGen{}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := h.orch.ProcessMessage(ctx, "u1", "just another message here"); err != nil {
			t.Fatalf("message %d: %v", i+1, err)
		}
	}
	reqs := h.predictor.requests
	if len(reqs) != 3 {
		t.Fatalf("expected 3 predictions, got %d", len(reqs))
	}
	if reqs[0].History != nil || reqs[1].History != nil {
		t.Error("history should be skipped on messages 1 and 2")
	}
	if len(reqs[2].History) == 0 {
		t.Error("history should be loaded on message 3")
	}
	if reqs[2].Session == nil {
		t.Error("session report should be passed to the predictor")
	}
}

func TestProcessMessage_OutlookFollowsHistoryCadence(t *testing.T) {
	h := newHarness(risk.Prediction{Stress: 30}, &scriptGen{}, nil)
	ctx := context.Background()

	var firstPrompt string
	for i := 0; i < 3; i++ {
		if _, err := h.orch.ProcessMessage(ctx, "u1", "deadlines keep piling up at work"); err != nil {
			t.Fatalf("message %d: %v", i+1, err)
		}
		if i == 0 {
			firstPrompt = h.gen.prompts[len(h.gen.prompts)-1]
		}
	}
	if len(h.outlook.histories) != 1 || len(h.outlook.histories[0]) == 0 {
		t.Fatalf("expected one outlook over loaded history, got %d calls", len(h.outlook.histories))
	}
	if strings.Contains(firstPrompt, "Predictive Analysis") {
		t.Error("outlook should be absent before history is loaded")
	}
	last := h.gen.prompts[len(h.gen.prompts)-1]
	if !strings.Contains(last, "Predictive Analysis (if current patterns continue):\nSHORT-TERM: poorer sleep") {
		t.Errorf("third prompt should carry the outlook:\n%s", last)
	}
}

func TestProcessMessage_RetractionActivatesProtocol(t *testing.T) {
	h := newHarness(risk.Prediction{Danger: 10, Retracted: true}, &scriptGen{}, nil)

	if _, err := h.orch.ProcessMessage(context.Background(), "u1", "i was just joking about that"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(h.gen.prompts[0], "Joke Retraction Protocol: ACTIVE") {
		t.Error("retraction should activate the protocol")
	}
	if !h.audit.recs[0].Retracted {
		t.Error("audit row should carry the retraction flag")
	}
}

func TestProcessMessage_PhaseLeakRegeneratedOnce(t *testing.T) {
	gen := &scriptGen{replies: []string{"You are in the HURT phase right now.", "That sounds exhausting."}}
	h := newHarness(risk.Prediction{Stress: 65}, gen, nil)

	resp, err := h.orch.ProcessMessage(context.Background(), "u1", "i am so tired of everything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gen.prompts) != 2 {
		t.Fatalf("expected one regeneration, got %d prompts", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[1], retryModifier) {
		t.Error("regeneration prompt should carry the retry modifier")
	}
	if resp.Text != "That sounds exhausting." {
		t.Errorf("expected the regenerated reply, got %q", resp.Text)
	}
}

func TestProcessMessage_SeriousTopicActivatesProtocol(t *testing.T) {
	h := newHarness(risk.Prediction{}, &scriptGen{}, nil)

	if _, err := h.orch.ProcessMessage(context.Background(), "u1", "i got so high last night and felt amazing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(h.gen.prompts[0], "Serious Topics Protocol: ACTIVE (substance)") {
		t.Errorf("substance mention should activate the protocol:\n%s", h.gen.prompts[0])
	}
}

func TestProcessMessage_PredictorErrorPropagates(t *testing.T) {
	h := newHarness(risk.Prediction{}, &scriptGen{}, nil)
	h.predictor.err = errors.New("db locked")

	if _, err := h.orch.ProcessMessage(context.Background(), "u1", "hello there my friend"); err == nil {
		t.Fatal("expected storage error to propagate")
	}
}

func TestProcessMessage_SuggestionFailureIsAdvisory(t *testing.T) {
	h := newHarness(risk.Prediction{Stress: 45}, &scriptGen{}, nil)
	h.suggester.err = errors.New("boom")

	resp, err := h.orch.ProcessMessage(context.Background(), "u1", "a bit stressed about exams")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Phase != phase.AtRisk || len(resp.Suggestions) != 0 {
		t.Errorf("expected AT_RISK with no suggestions, got %s with %d", resp.Phase, len(resp.Suggestions))
	}
}

// #endregion pipeline-tests
