package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/companion-core/internal/chaos"
	"github.com/danielpatrickdp/companion-core/internal/consolidate"
	"github.com/danielpatrickdp/companion-core/internal/emotion"
	"github.com/danielpatrickdp/companion-core/internal/feedback"
	"github.com/danielpatrickdp/companion-core/internal/llm"
	"github.com/danielpatrickdp/companion-core/internal/logging"
	"github.com/danielpatrickdp/companion-core/internal/orchestrator"
	"github.com/danielpatrickdp/companion-core/internal/profile"
	"github.com/danielpatrickdp/companion-core/internal/risk"
	"github.com/danielpatrickdp/companion-core/internal/session"
	"github.com/danielpatrickdp/companion-core/internal/store"
	"github.com/danielpatrickdp/companion-core/internal/suggest"
)

// #region requests

type logRequest struct {
	Text string `json:"text" binding:"required"`
}

type interactRequest struct {
	Message string `json:"message" binding:"required"`
}

type feedbackRequest struct {
	SuggestionID string          `json:"suggestion_id"`
	Action       feedback.Action `json:"action"`
	Rating       *int            `json:"rating"`
	Meta         feedback.Meta   `json:"meta"`
}

type batchRequest struct {
	UserIDs []string `json:"user_ids" binding:"required"`
}

type predictionWithImpact struct {
	risk.Prediction
	Impact chaos.Impact `json:"impact"`
}

// profileFields are the keys PATCH /profile accepts.
var profileFields = map[string]bool{
	"name": true, "age": true, "hobbies": true, "likes": true, "dislikes": true,
	"goals": true, "personal_notes": true, "fears": true, "personality_traits": true,
}

const (
	defaultSuggestions = 3
	defaultLogDays     = 30
	defaultChatLimit   = 20
	maxListLimit       = 200
	consolidateWindow  = 50
	maxBatchUsers      = 50
	batchParallelism   = 4
)

// #endregion requests

// #region profile

func (s *Server) createProfile(c *gin.Context) {
	userID := c.Param("user_id")
	var prof profile.Profile
	if err := c.ShouldBindJSON(&prof); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(prof.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if err := s.deps.Profiles.Create(c.Request.Context(), userID, prof); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Profile created successfully", "user_id": userID})
}

func (s *Server) getProfile(c *gin.Context) {
	prof, err := s.deps.Profiles.Get(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if prof == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	c.JSON(http.StatusOK, prof)
}

// updateProfile merges the body into the stored profile. List fields append unique items.
func (s *Server) updateProfile(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	partial := make(map[string]any, len(body))
	for k, v := range body {
		if !profileFields[k] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown profile field: " + k})
			return
		}
		if v != nil {
			partial[k] = v
		}
	}
	if len(partial) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No data provided for update"})
		return
	}
	prof, err := s.deps.Profiles.Update(c.Request.Context(), c.Param("user_id"), partial)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prof)
}

// #endregion profile

// #region emotion-log

// addLog analyzes the text and appends the entry. A failed analysis is stored as neutral.
func (s *Server) addLog(c *gin.Context) {
	userID := c.Param("user_id")
	var req logRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !s.requireProfile(c, userID) {
		return
	}
	ctx := c.Request.Context()
	entry, err := s.deps.Analyzer.NewEntry(ctx, req.Text)
	if errors.Is(err, emotion.ErrEmptyText) {
		s.fail(c, err)
		return
	}
	if err != nil {
		s.logger.Warn("emotion analysis failed", zap.String("user", userID), zap.Error(err))
		entry = emotion.Neutral(req.Text, emotion.SummaryAnalysisFailed, s.now())
	}
	if err := s.deps.Emotions.Append(ctx, userID, entry); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) listLogs(c *gin.Context) {
	days, ok := intQuery(c, "days", defaultLogDays, 1, 3650)
	if !ok {
		return
	}
	logs, err := s.deps.Emotions.Since(c.Request.Context(), c.Param("user_id"), s.now().AddDate(0, 0, -days))
	if err != nil {
		s.fail(c, err)
		return
	}
	if logs == nil {
		logs = []emotion.Entry{}
	}
	c.JSON(http.StatusOK, logs)
}

// #endregion emotion-log

// #region predict

func (s *Server) predict(c *gin.Context) {
	userID := c.Param("user_id")
	withImpact, err := strconv.ParseBool(c.DefaultQuery("impact", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "impact must be a boolean"})
		return
	}
	if withImpact && s.deps.Impact == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "impact forecasting is not configured"})
		return
	}
	if !s.requireProfile(c, userID) {
		return
	}
	ctx := c.Request.Context()
	pred, err := s.deps.Predictor.PredictAll(ctx, risk.Request{UserID: userID, Session: s.report(c, userID)})
	if err != nil {
		s.fail(c, err)
		return
	}
	if !withImpact {
		c.JSON(http.StatusOK, pred)
		return
	}

	turns, err := s.deps.Chat.Recent(ctx, userID, defaultChatLimit)
	if err != nil {
		s.fail(c, err)
		return
	}
	imp := s.deps.Impact.PredictImpact(ctx, pred.Chaos, pred.Explanations["chaos"], turns)
	c.JSON(http.StatusOK, predictionWithImpact{Prediction: pred, Impact: imp})
}

// predictBatch scores several users concurrently. Unknown users get the no-data prediction.
func (s *Server) predictBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.UserIDs) == 0 || len(req.UserIDs) > maxBatchUsers {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_ids must hold between 1 and " + strconv.Itoa(maxBatchUsers) + " ids"})
		return
	}

	preds := make([]risk.Prediction, len(req.UserIDs))
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.SetLimit(batchParallelism)
	for i, id := range req.UserIDs {
		g.Go(func() error {
			p, err := s.deps.Predictor.PredictAll(ctx, risk.Request{UserID: id})
			if err != nil {
				return err
			}
			preds[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.fail(c, err)
		return
	}

	out := make(map[string]risk.Prediction, len(req.UserIDs))
	for i, id := range req.UserIDs {
		out[id] = preds[i]
	}
	c.JSON(http.StatusOK, gin.H{"predictions": out})
}

func (s *Server) suggest(c *gin.Context) {
	userID := c.Param("user_id")
	num, ok := intQuery(c, "num", defaultSuggestions, suggest.MinCount, suggest.MaxCount)
	if !ok {
		return
	}
	if !s.requireProfile(c, userID) {
		return
	}
	ctx := c.Request.Context()
	res, err := s.deps.Suggester.SuggestForUser(ctx, userID, num, s.report(c, userID))
	if err != nil {
		s.fail(c, err)
		return
	}
	if s.deps.Audit != nil {
		rec := logging.PhaseRecord{
			UserID:  userID,
			Source:  logging.SourceSuggest,
			Phase:   res.Phase,
			Stress:  res.Scores.Stress,
			Burnout: res.Scores.Burnout,
			Danger:  res.Scores.Danger,
			Crisis:  res.Urgent,
			Reasons: res.Explanations,
		}
		if err := s.deps.Audit.Record(ctx, rec); err != nil {
			s.logger.Warn("audit write failed", zap.String("user", userID), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, res)
}

// #endregion predict

// #region chat

func (s *Server) chatHistory(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultChatLimit, 1, maxListLimit)
	if !ok {
		return
	}
	turns, err := s.deps.Chat.Recent(c.Request.Context(), c.Param("user_id"), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, turns)
}

func (s *Server) interact(c *gin.Context) {
	userID := c.Param("user_id")
	var req interactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !s.requireProfile(c, userID) {
		return
	}
	resp, err := s.deps.Conversation.ProcessMessage(c.Request.Context(), userID, req.Message)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// #endregion chat

// #region feedback

func (s *Server) logFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := s.deps.Feedback.LogInteraction(c.Request.Context(), c.Param("user_id"),
		req.SuggestionID, req.Action, req.Meta, req.Rating)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) feedbackStats(c *gin.Context) {
	prefs, err := s.deps.Feedback.Preferences(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// #endregion feedback

// #region memory

// consolidate extracts durable facts from the last turns. ?dry_run=true plans without writing.
func (s *Server) consolidate(c *gin.Context) {
	if s.deps.Consolidator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "consolidation is not configured"})
		return
	}
	userID := c.Param("user_id")
	dryRun, err := strconv.ParseBool(c.DefaultQuery("dry_run", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dry_run must be a boolean"})
		return
	}
	if !s.requireProfile(c, userID) {
		return
	}
	ctx := c.Request.Context()
	turns, err := s.deps.Chat.Recent(ctx, userID, consolidateWindow)
	if err != nil {
		s.fail(c, err)
		return
	}
	if len(turns) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No recent chat history to consolidate."})
		return
	}
	res, err := s.deps.Consolidator.FromTranscript(ctx, userID, turns, dryRun)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) audit(c *gin.Context) {
	if s.deps.Audit == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit log is not configured"})
		return
	}
	limit, ok := intQuery(c, "limit", defaultChatLimit, 1, maxListLimit)
	if !ok {
		return
	}
	recs, err := s.deps.Audit.Recent(c.Request.Context(), c.Param("user_id"), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// #endregion memory

// #region helpers

// requireProfile writes 404 and returns false when the user has no profile.
func (s *Server) requireProfile(c *gin.Context, userID string) bool {
	ok, err := s.deps.Profiles.Exists(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, err)
		return false
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return false
	}
	return true
}

// report returns the user's session report, or nil when none is available.
func (s *Server) report(c *gin.Context, userID string) *session.Report {
	if s.deps.Sessions == nil {
		return nil
	}
	sc, err := s.deps.Sessions.Get(c.Request.Context(), userID)
	if err != nil {
		s.logger.Warn("session unavailable", zap.String("user", userID), zap.Error(err))
		return nil
	}
	if sc.MessageCount == 0 {
		return nil
	}
	return &sc.Report
}

// intQuery parses an optional integer query parameter within [lo, hi]. On failure it writes
// 400 and returns false.
func intQuery(c *gin.Context, key string, def, lo, hi int) (int, bool) {
	raw, present := c.GetQuery(key)
	if !present {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": key + " must be an integer between " + strconv.Itoa(lo) + " and " + strconv.Itoa(hi),
		})
		return 0, false
	}
	return v, true
}

// fail maps err to a status code and writes it.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Any("requestID", c.Value("requestID")),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrExists):
		return http.StatusConflict
	case errors.Is(err, suggest.ErrInvalidCount),
		errors.Is(err, feedback.ErrInvalidAction),
		errors.Is(err, feedback.ErrInvalidRating),
		errors.Is(err, feedback.ErrMissingSuggestion),
		errors.Is(err, orchestrator.ErrEmptyMessage),
		errors.Is(err, emotion.ErrEmptyText),
		errors.Is(err, consolidate.ErrEmptyTranscript):
		return http.StatusBadRequest
	case errors.Is(err, consolidate.ErrExtraction),
		errors.Is(err, llm.ErrUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// #endregion helpers
