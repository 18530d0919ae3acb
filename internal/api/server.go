// Package api exposes the companion core over HTTP.
package api

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/companion-core/internal/chaos"
	"github.com/danielpatrickdp/companion-core/internal/chat"
	"github.com/danielpatrickdp/companion-core/internal/config"
	"github.com/danielpatrickdp/companion-core/internal/consolidate"
	"github.com/danielpatrickdp/companion-core/internal/emotion"
	"github.com/danielpatrickdp/companion-core/internal/feedback"
	"github.com/danielpatrickdp/companion-core/internal/logging"
	"github.com/danielpatrickdp/companion-core/internal/orchestrator"
	"github.com/danielpatrickdp/companion-core/internal/profile"
	"github.com/danielpatrickdp/companion-core/internal/session"
	"github.com/danielpatrickdp/companion-core/internal/suggest"
)

// #region interfaces

// ProfileStore reads and writes user profiles.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
	Exists(ctx context.Context, userID string) (bool, error)
	Create(ctx context.Context, userID string, prof profile.Profile) error
	Update(ctx context.Context, userID string, partial map[string]any) (*profile.Profile, error)
}

// EmotionStore appends and lists emotion entries.
type EmotionStore interface {
	Append(ctx context.Context, userID string, e emotion.Entry) error
	Since(ctx context.Context, userID string, t time.Time) ([]emotion.Entry, error)
}

// ChatHistory lists recent conversation turns.
type ChatHistory interface {
	Recent(ctx context.Context, userID string, limit int) ([]chat.Turn, error)
}

// Analyzer turns free text into an emotion entry.
type Analyzer interface {
	NewEntry(ctx context.Context, text string) (emotion.Entry, error)
}

// Suggester returns suggestions for a user.
type Suggester interface {
	SuggestForUser(ctx context.Context, userID string, num int, report *session.Report) (suggest.Result, error)
}

// Conversation processes one chat message.
type Conversation interface {
	ProcessMessage(ctx context.Context, userID, text string) (orchestrator.Response, error)
}

// FeedbackService records and aggregates suggestion interactions.
type FeedbackService interface {
	LogInteraction(ctx context.Context, userID, suggestionID string, action feedback.Action, meta feedback.Meta, rating *int) (feedback.Entry, error)
	Preferences(ctx context.Context, userID string) (feedback.Preferences, error)
}

// Consolidator extracts durable facts from a transcript.
type Consolidator interface {
	FromTranscript(ctx context.Context, userID string, turns []chat.Turn, dryRun bool) (consolidate.Result, error)
}

// AuditLog records and lists phase decisions.
type AuditLog interface {
	Record(ctx context.Context, rec logging.PhaseRecord) error
	Recent(ctx context.Context, userID string, limit int) ([]logging.PhaseRecord, error)
}

// ImpactForecaster predicts how the current chaos level plays out over 7, 30 and 60 days.
type ImpactForecaster interface {
	PredictImpact(ctx context.Context, score int, reason string, history []chat.Turn) chaos.Impact
}

// SessionReader exposes the advisory session report.
type SessionReader interface {
	Get(ctx context.Context, userID string) (session.Context, error)
}

// #endregion interfaces

// #region deps

// Deps are the handlers' collaborators. Sessions, Consolidator, Audit and Impact may be nil;
// their routes then degrade (no session context) or answer 503.
type Deps struct {
	Profiles     ProfileStore
	Emotions     EmotionStore
	Chat         ChatHistory
	Analyzer     Analyzer
	Predictor    suggest.Predictor
	Suggester    Suggester
	Conversation Conversation
	Feedback     FeedbackService
	Consolidator Consolidator
	Audit        AuditLog
	Sessions     SessionReader
	Impact       ImpactForecaster
}

// Server holds the handler state.
type Server struct {
	deps   Deps
	now    func() time.Time
	logger *zap.Logger
}

// #endregion deps

// #region router

// NewRouter builds the gin engine with CORS, request logging and recovery installed.
func NewRouter(deps Deps, cfg config.ServerConfig, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{deps: deps, now: time.Now, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg.AllowedOrigins))
	r.Use(RequestLogger(logger))
	s.RegisterRoutes(r)
	return r
}

// corsMiddleware allows every origin when the list is empty or contains "*". Credentials are
// only allowed for an explicit origin list.
func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return cors.New(c)
}

// RegisterRoutes mounts every endpoint on r.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/profile/:user_id", s.createProfile)
	r.GET("/profile/:user_id", s.getProfile)
	r.PATCH("/profile/:user_id", s.updateProfile)

	r.POST("/log/:user_id", s.addLog)
	r.GET("/log/:user_id", s.listLogs)

	r.GET("/predict/:user_id", s.predict)
	r.POST("/predict/batch", s.predictBatch)
	r.GET("/suggest/:user_id", s.suggest)

	r.GET("/chat/:user_id", s.chatHistory)
	r.POST("/chat/interact/:user_id", s.interact)

	r.POST("/feedback/:user_id", s.logFeedback)
	r.GET("/feedback/stats/:user_id", s.feedbackStats)

	r.POST("/memory/consolidate/:user_id", s.consolidate)
	r.GET("/audit/:user_id", s.audit)
}

// #endregion router
