package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/anirpro14/tidykitty/internal/handler"
	"github.com/anirpro14/tidykitty/internal/middleware"
	"github.com/anirpro14/tidykitty/internal/service"
	"github.com/anirpro14/tidykitty/internal/store"
	ws "github.com/anirpro14/tidykitty/internal/websocket"
)

// Config holds the settings the server needs beyond the database.
type Config struct {
	SessionTTL time.Duration
	// Location decides calendar days for streaks and due dates.
	Location *time.Location
	// Now overrides the clock, for tests.
	Now func() time.Time
	// LoginLimit caps login and register attempts per client per minute.
	LoginLimit int
}

type Server struct {
	hub         *ws.Hub
	sessions    *service.SessionService
	sessionH    *handler.SessionHandler
	familyH     *handler.FamilyHandler
	taskH       *handler.TaskHandler
	rewardH     *handler.RewardHandler
	suggestionH *handler.SuggestionHandler
	rateLimiter *middleware.RateLimiter
	loginLimit  int
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	clock := service.NewClock(cfg.Location, cfg.Now)

	userStore := store.NewUserStore(db)
	familyStore := store.NewFamilyStore(db)
	sessionStore := store.NewSessionStore(db, cfg.SessionTTL)

	sessions := service.NewSessionService(userStore, sessionStore, logger.With("component", "session"))
	families := service.NewFamilyService(userStore, familyStore, hub, clock, logger.With("component", "family"))
	ledger := service.NewLedgerService(
		userStore,
		store.NewTaskStore(db),
		store.NewRewardStore(db),
		store.NewSuggestionStore(db),
		hub, clock, logger.With("component", "ledger"),
	)

	if cfg.LoginLimit <= 0 {
		cfg.LoginLimit = 10
	}

	return &Server{
		hub:         hub,
		sessions:    sessions,
		sessionH:    handler.NewSessionHandler(sessions, ledger, logger.With("component", "session_handler")),
		familyH:     handler.NewFamilyHandler(families, logger.With("component", "family_handler")),
		taskH:       handler.NewTaskHandler(ledger, logger.With("component", "task_handler")),
		rewardH:     handler.NewRewardHandler(ledger, logger.With("component", "reward_handler")),
		suggestionH: handler.NewSuggestionHandler(ledger, logger.With("component", "suggestion_handler")),
		rateLimiter: middleware.NewRateLimiter(),
		loginLimit:  cfg.LoginLimit,
		logger:      logger,
	}
}

// Sessions returns the session service for cleanup tasks.
func (s *Server) Sessions() *service.SessionService {
	return s.sessions
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the realtime hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.sessionH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.sessionH.Login))

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessions, s.logger.With("component", "auth"))
	outerMux.Handle("/", authMiddleware(protectedMux))

	httpLogger := s.logger.With("component", "http")
	return middleware.RequestLogger(httpLogger)(middleware.Recover(httpLogger)(outerMux))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, s.loginLimit, time.Minute)
	return rl(h).ServeHTTP
}

func parentOnly(h http.HandlerFunc) http.Handler {
	return middleware.RequireParent(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Session and profile
	mux.HandleFunc("POST /api/logout", s.sessionH.Logout)
	mux.HandleFunc("GET /api/me", s.sessionH.Me)
	mux.HandleFunc("PUT /api/me", s.familyH.UpdateProfile)
	mux.HandleFunc("PUT /api/me/pin", s.sessionH.SetPIN)
	mux.HandleFunc("GET /api/me/badges", s.sessionH.Badges)
	mux.HandleFunc("GET /api/me/redemptions", s.sessionH.Redemptions)

	// Family directory
	mux.HandleFunc("GET /api/family", s.familyH.Get)
	mux.Handle("POST /api/family", parentOnly(s.familyH.Create))
	mux.Handle("PUT /api/family", parentOnly(s.familyH.Rename))
	mux.HandleFunc("POST /api/family/join", s.familyH.Join)
	mux.Handle("POST /api/family/children", parentOnly(s.familyH.AddChild))
	mux.Handle("DELETE /api/family/members/{id}", parentOnly(s.familyH.RemoveChild))
	mux.Handle("POST /api/family/invite-code", parentOnly(s.familyH.RotateInviteCode))
	mux.HandleFunc("GET /api/family/leaderboard", s.familyH.Leaderboard)

	// Tasks
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("PUT /api/tasks/{id}/assignee", s.taskH.Assign)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.taskH.Complete)

	// Rewards
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("POST /api/rewards", s.rewardH.Create)
	mux.HandleFunc("PUT /api/rewards/{id}", s.rewardH.Update)
	mux.HandleFunc("DELETE /api/rewards/{id}", s.rewardH.Delete)
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.rewardH.Redeem)

	// Suggestions
	mux.HandleFunc("GET /api/suggestions", s.suggestionH.List)
	mux.HandleFunc("POST /api/suggestions", s.suggestionH.Create)
	mux.HandleFunc("POST /api/suggestions/{id}/resolve", s.suggestionH.Resolve)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
