package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	accountHandler "github.com/zhouzirui/advice-chat/internal/handler/account"
	adviceHandler "github.com/zhouzirui/advice-chat/internal/handler/advice"
	"github.com/zhouzirui/advice-chat/internal/handler/widget"
	middlewarePkg "github.com/zhouzirui/advice-chat/internal/middleware"
	"github.com/zhouzirui/advice-chat/internal/service/account"
	"github.com/zhouzirui/advice-chat/internal/service/ai"
	"github.com/zhouzirui/advice-chat/internal/service/conversation"
	"github.com/zhouzirui/advice-chat/pkg/utils"
)

func newBaseRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middlewarePkg.Peer)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

// NewGatewayRouter wires the browser widget and its session API.
func NewGatewayRouter(sessions *conversation.Registry) http.Handler {
	r := newBaseRouter()

	r.Get("/", widget.HandlePage)

	widgetHandler := widget.New(sessions)
	r.Route("/api", func(api chi.Router) {
		widgetHandler.RegisterRoutes(api)
	})

	return r
}

// AdvisorOptions configures the reference advice service.
type AdvisorOptions struct {
	// Accounts enables /login and /register when set.
	Accounts *account.Service
	// Auth, when set, guards /api/get_advice.
	Auth *middlewarePkg.JWTAuth
	// Limiter, when set, rate limits /api/get_advice per client.
	Limiter *middlewarePkg.RateLimiter
	Timeout time.Duration
}

// NewAdvisorRouter wires the advice endpoint and the account endpoints.
func NewAdvisorRouter(advisor ai.Advisor, opts AdvisorOptions) http.Handler {
	r := newBaseRouter()

	if opts.Accounts != nil {
		accountHandler.New(opts.Accounts).RegisterRoutes(r)
	}

	adviceH := adviceHandler.New(advisor, opts.Timeout)
	r.Route("/api", func(api chi.Router) {
		if opts.Limiter != nil {
			api.Use(opts.Limiter.Middleware)
		}
		if opts.Auth != nil {
			api.Use(opts.Auth.Middleware)
		}
		adviceH.RegisterRoutes(api)
	})

	return r
}
