package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vanvan1998/todoApp/internal/application/auth"
	"github.com/vanvan1998/todoApp/internal/application/session"
	"github.com/vanvan1998/todoApp/internal/application/user"
	"github.com/vanvan1998/todoApp/internal/config"
	"github.com/vanvan1998/todoApp/internal/transport/http/handler"
	appmiddleware "github.com/vanvan1998/todoApp/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	sessionSvc := session.NewService(session.ServiceDeps{
		UserRepo:        deps.UserRepo,
		SessionRepo:     deps.SessionRepo,
		JWTProvider:     deps.JWTProvider,
		RefreshTokenDur: cfg.RefreshTokenExpiry,
	})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:        deps.UserRepo,
		SessionRepo:     deps.SessionRepo,
		JWTProvider:     deps.JWTProvider,
		RefreshTokenDur: cfg.RefreshTokenExpiry,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		VerificationRepo: deps.VerificationRepo,
		UserRepo:         deps.UserRepo,
		SessionRepo:      deps.SessionRepo,
		Mailer:           deps.Mailer,
		JWTProvider:      deps.JWTProvider,
		RefreshTokenDur:  cfg.RefreshTokenExpiry,
	})

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(sessionSvc, deps.Manager)
	userH := handler.NewUserHandler(userSvc, deps.Manager)
	todoH := handler.NewTodoHandler(deps.Manager)
	pwH := handler.NewPasswordRecoveryHandler(authSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/password-recovery/{action}", pwH.Action)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)
			r.Delete("/users/{id}", userH.Delete)
			r.Post("/users/change-password", userH.ChangePassword)

			r.Get("/todos", todoH.List)
			r.Post("/todos", todoH.Create)
			r.Get("/todos/stream", todoH.Stream)
			r.Put("/todos/{id}", todoH.Update)
			r.Put("/todos/{id}/complete", todoH.ToggleComplete)
			r.Delete("/todos/{id}", todoH.Delete)
		})
	})

	return r
}
