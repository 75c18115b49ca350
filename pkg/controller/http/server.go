package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/kottos/pkg/usecase"
	"github.com/secmon-lab/kottos/pkg/utils/logging"
	"github.com/secmon-lab/kottos/pkg/utils/safe"
)

type Server struct {
	router              *chi.Mux
	authUC              AuthUseCase
	slackWebhookHandler *SlackWebhookHandler
	slackSigningSecret  string
	emailWebhookHandler *EmailWebhookHandler
	emailWebhookToken   string
}

type Options func(*Server)

// WithAuth enables the /api routes. Without it only webhooks and health are served.
func WithAuth(authUC AuthUseCase) Options {
	return func(s *Server) {
		s.authUC = authUC
	}
}

func WithSlackWebhook(handler *SlackWebhookHandler, signingSecret string) Options {
	return func(s *Server) {
		s.slackWebhookHandler = handler
		s.slackSigningSecret = signingSecret
	}
}

func WithEmailWebhook(handler *EmailWebhookHandler, token string) Options {
	return func(s *Server) {
		s.emailWebhookHandler = handler
		s.emailWebhookToken = token
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	// Slack webhook endpoint (if configured) - No auth required, uses signature verification
	if s.slackWebhookHandler != nil {
		r.Route("/hooks/slack", func(r chi.Router) {
			r.Use(SlackSignatureMiddleware(s.slackSigningSecret))
			r.Post("/event", s.slackWebhookHandler.ServeHTTP)
		})
	}

	if s.emailWebhookHandler != nil {
		r.Route("/hooks/email", func(r chi.Router) {
			r.Use(EmailWebhookTokenMiddleware(s.emailWebhookToken))
			r.Post("/", s.emailWebhookHandler.ServeHTTP)
		})
	}

	if s.authUC != nil && uc != nil {
		r.Route("/api", func(r chi.Router) {
			r.Use(authMiddleware(s.authUC))

			r.Get("/me", meHandler(uc.Access))

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", listTasksHandler(uc.Task))
				r.Get("/{taskID}", getTaskHandler(uc.Task))
				r.Patch("/{taskID}/status", updateTaskStatusHandler(uc.Task))
				r.Post("/{taskID}/dismiss", dismissTaskHandler(uc.Task))
			})

			r.Route("/analytics", func(r chi.Router) {
				r.Get("/team", teamAnalyticsHandler(uc.Analytics))
				r.Get("/users/{userID}", userAnalyticsHandler(uc.Analytics))
			})
		})
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	safe.Write(r.Context(), w, []byte("ok"))
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
