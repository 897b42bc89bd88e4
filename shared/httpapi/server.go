// Package httpapi is the pipeline's HTTP surface: the authenticated tick
// trigger, signed unsubscribe links, schedule settings, on-demand sends and
// the health probe.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"creatorpulse/internal/delivery"
	"creatorpulse/internal/dispatch"
	"creatorpulse/internal/models"
	"creatorpulse/shared/config"
	"creatorpulse/shared/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type Server struct {
	cfg        *config.ServerConfig
	store      store.Store
	dispatcher *dispatch.Dispatcher
	worker     *delivery.Worker
	validate   *validator.Validate
	log        zerolog.Logger
}

func NewServer(cfg *config.ServerConfig, st store.Store, d *dispatch.Dispatcher, w *delivery.Worker, log zerolog.Logger) *Server {
	return &Server{
		cfg:        cfg,
		store:      st,
		dispatcher: d,
		worker:     w,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		log:        log.With().Str("component", "httpapi").Logger(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Get("/unsubscribe", s.handleUnsubscribe)

	r.Route("/internal", func(r chi.Router) {
		r.Use(s.requireTickToken)
		r.Post("/tick", s.handleTick)
	})

	r.Route("/users/{userID}", func(r chi.Router) {
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
		r.Post("/send", s.handleSendNow)
	})

	return r
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Int("port", s.cfg.Port).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// requireTickToken rejects unauthenticated scheduler calls.
func (s *Server) requireTickToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.cfg.TickToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	m := s.dispatcher.Monitor()
	status := http.StatusOK
	if !m.IsHealthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"status": m.StatusSummary()})
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	enqueued, err := s.dispatcher.Tick(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"enqueued": enqueued})
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("uid")
	token := r.URL.Query().Get("token")

	if userID == "" || !VerifyUnsubscribeToken(userID, s.cfg.UnsubscribeSecret, token) {
		writeHTMLPage(w, http.StatusBadRequest, "Invalid link",
			"This unsubscribe link is invalid or has expired.")
		return
	}

	if err := s.store.SetEmailEnabled(r.Context(), userID, false); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeHTMLPage(w, http.StatusBadRequest, "Invalid link",
				"This unsubscribe link is invalid or has expired.")
			return
		}
		s.log.Error().Err(err).Str("user_id", userID).Msg("unsubscribe failed")
		writeHTMLPage(w, http.StatusInternalServerError, "Something went wrong",
			"Please try again later.")
		return
	}

	writeHTMLPage(w, http.StatusOK, "Unsubscribed",
		"You will no longer receive idea digests. You can re-enable them in your settings.")
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	cfg, err := s.store.GetScheduleConfig(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown user"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var cfg models.UserScheduleConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed payload"})
		return
	}
	cfg.UserID = userID
	cfg.Preferences.Normalize()

	// Validation happens before any write; an invalid payload is never
	// partially persisted.
	if err := s.validate.Struct(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := s.store.PutScheduleConfig(r.Context(), &cfg); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, &cfg)
}

// handleSendNow runs one delivery synchronously and reports the specific
// failure reason to the caller, unlike scheduled sends which fail silently
// until the next tick.
func (s *Server) handleSendNow(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if _, err := s.store.GetScheduleConfig(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown user"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	result, err := s.worker.Process(r.Context(), &dispatch.Job{UserID: userID, OnDemand: true})
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"status": "failed",
			"reason": result.Reason,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "sent",
		"batch_id": result.BatchID,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeHTMLPage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<!DOCTYPE html><html><head><title>%s</title></head>
<body style="font-family:sans-serif;text-align:center;padding-top:80px;">
<h1>%s</h1><p>%s</p></body></html>`, title, title, message)
}
