package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/urbanika/leadsync/internal/config"
	"github.com/urbanika/leadsync/internal/lead"
	"github.com/urbanika/leadsync/internal/store"
)

// webhookServer handles the portal's form-submission endpoints.
type webhookServer struct {
	mapper       *lead.Mapper
	orchestrator *lead.Orchestrator
	journal      store.Store
}

func (s *webhookServer) routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/leads/contact", s.handleContactForm)
	r.Post("/leads/property", s.handlePropertyForm)
	r.Get("/submissions", s.handleListSubmissions)

	return r
}

// requestLogger logs each request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *webhookServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *webhookServer) handleContactForm(w http.ResponseWriter, r *http.Request) {
	var form lead.GeneralContactForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req, v := s.mapper.MapGeneralContact(form)
	s.submit(w, r, req, v)
}

func (s *webhookServer) handlePropertyForm(w http.ResponseWriter, r *http.Request) {
	var form lead.PropertyContactForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req, v := s.mapper.MapPropertyContact(form)
	s.submit(w, r, req, v)
}

// submit runs a mapped lead through the orchestrator and translates the
// outcome: validation problems go back verbatim for the form UI, CRM failures
// become a generic message with the detail kept in the logs.
func (s *webhookServer) submit(w http.ResponseWriter, r *http.Request, req lead.Request, v lead.Validation) {
	if !v.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": v.Errors})
		return
	}

	result, err := s.orchestrator.Submit(r.Context(), req)
	if err != nil {
		status := http.StatusBadGateway
		var confErr *config.ConfigurationError
		if errors.As(err, &confErr) {
			status = http.StatusInternalServerError
		}
		zap.L().Error("lead submission failed",
			zap.String("email", req.Email),
			zap.String("source", req.Source),
			zap.Error(err),
		)
		writeJSON(w, status, map[string]string{"error": "no pudimos procesar tu solicitud, intenta de nuevo"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"contact_id":     result.Contact.ID,
		"opportunity_id": result.Opportunity.ID,
	})
}

func (s *webhookServer) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	filter := store.Filter{
		Status: store.Status(r.URL.Query().Get("status")),
		Email:  r.URL.Query().Get("email"),
		Limit:  50,
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	subs, err := s.journal.ListSubmissions(r.Context(), filter)
	if err != nil {
		zap.L().Error("list submissions failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "journal unavailable"})
		return
	}
	if subs == nil {
		subs = []store.Submission{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
