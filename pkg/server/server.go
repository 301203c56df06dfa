// Package server exposes the knowledge engine over REST for the frontend.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/rs/cors"

	"github.com/aomail-ai/knowledge/pkg/knowledge"
)

// Searcher is the engine surface the HTTP layer needs.
type Searcher interface {
	CanAnswer(ctx context.Context, userID string) (bool, error)
	Answer(ctx context.Context, userID string, question string, language string) (*knowledge.SearchResult, error)
}

type Server struct {
	engine Searcher
	logger *log.Logger
	router http.Handler
}

func New(engine Searcher, logger *log.Logger, allowedOrigin string) *Server {
	s := &Server{
		engine: engine,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Post("/api/search-tree-knowledge", s.handleSearch)
	r.Get("/api/search-tree-knowledge/can-answer", s.handleCanAnswer)

	s.router = cors.New(cors.Options{
		AllowedOrigins: []string{allowedOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "X-User-ID"},
	}).Handler(r)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type searchRequest struct {
	Question string `json:"question"`
	Language string `json:"language"`
}

type answerResponse struct {
	Sure   bool    `json:"sure"`
	Answer string  `json:"answer"`
	IDs    []int64 `json:"ids"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "X-User-ID header is required"})
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Question is required"})
		return
	}

	result, err := s.engine.Answer(r.Context(), userID, req.Question, req.Language)
	if errors.Is(err, knowledge.ErrInsufficientData) {
		// Deliberate 200: lacking knowledge is an expected outcome, not a
		// fault to alarm the user with.
		writeJSON(w, http.StatusOK, map[string]string{"message": "Not enough data"})
		return
	}
	if err != nil {
		s.logger.Error("An error occurred while searching email with search tree knowledge feature", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "An error occurred while searching email"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]answerResponse{
		"answer": {
			Sure:   result.Sure,
			Answer: result.Answer,
			IDs:    result.IDs,
		},
	})
}

func (s *Server) handleCanAnswer(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "X-User-ID header is required"})
		return
	}

	canAnswer, err := s.engine.CanAnswer(r.Context(), userID)
	if err != nil {
		s.logger.Error("Failed to check knowledge availability", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "An error occurred while searching email"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"can_answer": canAnswer})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
