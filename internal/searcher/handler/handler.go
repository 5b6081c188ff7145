// Package handler exposes the search service as a JSON HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/paginator"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/service"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
)

const maxBodyBytes = 2 << 20

// SearchService is the part of *service.Service the API uses.
type SearchService interface {
	Search(ctx context.Context, rawQuery string, status index.Status) ([]ranker.ScoredDoc, error)
	AddDocument(ctx context.Context, id int, text string, status index.Status, ratings []int) error
	RemoveDocument(ctx context.Context, id int) error
	RemoveDuplicates(ctx context.Context) ([]int, error)
	SetStopWords(ctx context.Context, text string) error
	MatchDocument(rawQuery string, id int) ([]string, index.Status, error)
	Document(id int) (service.Document, error)
	WordFrequencies(id int) (map[string]float64, error)
	DocumentIDs() []int
	NoResultRequests() (noResults, retained int)
}

type Handler struct {
	svc             SearchService
	defaultPageSize int
	logger          *slog.Logger
}

func New(svc SearchService, defaultPageSize int) *Handler {
	return &Handler{
		svc:             svc,
		defaultPageSize: defaultPageSize,
		logger:          slog.Default().With("component", "search-handler"),
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/documents", h.ListDocuments)
	mux.HandleFunc("POST /api/v1/documents", h.AddDocument)
	mux.HandleFunc("POST /api/v1/documents/deduplicate", h.RemoveDuplicates)
	mux.HandleFunc("GET /api/v1/documents/{id}", h.GetDocument)
	mux.HandleFunc("DELETE /api/v1/documents/{id}", h.RemoveDocument)
	mux.HandleFunc("GET /api/v1/documents/{id}/words", h.WordFrequencies)
	mux.HandleFunc("GET /api/v1/documents/{id}/match", h.MatchDocument)
	mux.HandleFunc("POST /api/v1/stop-words", h.AddStopWords)
	mux.HandleFunc("GET /api/v1/requests/no-results", h.NoResultRequests)
}

type searchResponse struct {
	Query   string               `json:"query"`
	Status  index.Status         `json:"status"`
	Total   int                  `json:"total"`
	Results []ranker.ScoredDoc   `json:"results"`
	Pages   [][]ranker.ScoredDoc `json:"pages"`
}

// Search handles GET /api/v1/search?q=&status=&page_size=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	if !params.Has("q") {
		h.writeError(w, r, apperrors.InvalidArgument("query parameter 'q' is required"))
		return
	}
	query := params.Get("q")

	status := index.StatusActual
	if s := params.Get("status"); s != "" {
		parsed, err := index.ParseStatus(s)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		status = parsed
	}

	pageSize := h.defaultPageSize
	if s := params.Get("page_size"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil {
			h.writeError(w, r, apperrors.InvalidArgument("page_size must be an integer"))
			return
		}
		pageSize = parsed
	}
	if pageSize <= 0 {
		h.writeError(w, r, apperrors.InvalidArgument("page_size must be positive, got %d", pageSize))
		return
	}

	results, err := h.svc.Search(r.Context(), query, status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	pages, err := paginator.Paginate(results, pageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	collected := slices.Collect(pages)
	if collected == nil {
		collected = [][]ranker.ScoredDoc{}
	}

	logger.FromContext(r.Context()).Info("search completed",
		"query", query,
		"status", status,
		"returned", len(results),
	)
	h.writeJSON(w, http.StatusOK, searchResponse{
		Query:   query,
		Status:  status,
		Total:   len(results),
		Results: results,
		Pages:   collected,
	})
}

// AddDocument handles POST /api/v1/documents.
func (h *Handler) AddDocument(w http.ResponseWriter, r *http.Request) {
	var req ingestion.IngestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, r, apperrors.InvalidArgument("invalid JSON body: %v", err))
		return
	}
	if err := validator.ValidateIngestRequest(&req); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": verr.Fields,
			})
			return
		}
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.AddDocument(r.Context(), req.ID, req.Text, req.Status, req.Ratings); err != nil {
		h.writeError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("document indexed", "doc_id", req.ID, "status", req.Status)
	h.writeJSON(w, http.StatusCreated, map[string]any{"id": req.ID, "status": req.Status})
}

// RemoveDocument handles DELETE /api/v1/documents/{id}.
func (h *Handler) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.RemoveDocument(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("document removed", "doc_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// ListDocuments handles GET /api/v1/documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ids := h.svc.DocumentIDs()
	h.writeJSON(w, http.StatusOK, map[string]any{"count": len(ids), "ids": ids})
}

// GetDocument handles GET /api/v1/documents/{id}.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	doc, err := h.svc.Document(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

// WordFrequencies handles GET /api/v1/documents/{id}/words.
func (h *Handler) WordFrequencies(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	words, err := h.svc.WordFrequencies(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"id": id, "words": words})
}

// MatchDocument handles GET /api/v1/documents/{id}/match?q=.
func (h *Handler) MatchDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	words, status, err := h.svc.MatchDocument(r.URL.Query().Get("q"), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"id": id, "words": words, "status": status})
}

// RemoveDuplicates handles POST /api/v1/documents/deduplicate.
func (h *Handler) RemoveDuplicates(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.RemoveDuplicates(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if removed == nil {
		removed = []int{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

// AddStopWords handles POST /api/v1/stop-words with body {"words": "a b c"}.
func (h *Handler) AddStopWords(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Words string `json:"words"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		h.writeError(w, r, apperrors.InvalidArgument("invalid JSON body: %v", err))
		return
	}
	if err := h.svc.SetStopWords(r.Context(), body.Words); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NoResultRequests handles GET /api/v1/requests/no-results.
func (h *Handler) NoResultRequests(w http.ResponseWriter, r *http.Request) {
	noResults, retained := h.svc.NoResultRequests()
	h.writeJSON(w, http.StatusOK, map[string]int{
		"no_result_requests": noResults,
		"retained":           retained,
	})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		h.writeError(w, r, apperrors.InvalidArgument("invalid document id %q", raw))
		return 0, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError answers with the status mapped from err. Unexpected errors are
// logged and their detail is not exposed.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		message = "internal error"
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
