package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gradfinder.dev/gradfinder/internal/core"
	apperrors "gradfinder.dev/gradfinder/internal/errors"
	"gradfinder.dev/gradfinder/internal/logger"
	"gradfinder.dev/gradfinder/internal/store"
)

// Searcher runs the search workflow.
type Searcher interface {
	Search(ctx context.Context, query string) (*core.SearchResult, error)
}

// Summarizer runs the summary workflow.
type Summarizer interface {
	Generate(ctx context.Context, programID string) (*core.SummaryResult, error)
}

// Catalog reads stored programs.
type Catalog interface {
	Get(ctx context.Context, programID string) (*store.Program, error)
	List(ctx context.Context, limit, offset int) ([]store.Program, error)
}

type APIHandler struct {
	search  Searcher
	summary Summarizer
	catalog Catalog
	log     *logger.Logger
}

func NewAPIHandler(search Searcher, summary Summarizer, catalog Catalog, log *logger.Logger) *APIHandler {
	return &APIHandler{
		search:  search,
		summary: summary,
		catalog: catalog,
		log:     log.With("service", "APIHandler"),
	}
}

type SearchRequest struct {
	Query string `json:"query"`
}

type SearchResponse struct {
	Programs []store.Program `json:"programs"`
	Degraded bool            `json:"degraded"`
}

func (h *APIHandler) SearchProgramsHandler(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperrors.NewInvalidRequest("Invalid request body: "+err.Error()))
		return
	}

	result, err := h.search.Search(r.Context(), req.Query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Programs: result.Programs, Degraded: result.Degraded})
}

type SummaryRequest struct {
	ProgramID string `json:"programId"`
}

type SummaryResponse struct {
	Summary string         `json:"summary"`
	Program *store.Program `json:"program"`
}

func (h *APIHandler) GenerateSummaryHandler(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperrors.NewInvalidRequest("Invalid request body: "+err.Error()))
		return
	}

	result, err := h.summary.Generate(r.Context(), req.ProgramID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{Summary: result.Summary, Program: result.Program})
}

type ListProgramsResponse struct {
	Programs []store.Program `json:"programs"`
}

func (h *APIHandler) ListProgramsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeError(w, r, apperrors.NewInvalidRequest("limit must be an integer"))
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		h.writeError(w, r, apperrors.NewInvalidRequest("offset must be an integer"))
		return
	}

	programs, err := h.catalog.List(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListProgramsResponse{Programs: programs})
}

func (h *APIHandler) GetProgramHandler(w http.ResponseWriter, r *http.Request) {
	programID := chi.URLParam(r, "programID")

	program, err := h.catalog.Get(r.Context(), programID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, program)
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError logs server-side failures with their cause and returns only the
// classified message to the caller.
func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		h.log.Info("Request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: apperrors.MessageOf(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
