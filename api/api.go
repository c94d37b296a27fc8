package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/jaym/mergesubs/metadata"
)

// Catalog is the read side of metadata.Catalog.
type Catalog interface {
	Search(ctx context.Context, query string, limit int) ([]metadata.SearchResult, error)
	ListMerges(ctx context.Context, limit int) ([]metadata.MergeRecord, error)
	ListCues(ctx context.Context, mergeID int64) ([]metadata.CueRecord, error)
}

type ApiHandler struct {
	catalog Catalog
}

func NewApiHandler(catalog Catalog) http.Handler {
	mux := http.NewServeMux()

	apiHandler := &ApiHandler{
		catalog: catalog,
	}

	mux.HandleFunc("GET /search", apiHandler.searchHandler)
	mux.HandleFunc("GET /merges", apiHandler.mergesHandler)
	mux.HandleFunc("GET /merges/{id}/cues", apiHandler.cuesHandler)

	return allowCORS(mux)
}

func allowCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		h.ServeHTTP(w, r)
	})
}

func limitParam(r *http.Request) (int, error) {
	if !r.URL.Query().Has("limit") {
		return metadata.DefaultListLimit, nil
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return 0, errors.New("invalid limit")
	}
	return min(limit, metadata.DefaultListLimit), nil
}

func (h *ApiHandler) searchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "Missing query", http.StatusBadRequest)
		return
	}
	limit, err := limitParam(r)
	if err != nil {
		http.Error(w, "Invalid limit", http.StatusBadRequest)
		return
	}

	results, err := h.catalog.Search(r.Context(), query, limit)
	if err != nil {
		log.Error().Err(err).Str("q", query).Msg("search failed")
		http.Error(w, "Failed to search", http.StatusInternalServerError)
		return
	}
	if len(results) == 0 {
		results = []metadata.SearchResult{}
	}
	writeJSON(w, results)
}

func (h *ApiHandler) mergesHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		http.Error(w, "Invalid limit", http.StatusBadRequest)
		return
	}

	merges, err := h.catalog.ListMerges(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("listing merges failed")
		http.Error(w, "Failed to list merges", http.StatusInternalServerError)
		return
	}
	if len(merges) == 0 {
		merges = []metadata.MergeRecord{}
	}
	writeJSON(w, merges)
}

func (h *ApiHandler) cuesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid merge id", http.StatusBadRequest)
		return
	}

	cues, err := h.catalog.ListCues(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "Merge not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("listing cues failed")
		http.Error(w, "Failed to list cues", http.StatusInternalServerError)
		return
	}
	writeJSON(w, cues)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v) // nolint: errcheck
}
