package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/venuery/venuery/ingest/internal/store"
)

// RegisterHTTP mounts the ingestion and review-queue API on a chi router.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/ingest", s.handleIngest)
		r.Get("/staging", s.handleListStaging)
		r.Post("/staging/action", s.handleStagingAction)
		r.Post("/staging/field", s.handleUpdateField)
		r.Post("/staging/{id}/images/remove", s.handleRemoveImage)
		r.Post("/staging/{id}/reingest", s.handleReingest)
	})
}

func (s *Service) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	res, err := s.RunJob(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoSearchTerms):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, ErrCrawlUnavailable):
			writeError(w, http.StatusBadRequest, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"job_id":  res.JobID,
		"results": res.Results,
		"summary": res.Summary,
	})
}

func (s *Service) handleListStaging(w http.ResponseWriter, r *http.Request) {
	status := store.Status(r.URL.Query().Get("status"))
	if status != "" && status != "all" && !store.ValidStatus(status) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown status %q", status))
		return
	}

	items, err := s.store.ListItems(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if items == nil {
		items = []*store.StagingItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"items":   items,
		"stats":   stats,
	})
}

func (s *Service) handleStagingAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string   `json:"action"`
		Items  []string `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("items is required"))
		return
	}

	var err error
	switch req.Action {
	case "approve":
		err = s.Approve(r.Context(), req.Items)
	case "reject":
		err = s.Reject(r.Context(), req.Items)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown action %q", req.Action))
		return
	}
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("%s applied to %d item(s)", req.Action, len(req.Items)),
	})
}

func (s *Service) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID    string `json:"id"`
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.ID == "" || req.Field == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("id and field are required"))
		return
	}

	item, err := s.UpdateField(r.Context(), req.ID, req.Field, req.Value)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, ErrMutationInFlight):
			writeError(w, http.StatusConflict, err)
		default:
			// Shape validation: bad URL syntax, non-member image,
			// unsupported field.
			writeError(w, http.StatusBadRequest, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "item": item})
}

func (s *Service) handleRemoveImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("url is required"))
		return
	}

	item, err := s.RemoveImage(r.Context(), id, req.URL)
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "item": item})
}

func (s *Service) handleReingest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		SearchTerm string `json:"search_term"`
	}
	// Body is optional; an empty body means "reuse the item's title".
	_ = json.NewDecoder(r.Body).Decode(&req)

	summary, err := s.Reingest(r.Context(), id, req.SearchTerm)
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "summary": summary})
}

// writeActionError maps service errors onto HTTP statuses.
func writeActionError(w http.ResponseWriter, err error) {
	var te *store.TransitionError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, ErrMutationInFlight):
		writeError(w, http.StatusConflict, err)
	case errors.As(err, &te):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, store.ErrNotInImages),
		errors.Is(err, store.ErrImageNotFound),
		errors.Is(err, ErrNoStructuredData):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"success": false, "error": err.Error()})
}
