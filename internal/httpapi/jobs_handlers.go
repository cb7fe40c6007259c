package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/listing"
	"jobportal-engine/internal/store"
)

type JobsHandler struct {
	Listing Listing
}

type jobsResponse struct {
	Count int          `json:"count"`
	Jobs  []domain.Job `json:"jobs"`
}

func respondJobs(w http.ResponseWriter, jobs []domain.Job) {
	if jobs == nil {
		jobs = []domain.Job{}
	}
	writeJSON(w, jobsResponse{Count: len(jobs), Jobs: jobs})
}

func (h JobsHandler) Today(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Listing.Today(r.Context())
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "query_failed", err.Error())
		return
	}
	respondJobs(w, jobs)
}

// Search handles GET /jobs?q=&location=&company=&source=&days=.
func (h JobsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	jobs, err := h.Listing.Search(r.Context(), listing.SearchParams{
		Q:        q.Get("q"),
		Location: q.Get("location"),
		Company:  q.Get("company"),
		Source:   q.Get("source"),
		Days:     q.Get("days"),
	})
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "query_failed", err.Error())
		return
	}
	respondJobs(w, jobs)
}

// Add handles POST /jobs with a listing.ManualInput body.
func (h JobsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var in listing.ManualInput
	if err := decodeJSON(w, r, &in); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	job, err := h.Listing.AddManual(r.Context(), in)
	var ve *listing.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, r, http.StatusBadRequest, "validation_failed", ve.Error(), ve.Fields)
		return
	case err != nil:
		WriteError(w, r, http.StatusInternalServerError, "store_failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, job)
}

func (h JobsHandler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/jobs/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	err = h.Listing.Delete(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, "not_found", "job not found")
		return
	case err != nil:
		WriteError(w, r, http.StatusInternalServerError, "store_failed", err.Error())
		return
	}
	writeJSON(w, map[string]any{"ok": true, "id": id})
}
