package httpapi

import (
	"context"
	"errors"
	"net/http"

	"jobportal-engine/internal/poll"
	"jobportal-engine/internal/scrape/types"

	"go.uber.org/zap"
)

type IngestHandler struct {
	Ingester    Ingester
	BaseContext context.Context
	Log         *zap.Logger
}

type ingestStatusResponse struct {
	types.IngestStatus
	LastSummary *poll.Summary `json:"last_summary,omitempty"`
}

func (h IngestHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, sum := h.Ingester.Status()
	writeJSON(w, ingestStatusResponse{IngestStatus: st, LastSummary: sum})
}

// Run starts a run in the background and answers 202. With ?wait=true it
// runs inline and returns the summary. A run already in progress is a 409.
func (h IngestHandler) Run(w http.ResponseWriter, r *http.Request) {
	if st, _ := h.Ingester.Status(); st.Running {
		WriteError(w, r, http.StatusConflict, "run_in_progress", poll.ErrRunInProgress.Error())
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		sum, err := h.Ingester.RunOnce(r.Context())
		switch {
		case errors.Is(err, poll.ErrRunInProgress):
			WriteError(w, r, http.StatusConflict, "run_in_progress", err.Error())
		case err != nil:
			WriteError(w, r, http.StatusInternalServerError, "ingest_failed", err.Error())
		default:
			writeJSON(w, sum)
		}
		return
	}

	reqID := RequestIDFrom(r.Context())
	go func() {
		if _, err := h.Ingester.RunOnce(h.BaseContext); err != nil {
			h.Log.Warn("manual run failed", zap.String("request_id", reqID), zap.Error(err))
		}
	}()
	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}
