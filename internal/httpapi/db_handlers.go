package httpapi

import "net/http"

type DBHandler struct {
	Store Checkpointer
}

func (h DBHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Checkpoint(r.Context()); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "checkpoint_failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
