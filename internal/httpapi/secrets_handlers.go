package httpapi

import (
	"net/http"
	"strings"
)

type SecretsHandler struct {
	SetDBPassword func(password string) error
}

type setPasswordReq struct {
	Password string `json:"password"`
}

func (h SecretsHandler) SetDatabasePassword(w http.ResponseWriter, r *http.Request) {
	var req setPasswordReq
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if strings.TrimSpace(req.Password) == "" {
		WriteError(w, r, http.StatusBadRequest, "validation_failed", "password is required")
		return
	}
	if err := h.SetDBPassword(req.Password); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "keyring_failed", "failed to store password: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
