package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
)

var errTrailingData = errors.New("trailing data after JSON body")

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Fields    any    `json:"fields,omitempty"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeError(w, r, status, code, message, nil)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, fields any) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.Fields = fields
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}
