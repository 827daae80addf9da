package handlers

import (
	"DBWalrus/internal/service"
	"encoding/json"
	"errors"
	"net/http"
)

// errorResponse — тело ответа об ошибке.
type errorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind service.Kind, msg, details string) {
	writeJSON(w, status, errorResponse{Error: msg, Kind: string(kind), Details: details})
}

// writeServiceError маппит ошибку конвейера в HTTP-ответ. msg — заголовок ошибки операции.
func writeServiceError(w http.ResponseWriter, err error, msg string) {
	var se *service.Error
	if !errors.As(err, &se) {
		writeError(w, http.StatusInternalServerError, service.KindInternal, msg, "Unknown error")
		return
	}

	kind := se.Public()
	switch kind {
	case service.KindValidation:
		writeError(w, http.StatusBadRequest, kind, se.Detail, "")
	case service.KindDecryption:
		// подробности расшифровки не раскрываются
		writeError(w, http.StatusBadRequest, kind, "Failed to decrypt data", service.DecryptFailedDetail)
	case service.KindNotFound:
		writeError(w, http.StatusNotFound, kind, msg, se.Detail)
	default:
		details := se.Detail
		if se.Err != nil {
			if details != "" {
				details += ": "
			}
			details += se.Err.Error()
		}
		writeError(w, http.StatusInternalServerError, kind, msg, details)
	}
}
