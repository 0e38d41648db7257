package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/jobscout/internal/logger"
)

type messageResponse struct {
	Message string `json:"message"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, log logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("failed to write response", logger.Error(err))
	}
}

func writeMessage(w http.ResponseWriter, log logger.Logger, status int, msg string) {
	writeJSON(w, log, status, messageResponse{Message: msg})
}

// writeDetail is the error body shape: {"detail": "..."}
func writeDetail(w http.ResponseWriter, log logger.Logger, status int, detail string) {
	writeJSON(w, log, status, detailResponse{Detail: detail})
}
