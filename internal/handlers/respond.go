package handlers

import (
	"encoding/json"
	"net/http"
)

// Every response, success or failure, carries the same envelope the
// web client expects: {"success": bool, ...}.

func respond(w http.ResponseWriter, status int, payload map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
