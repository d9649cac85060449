package util

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func WriteSuccess(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// WriteJSON marshals v and writes it with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	d, err := json.Marshal(v)
	if err != nil {
		WriteErrorf(w, http.StatusInternalServerError, "unable to marshal response: %v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(d)
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

func WriteErrorf(w http.ResponseWriter, status int, msg string, args ...interface{}) {
	d, _ := json.Marshal(map[string]string{"error": fmt.Sprintf(msg, args...)})

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(d)
}
