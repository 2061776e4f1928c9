package handler

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
)

const maxBodySize = 1 << 20 // 1MB

const corsMaxAge = 86400 // seconds

// Error messages returned to clients.
const (
	errMsgPlayerIDRequired = "player_id is required"
	errMsgMethodNotAllowed = "Method not allowed"
	errMsgInvalidBody      = "invalid request body"
	errMsgPlayerNotFound   = "Player not found"
	errMsgAlreadyClaimed   = "Already claimed today"
	errMsgInternal         = "internal error"
)

type errorResponse struct {
	Error string `json:"error"`
}

// withCORS answers pre-flight requests and marks every response as
// readable from any origin. methods lists the verbs the route accepts.
func withCORS(methods string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal response", "error", err)
		status = http.StatusInternalServerError
		data = []byte(`{"error":"` + errMsgInternal + `"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeBody reads a JSON request body into dst. An empty body decodes as {}.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}
