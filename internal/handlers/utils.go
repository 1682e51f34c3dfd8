package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"terra/internal/database"
	"terra/internal/indexer"
	"terra/internal/logging"
)

// maxBodyBytes caps request bodies; path lists are the largest payloads.
const maxBodyBytes = 8 << 20

// errBadRequest marks errors caused by the request itself.
var errBadRequest = errors.New("bad request")

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": status})
}

// writeJSONData writes v with a 200 status.
func writeJSONData(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, v)
}

// writeError maps an operation error to a status code.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, database.ErrEmptyAlbumName),
		errors.Is(err, indexer.ErrRootNotDirectory):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, database.ErrAlbumNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	default:
		logging.Error("%s failed: %v", op, err)
		writeJSONError(w, fmt.Sprintf("%s failed", op), http.StatusInternalServerError)
	}
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", errBadRequest, err)
	}
	if len(body) > maxBodyBytes {
		return fmt.Errorf("%w: body too large", errBadRequest)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %w", errBadRequest, err)
	}
	return nil
}

// albumID reads the {id} route variable.
func albumID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid album id %q", errBadRequest, raw)
	}
	return id, nil
}
