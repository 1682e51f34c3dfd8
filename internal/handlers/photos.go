package handlers

import (
	"fmt"
	"net/http"
)

type ScanRequest struct {
	Root    string `json:"root"`
	Persist bool   `json:"persist"`
}

// ScanResponse carries the extracted records. Error is set when the
// records were extracted but saving them failed part way.
type ScanResponse struct {
	Photos interface{} `json:"photos"`
	Error  string      `json:"error,omitempty"`
}

type PathsRequest struct {
	Paths []string `json:"paths"`
}

func (h *Handlers) ScanDirectory(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "scan", err)
		return
	}
	if req.Root == "" {
		writeError(w, "scan", fmt.Errorf("%w: root is required", errBadRequest))
		return
	}

	photos, err := h.library.ScanDirectory(r.Context(), req.Root, req.Persist)
	if err != nil && photos == nil {
		writeError(w, "scan", err)
		return
	}

	response := ScanResponse{Photos: photos}
	if err != nil {
		response.Error = err.Error()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, response)
		return
	}
	writeJSONData(w, response)
}

func (h *Handlers) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	var req PathsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "upload", err)
		return
	}

	photos, err := h.library.UploadPhotos(r.Context(), req.Paths)
	if err != nil {
		writeError(w, "upload", err)
		return
	}
	writeJSONData(w, photos)
}

func (h *Handlers) ListPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := h.library.ListPhotos(r.Context())
	if err != nil {
		writeError(w, "list photos", err)
		return
	}
	writeJSONData(w, photos)
}

func (h *Handlers) DeletePhotos(w http.ResponseWriter, r *http.Request) {
	var req PathsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "delete photos", err)
		return
	}

	if err := h.library.DeletePhotos(r.Context(), req.Paths); err != nil {
		writeError(w, "delete photos", err)
		return
	}
	writeJSONStatus(w, "ok")
}

func (h *Handlers) CountsByYear(w http.ResponseWriter, r *http.Request) {
	counts, err := h.library.CountsByYear(r.Context())
	if err != nil {
		writeError(w, "counts by year", err)
		return
	}
	writeJSONData(w, counts)
}

func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.library.Stats(r.Context())
	if err != nil {
		writeError(w, "stats", err)
		return
	}
	writeJSONData(w, stats)
}
