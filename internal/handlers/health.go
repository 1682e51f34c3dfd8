package handlers

import (
	"net/http"
	"runtime"
	"time"

	"terra/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Scanning bool   `json:"scanning"`
	Error    string `json:"error,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Library summary
	TotalPhotos  int64  `json:"totalPhotos"`
	LastScanRoot string `json:"lastScanRoot,omitempty"`
	LastScanned  string `json:"lastScanned,omitempty"`
}

// HealthCheck returns the health status of the service. A store that
// cannot be queried reports degraded with a 503.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Scanning:     h.library.IsScanning(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	stats, err := h.library.Stats(r.Context())
	if err != nil {
		response.Status = statusDegraded
		response.Error = err.Error()
	} else {
		response.TotalPhotos = stats.TotalPhotos
		response.LastScanRoot = stats.LastScanRoot
		if stats.LastScanAt > 0 {
			response.LastScanned = time.Unix(stats.LastScanAt, 0).UTC().Format(time.RFC3339)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if response.Status == statusDegraded {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}
