package handlers

import (
	"fmt"
	"net/http"
)

type FavoriteRequest struct {
	Path  string `json:"path"`
	Value bool   `json:"value"`
}

func (h *Handlers) GetFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.library.ListFavorites(r.Context())
	if err != nil {
		writeError(w, "list favorites", err)
		return
	}
	writeJSONData(w, favorites)
}

// SetFavorite sets or clears the favorite flag. Unknown paths succeed
// without effect.
func (h *Handlers) SetFavorite(w http.ResponseWriter, r *http.Request) {
	var req FavoriteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "set favorite", err)
		return
	}
	if req.Path == "" {
		writeError(w, "set favorite", fmt.Errorf("%w: path is required", errBadRequest))
		return
	}

	if err := h.library.ToggleFavorite(r.Context(), req.Path, req.Value); err != nil {
		writeError(w, "set favorite", err)
		return
	}
	writeJSONStatus(w, "ok")
}
