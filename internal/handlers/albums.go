package handlers

import (
	"context"
	"fmt"
	"net/http"
)

type CreateAlbumRequest struct {
	Name string `json:"name"`
}

type CoverRequest struct {
	Path string `json:"path"`
}

func (h *Handlers) ListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.library.ListAlbums(r.Context())
	if err != nil {
		writeError(w, "list albums", err)
		return
	}
	writeJSONData(w, albums)
}

func (h *Handlers) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	var req CreateAlbumRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "create album", err)
		return
	}

	id, err := h.library.CreateAlbum(r.Context(), req.Name)
	if err != nil {
		writeError(w, "create album", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]int64{"id": id})
}

func (h *Handlers) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := albumID(r)
	if err != nil {
		writeError(w, "delete album", err)
		return
	}

	if err := h.library.DeleteAlbum(r.Context(), id); err != nil {
		writeError(w, "delete album", err)
		return
	}
	writeJSONStatus(w, "ok")
}

func (h *Handlers) ListAlbumPhotos(w http.ResponseWriter, r *http.Request) {
	id, err := albumID(r)
	if err != nil {
		writeError(w, "list album photos", err)
		return
	}

	photos, err := h.library.ListAlbumPhotos(r.Context(), id)
	if err != nil {
		writeError(w, "list album photos", err)
		return
	}
	writeJSONData(w, photos)
}

func (h *Handlers) AddToAlbum(w http.ResponseWriter, r *http.Request) {
	h.changeMembership(w, r, "add to album", h.library.AddToAlbum)
}

func (h *Handlers) RemoveFromAlbum(w http.ResponseWriter, r *http.Request) {
	h.changeMembership(w, r, "remove from album", h.library.RemoveFromAlbum)
}

func (h *Handlers) changeMembership(w http.ResponseWriter, r *http.Request, op string,
	apply func(ctx context.Context, albumID int64, paths []string) error,
) {
	id, err := albumID(r)
	if err != nil {
		writeError(w, op, err)
		return
	}

	var req PathsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, op, err)
		return
	}

	if err := apply(r.Context(), id, req.Paths); err != nil {
		writeError(w, op, err)
		return
	}
	writeJSONStatus(w, "ok")
}

func (h *Handlers) SetAlbumCover(w http.ResponseWriter, r *http.Request) {
	id, err := albumID(r)
	if err != nil {
		writeError(w, "set album cover", err)
		return
	}

	var req CoverRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "set album cover", err)
		return
	}
	if req.Path == "" {
		writeError(w, "set album cover", fmt.Errorf("%w: path is required", errBadRequest))
		return
	}

	if err := h.library.SetAlbumCover(r.Context(), id, req.Path); err != nil {
		writeError(w, "set album cover", err)
		return
	}
	writeJSONStatus(w, "ok")
}
