package handlers

import (
	"errors"
	"net/http"

	"photo-gallery/internal/indexer"
	"photo-gallery/internal/logging"
	"photo-gallery/internal/startup"
	"photo-gallery/internal/views"
)

// GalleryResponse is the body of GET /api/gallery.
type GalleryResponse struct {
	Title  string              `json:"title"`
	Total  int                 `json:"total"`
	Groups []indexer.DateGroup `json:"groups"`
}

// ReindexResponse is the body of POST /api/reindex.
type ReindexResponse struct {
	Status string `json:"status"`
	Images int    `json:"images"`
	Dates  int    `json:"dates"`
}

// Gallery renders the gallery page, newest date first.
func (h *Handlers) Gallery(w http.ResponseWriter, r *http.Request) {
	index, err := h.gallery(r.Context())
	if err != nil {
		logging.Error("Gallery page failed: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	page := views.NewPage(h.title, startup.Version, index)
	if notModified(w, r, galleryETag("html", page)) {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if err := h.renderer.Render(w, views.IndexTemplate, page); err != nil {
		logging.Error("Rendering gallery page failed: %v", err)
		w.Header().Del("ETag")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// GetGallery returns the date groups as JSON.
func (h *Handlers) GetGallery(w http.ResponseWriter, r *http.Request) {
	index, err := h.gallery(r.Context())
	if err != nil {
		logging.Error("Gallery API failed: %v", err)
		writeJSONError(w, buildErrorMessage(err), http.StatusInternalServerError)
		return
	}

	resp := GalleryResponse{
		Title:  h.title,
		Total:  index.Len(),
		Groups: index.Groups(),
	}
	if resp.Groups == nil {
		resp.Groups = []indexer.DateGroup{}
	}
	if notModified(w, r, galleryETag("json", resp)) {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, resp)
}

// Reindex drops the cached gallery and rebuilds it.
func (h *Handlers) Reindex(w http.ResponseWriter, r *http.Request) {
	h.cache.Invalidate(h.sourceDir)

	index, err := h.gallery(r.Context())
	if err != nil {
		logging.Error("Reindex failed: %v", err)
		writeJSONError(w, buildErrorMessage(err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ReindexResponse{
		Status: "ok",
		Images: index.Len(),
		Dates:  len(index),
	})
}

// buildErrorMessage names the offending file for the typed build errors.
func buildErrorMessage(err error) string {
	var missing *indexer.MissingCaptureDateError
	var decode *indexer.DecodeError
	switch {
	case errors.As(err, &missing):
		return "image has no capture date: " + missing.Path
	case errors.As(err, &decode):
		return "image could not be decoded: " + decode.Path
	default:
		return "gallery build failed"
	}
}
