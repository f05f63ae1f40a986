package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pixsafe/internal/image"
	"pixsafe/internal/logging"
	"pixsafe/internal/storage"
)

// Stored blobs never change after upload, so clients may cache forever.
const cacheForever = "public, max-age=31536000, immutable"

type ImageHandler struct {
	db *storage.DB
	fs *storage.Filesystem
}

func NewImageHandler(db *storage.DB, fs *storage.Filesystem) *ImageHandler {
	return &ImageHandler{db: db, fs: fs}
}

func (h *ImageHandler) lookup(w http.ResponseWriter, r *http.Request) *storage.Image {
	slug := chi.URLParam(r, "slug")
	if !isValidSlug(slug) {
		jsonError(w, "Not found", http.StatusNotFound)
		return nil
	}

	img, err := h.db.GetImageBySlug(slug)
	if err != nil {
		logging.Get("serve").Errorw("lookup failed", "slug", slug, "err", err)
		jsonError(w, "Internal error", http.StatusInternalServerError)
		return nil
	}
	if img == nil {
		jsonError(w, "Not found", http.StatusNotFound)
		return nil
	}
	return img
}

func (h *ImageHandler) ServeOriginal(w http.ResponseWriter, r *http.Request) {
	img := h.lookup(w, r)
	if img == nil {
		return
	}

	format := image.FormatFromMIME(img.MimeType)
	if format == image.FormatUnknown {
		jsonError(w, "Not found", http.StatusNotFound)
		return
	}

	go func() {
		_ = h.db.TouchImageBySlug(img.Slug)
		_ = h.db.IncrementDownloads(img.Slug)
	}()

	w.Header().Set("Cache-Control", cacheForever)
	w.Header().Set("Content-Type", img.MimeType)
	http.ServeFile(w, r, h.fs.Path(img.Slug, storage.OriginalName(format.Ext())))
}

func (h *ImageHandler) ServeThumb(w http.ResponseWriter, r *http.Request) {
	img := h.lookup(w, r)
	if img == nil {
		return
	}

	// Thumbnail views refresh the eviction clock but do not count as
	// downloads.
	go func() {
		_ = h.db.TouchImageBySlug(img.Slug)
	}()

	w.Header().Set("Cache-Control", cacheForever)
	w.Header().Set("Content-Type", "image/webp")
	http.ServeFile(w, r, h.fs.Path(img.Slug, storage.ThumbName))
}

func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	img := h.lookup(w, r)
	if img == nil {
		return
	}

	token := r.Header.Get("X-Delete-Token")
	if token == "" || token != img.DeleteToken {
		jsonError(w, "Invalid delete token", http.StatusForbidden)
		return
	}

	log := logging.Get("serve")
	if err := h.fs.Delete(img.Slug); err != nil {
		log.Errorw("file delete failed", "slug", img.Slug, "err", err)
		jsonError(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if err := h.db.DeleteImageBySlug(img.Slug); err != nil {
		log.Errorw("row delete failed", "slug", img.Slug, "err", err)
		jsonError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	log.Infow("image deleted", "slug", img.Slug)
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"deleted"}`))
}
