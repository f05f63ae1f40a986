package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"pixsafe/internal/config"
	"pixsafe/internal/image"
	"pixsafe/internal/logging"
	"pixsafe/internal/storage"
	"pixsafe/internal/thumbnail"
)

// slugLength for uploaded images. Hex slugs at this length give ~1M
// combinations, plenty for a single-node host.
const slugLength = 5

// multipartSlack covers form boundary and header overhead on top of
// the file size cap, so oversize files reach the validator and get its
// message instead of a connection reset.
const multipartSlack = 1 << 20

type UploadHandler struct {
	cfg       *config.Config
	db        *storage.DB
	fs        *storage.Filesystem
	generator *thumbnail.Generator
	rules     image.Rules
}

func NewUploadHandler(cfg *config.Config, db *storage.DB, fs *storage.Filesystem, gen *thumbnail.Generator) *UploadHandler {
	rules := image.DefaultRules()
	rules.MaxFileSize = cfg.MaxFileSizeBytes()
	rules.MaxDimension = cfg.MaxDimensionPx

	return &UploadHandler{cfg: cfg, db: db, fs: fs, generator: gen, rules: rules}
}

type UploadResponse struct {
	Slug        string `json:"slug"`
	URL         string `json:"url"`
	ThumbURL    string `json:"thumbUrl"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ThumbWidth  int    `json:"thumbWidth"`
	ThumbHeight int    `json:"thumbHeight"`
	Size        int64  `json:"size"`
	Type        string `json:"type"`
	DeleteToken string `json:"deleteToken"`
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	log := logging.Get("upload")

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxFileSizeBytes()+multipartSlack)

	if err := r.ParseMultipartForm(h.cfg.MaxFileSizeBytes()); err != nil {
		jsonError(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, "Failed to read file", http.StatusBadRequest)
		return
	}

	uploaded := image.UploadedFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        int64(len(data)),
		Data:        data,
	}

	outcome := image.Validate(uploaded, h.rules)
	if !outcome.Valid {
		log.Infow("upload rejected", "filename", header.Filename, "reason", outcome.Reason)
		jsonError(w, outcome.Reason, http.StatusBadRequest)
		return
	}

	// Validate already confirmed the header parses
	dims, _ := image.ExtractDimensions(data, outcome.Format)

	thumb, err := h.generator.Generate(data, thumbnail.Options{TargetSize: h.cfg.ThumbnailSizePx})
	if err != nil {
		var genErr *thumbnail.GenerateError
		if errors.As(err, &genErr) {
			log.Warnw("thumbnail generation failed",
				"filename", header.Filename, "code", genErr.Code, "err", err)
			switch genErr.Code {
			case thumbnail.CodeInvalidImage:
				jsonError(w, "Invalid image data", http.StatusBadRequest)
			case thumbnail.CodePixelCountExceeded:
				jsonError(w, "Image has too many pixels", http.StatusRequestEntityTooLarge)
			default:
				jsonError(w, "Thumbnail generation failed", http.StatusInternalServerError)
			}
			return
		}
		log.Errorw("thumbnail generation failed", "filename", header.Filename, "err", err)
		jsonError(w, "Thumbnail generation failed", http.StatusInternalServerError)
		return
	}

	slug := h.db.GenerateUniqueSlug(slugLength)
	token := storage.GenerateToken()
	originalName := storage.OriginalName(outcome.Format.Ext())

	var g errgroup.Group
	g.Go(func() error { return h.fs.Save(slug, originalName, data) })
	g.Go(func() error { return h.fs.Save(slug, storage.ThumbName, thumb.Data) })
	if err := g.Wait(); err != nil {
		log.Errorw("save failed", "slug", slug, "err", err)
		h.fs.Delete(slug)
		jsonError(w, "Storage error", http.StatusInternalServerError)
		return
	}

	now := time.Now().Unix()
	img := &storage.Image{
		Slug:         slug,
		OriginalName: header.Filename,
		MimeType:     outcome.Format.MIME(),
		FileSize:     int64(len(data)),
		Width:        dims.Width,
		Height:       dims.Height,
		ThumbWidth:   thumb.Width,
		ThumbHeight:  thumb.Height,
		ThumbSize:    int64(len(thumb.Data)),
		DeleteToken:  token,
		CreatedAt:    now,
		AccessedAt:   now,
	}

	if _, err := h.db.InsertImage(img); err != nil {
		log.Errorw("insert failed", "slug", slug, "err", err)
		h.fs.Delete(slug)
		jsonError(w, "Database error", http.StatusInternalServerError)
		return
	}

	log.Infow("upload stored",
		"slug", slug, "type", img.MimeType, "size", img.FileSize,
		"dims", [2]int{dims.Width, dims.Height})

	baseURL := getBaseURL(h.cfg, r)
	resp := UploadResponse{
		Slug:        slug,
		URL:         buildImageURL(baseURL, slug),
		ThumbURL:    buildThumbURL(baseURL, slug),
		Width:       dims.Width,
		Height:      dims.Height,
		ThumbWidth:  thumb.Width,
		ThumbHeight: thumb.Height,
		Size:        img.FileSize,
		Type:        img.MimeType,
		DeleteToken: token,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
