package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"pixsafe/internal/config"
)

func jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// getBaseURL prefers the configured base URL, falling back to the
// request host.
func getBaseURL(cfg *config.Config, r *http.Request) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

func buildImageURL(baseURL, slug string) string {
	return fmt.Sprintf("%s/i/%s", baseURL, slug)
}

func buildThumbURL(baseURL, slug string) string {
	return fmt.Sprintf("%s/i/%s/thumb.webp", baseURL, slug)
}

// isValidSlug gates every slug before it touches a filesystem path.
func isValidSlug(s string) bool {
	if len(s) < 4 || len(s) > 12 {
		return false
	}
	for _, c := range s {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}
