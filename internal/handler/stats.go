package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"pixsafe/internal/logging"
	"pixsafe/internal/middleware"
	"pixsafe/internal/storage"
)

type StatsHandler struct {
	db      *storage.DB
	traffic *middleware.TrafficStats
	started time.Time
}

func NewStatsHandler(db *storage.DB, traffic *middleware.TrafficStats) *StatsHandler {
	return &StatsHandler{db: db, traffic: traffic, started: time.Now()}
}

func (h *StatsHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	stats, err := h.db.GetStats()
	if err != nil {
		logging.Get("stats").Errorw("health query failed", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"status": "degraded"})
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"status":        "ok",
		"images":        stats.TotalImages,
		"disk_usage_gb": float64(stats.DiskUsageBytes) / (1024 * 1024 * 1024),
	})
}

func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetStats()
	if err != nil {
		logging.Get("stats").Errorw("stats query failed", "err", err)
		jsonError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"images":           stats.TotalImages,
		"downloads":        stats.TotalDownloads,
		"disk_usage_bytes": stats.DiskUsageBytes,
		"uptime_s":         int64(time.Since(h.started).Seconds()),
	}
	if h.traffic != nil {
		resp["traffic"] = h.traffic.Snapshot(time.Now())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
