package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"pixsafe/internal/cleanup"
	"pixsafe/internal/config"
	"pixsafe/internal/handler"
	"pixsafe/internal/logging"
	"pixsafe/internal/middleware"
	"pixsafe/internal/storage"
	"pixsafe/internal/thumbnail"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Setup(cfg.LogDir, false); err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	log := logging.Get("main")

	db, err := storage.NewDB(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to init DB: %v", err)
	}
	defer db.Close()

	fs, err := storage.NewFilesystem(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to init filesystem: %v", err)
	}

	gen := thumbnail.NewGenerator(cfg.MaxPixels)

	traffic := middleware.NewTrafficStats()
	requestLogger := middleware.NewRequestLogger(traffic)
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMin, time.Minute)

	uploadHandler := handler.NewUploadHandler(cfg, db, fs, gen)
	imageHandler := handler.NewImageHandler(db, fs)
	statsHandler := handler.NewStatsHandler(db, traffic)

	r := chi.NewRouter()
	r.Use(requestLogger.Middleware)

	r.With(limiter.Middleware).Post("/upload", uploadHandler.Upload)
	r.Get("/i/{slug}", imageHandler.ServeOriginal)
	r.Get("/i/{slug}/thumb.webp", imageHandler.ServeThumb)
	r.Delete("/i/{slug}", imageHandler.Delete)
	r.Get("/health", statsHandler.Health)
	r.Get("/stats", statsHandler.Stats)

	cleanup.NewDaemon(cfg, db, fs).Start()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	log.Infof("listening on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server: %v", err)
	}
}
