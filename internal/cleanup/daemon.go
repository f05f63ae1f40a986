package cleanup

import (
	"time"

	"pixsafe/internal/config"
	"pixsafe/internal/logging"
	"pixsafe/internal/storage"
)

// Daemon evicts least-recently-accessed images once disk usage crosses
// the configured ceiling, and keeps deleting until usage is back under
// the target.
type Daemon struct {
	cfg *config.Config
	db  *storage.DB
	fs  *storage.Filesystem
}

func NewDaemon(cfg *config.Config, db *storage.DB, fs *storage.Filesystem) *Daemon {
	return &Daemon{cfg: cfg, db: db, fs: fs}
}

func (d *Daemon) Start() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		// Run immediately on start
		d.cleanup()

		for range ticker.C {
			d.cleanup()
		}
	}()
}

func (d *Daemon) cleanup() {
	log := logging.Get("cleanup")

	totalSize, err := d.db.GetTotalSize()
	if err != nil {
		log.Errorf("failed to get total size: %v", err)
		return
	}

	maxBytes := int64(d.cfg.MaxDiskGB * 1024 * 1024 * 1024)
	targetBytes := int64(d.cfg.CleanupTargetGB * 1024 * 1024 * 1024)

	if totalSize < maxBytes {
		return
	}

	log.Infof("disk usage %.2f GB exceeds %.2f GB, cleaning to %.2f GB",
		float64(totalSize)/(1024*1024*1024),
		d.cfg.MaxDiskGB,
		d.cfg.CleanupTargetGB)

	for totalSize > targetBytes {
		images, err := d.db.GetOldestImages(100)
		if err != nil {
			log.Errorf("failed to get oldest images: %v", err)
			return
		}

		if len(images) == 0 {
			break
		}

		deleted := 0
		for _, img := range images {
			if totalSize <= targetBytes {
				break
			}

			if err := d.fs.Delete(img.Slug); err != nil {
				log.Errorf("failed to delete files for %s: %v", img.Slug, err)
				continue
			}

			if err := d.db.DeleteImageBySlug(img.Slug); err != nil {
				log.Errorf("failed to delete db record for %s: %v", img.Slug, err)
				continue
			}

			size := img.FileSize + img.ThumbSize
			totalSize -= size
			deleted++
			log.Infof("evicted %s (%.2f MB)", img.Slug, float64(size)/(1024*1024))
		}

		// A whole batch without progress means nothing here is
		// deletable; do not spin on it
		if deleted == 0 {
			break
		}
	}

	log.Infof("done, current usage %.2f GB", float64(totalSize)/(1024*1024*1024))
}
