package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn *sql.DB
}

type Image struct {
	ID           int64
	Slug         string
	OriginalName string
	MimeType     string
	FileSize     int64
	Width        int
	Height       int
	ThumbWidth   int
	ThumbHeight  int
	ThumbSize    int64
	DeleteToken  string
	CreatedAt    int64
	AccessedAt   int64
	Downloads    int64
}

func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "pixsafe.db")
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		slug TEXT NOT NULL UNIQUE,
		original_name TEXT,
		mime_type TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		thumb_width INTEGER NOT NULL DEFAULT 0,
		thumb_height INTEGER NOT NULL DEFAULT 0,
		thumb_size INTEGER NOT NULL DEFAULT 0,
		delete_token TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		accessed_at INTEGER NOT NULL,
		downloads INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_images_slug ON images(slug);
	CREATE INDEX IF NOT EXISTS idx_images_created ON images(created_at);
	CREATE INDEX IF NOT EXISTS idx_images_accessed ON images(accessed_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

func (db *DB) InsertImage(img *Image) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO images (slug, original_name, mime_type, file_size, width, height, thumb_width, thumb_height, thumb_size, delete_token, created_at, accessed_at, downloads)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		img.Slug, img.OriginalName, img.MimeType, img.FileSize, img.Width, img.Height,
		img.ThumbWidth, img.ThumbHeight, img.ThumbSize, img.DeleteToken, img.CreatedAt, img.AccessedAt, img.Downloads)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (db *DB) GetImageBySlug(slug string) (*Image, error) {
	img := &Image{}
	err := db.conn.QueryRow(`
		SELECT id, slug, original_name, mime_type, file_size, width, height, thumb_width, thumb_height, thumb_size, delete_token, created_at, accessed_at, downloads
		FROM images WHERE slug = ?`, slug).Scan(
		&img.ID, &img.Slug, &img.OriginalName, &img.MimeType, &img.FileSize, &img.Width, &img.Height,
		&img.ThumbWidth, &img.ThumbHeight, &img.ThumbSize, &img.DeleteToken, &img.CreatedAt, &img.AccessedAt, &img.Downloads)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return img, err
}

func (db *DB) DeleteImageBySlug(slug string) error {
	_, err := db.conn.Exec("DELETE FROM images WHERE slug = ?", slug)
	return err
}

func (db *DB) TouchImageBySlug(slug string) error {
	_, err := db.conn.Exec("UPDATE images SET accessed_at = ? WHERE slug = ?", time.Now().Unix(), slug)
	return err
}

func (db *DB) IncrementDownloads(slug string) error {
	_, err := db.conn.Exec("UPDATE images SET downloads = downloads + 1 WHERE slug = ?", slug)
	return err
}

func (db *DB) GetOldestImages(limit int) ([]*Image, error) {
	rows, err := db.conn.Query(`
		SELECT id, slug, original_name, mime_type, file_size, width, height, thumb_width, thumb_height, thumb_size, delete_token, created_at, accessed_at, downloads
		FROM images ORDER BY accessed_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []*Image
	for rows.Next() {
		img := &Image{}
		if err := rows.Scan(&img.ID, &img.Slug, &img.OriginalName, &img.MimeType, &img.FileSize, &img.Width, &img.Height,
			&img.ThumbWidth, &img.ThumbHeight, &img.ThumbSize, &img.DeleteToken, &img.CreatedAt, &img.AccessedAt, &img.Downloads); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// GetTotalSize sums stored bytes, originals and thumbnails both.
func (db *DB) GetTotalSize() (int64, error) {
	var total int64
	err := db.conn.QueryRow("SELECT COALESCE(SUM(file_size + thumb_size), 0) FROM images").Scan(&total)
	return total, err
}

func (db *DB) SlugExists(slug string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM images WHERE slug = ?", slug).Scan(&count)
	return count > 0, err
}

func (db *DB) Close() error {
	return db.conn.Close()
}

type Stats struct {
	TotalImages    int64
	TotalDownloads int64
	DiskUsageBytes int64
}

func (db *DB) GetStats() (*Stats, error) {
	var stats Stats

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM images").Scan(&stats.TotalImages); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COALESCE(SUM(downloads), 0) FROM images").Scan(&stats.TotalDownloads); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COALESCE(SUM(file_size + thumb_size), 0) FROM images").Scan(&stats.DiskUsageBytes); err != nil {
		return nil, err
	}

	return &stats, nil
}

// GenerateUniqueSlug draws candidate slugs in batches of 20 to keep DB
// round-trips down, and returns the first unused one.
func (db *DB) GenerateUniqueSlug(length int) string {
	const maxRetries = 100
	for attempt := 0; attempt < maxRetries; attempt++ {
		candidates := make([]string, 20)
		for i := range candidates {
			candidates[i] = GenerateSlug(length)
		}
		for _, slug := range candidates {
			exists, err := db.SlugExists(slug)
			if err == nil && !exists {
				return slug
			}
		}
	}
	panic("GenerateUniqueSlug: exceeded max retries, possible DB issue")
}
