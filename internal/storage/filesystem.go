package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Filesystem stores blobs under <data>/images/<slug[0:2]>/<slug>/,
// one directory per upload holding the original and its thumbnail.
type Filesystem struct {
	baseDir string
}

func NewFilesystem(baseDir string) (*Filesystem, error) {
	imagesDir := filepath.Join(baseDir, "images")
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}
	return &Filesystem{baseDir: imagesDir}, nil
}

func GenerateSlug(length int) string {
	b := make([]byte, length/2+1)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())[:length]
	}
	return hex.EncodeToString(b)[:length]
}

// GenerateToken returns a 32-char hex token for delete authorization.
func GenerateToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// DirPath returns the sharded directory for a slug: XX/slug.
func (fs *Filesystem) DirPath(slug string) string {
	return filepath.Join(fs.baseDir, slug[0:2], slug)
}

// Path returns the full path of one file inside a slug's directory,
// e.g. ab/ab1c2/thumb.webp.
func (fs *Filesystem) Path(slug, name string) string {
	return filepath.Join(fs.DirPath(slug), name)
}

// OriginalName is the stored filename for the original, by extension
// of the detected format (".jpg", ".png", ".webp").
func OriginalName(ext string) string {
	return "original" + ext
}

// ThumbName is the stored filename for the derived thumbnail.
const ThumbName = "thumb.webp"

func (fs *Filesystem) Save(slug, name string, data []byte) error {
	path := fs.Path(slug, name)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}

func (fs *Filesystem) Read(slug, name string) ([]byte, error) {
	return os.ReadFile(fs.Path(slug, name))
}

// Delete removes everything stored for a slug.
func (fs *Filesystem) Delete(slug string) error {
	return os.RemoveAll(fs.DirPath(slug))
}

func (fs *Filesystem) Exists(slug string) bool {
	_, err := os.Stat(fs.DirPath(slug))
	return err == nil
}

func (fs *Filesystem) GetDiskUsage() (int64, error) {
	var total int64
	err := filepath.Walk(fs.baseDir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}
