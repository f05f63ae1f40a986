package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the full service configuration, sourced from PIXSAFE_*
// environment variables with the defaults below.
type Config struct {
	Port            string
	DataDir         string
	LogDir          string
	BaseURL         string
	MaxFileSizeMB   int
	MaxDimensionPx  int
	ThumbnailSizePx int
	MaxPixels       int64
	MaxDiskGB       float64
	CleanupTargetGB float64
	RateLimitPerMin int
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PIXSAFE")
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("log_dir", "")
	v.SetDefault("base_url", "")
	v.SetDefault("max_file_size_mb", 10)
	v.SetDefault("max_dimension_px", 4000)
	v.SetDefault("thumbnail_size_px", 400)
	v.SetDefault("max_pixels", 16_000_000)
	v.SetDefault("max_disk_gb", 50.0)
	v.SetDefault("cleanup_target_gb", 45.0)
	v.SetDefault("rate_limit_per_min", 30)

	cfg := &Config{
		Port:            v.GetString("port"),
		DataDir:         v.GetString("data_dir"),
		LogDir:          v.GetString("log_dir"),
		BaseURL:         v.GetString("base_url"),
		MaxFileSizeMB:   v.GetInt("max_file_size_mb"),
		MaxDimensionPx:  v.GetInt("max_dimension_px"),
		ThumbnailSizePx: v.GetInt("thumbnail_size_px"),
		MaxPixels:       v.GetInt64("max_pixels"),
		MaxDiskGB:       v.GetFloat64("max_disk_gb"),
		CleanupTargetGB: v.GetFloat64("cleanup_target_gb"),
		RateLimitPerMin: v.GetInt("rate_limit_per_min"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("max_file_size_mb must be positive, got %d", c.MaxFileSizeMB)
	}
	if c.MaxDimensionPx <= 0 {
		return fmt.Errorf("max_dimension_px must be positive, got %d", c.MaxDimensionPx)
	}
	if c.ThumbnailSizePx <= 0 {
		return fmt.Errorf("thumbnail_size_px must be positive, got %d", c.ThumbnailSizePx)
	}
	if c.MaxPixels <= 0 {
		return fmt.Errorf("max_pixels must be positive, got %d", c.MaxPixels)
	}
	if c.CleanupTargetGB > c.MaxDiskGB {
		return fmt.Errorf("cleanup_target_gb %.1f above max_disk_gb %.1f", c.CleanupTargetGB, c.MaxDiskGB)
	}
	return nil
}

// MaxFileSizeBytes converts the configured MiB cap to bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}
