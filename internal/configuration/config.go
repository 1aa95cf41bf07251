package configuration

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Storage  StorageConfig
	Media    MediaConfig
	Server   ServerConfig
	NATSURL  string // empty disables event publishing
	ClamAV   string // empty disables virus scanning
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type StorageConfig struct {
	Root string
}

type MediaConfig struct {
	ThumbnailSize    int
	ThumbnailQuality int
	FFmpegPath       string
	ProbeTimeout     time.Duration
	FrameOffset      time.Duration
	DeriveWorkers    int
}

type ServerConfig struct {
	Port          string
	MaxUploadSize int64
}

// Load reads configuration from the environment, with a .env file as an
// optional source for local development.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "assetuser"),
			Password: getEnv("DB_PASSWORD", "assetpassword"),
			DBName:   getEnv("DB_NAME", "assets"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Storage: StorageConfig{
			Root: getEnv("ASSET_ROOT", "./data/assets"),
		},
		Media: MediaConfig{
			ThumbnailSize:    getEnvInt("THUMBNAIL_SIZE", 512),
			ThumbnailQuality: getEnvInt("THUMBNAIL_QUALITY", 80),
			FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
			ProbeTimeout:     getEnvDuration("PROBE_TIMEOUT", 30*time.Second),
			FrameOffset:      getEnvDuration("FRAME_OFFSET", 3*time.Second),
			DeriveWorkers:    getEnvInt("DERIVE_WORKERS", 4),
		},
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "8080"),
			MaxUploadSize: int64(getEnvInt("MAX_UPLOAD_MB", 200)) << 20,
		},
		NATSURL: getEnv("NATS_URL", ""),
		ClamAV:  getEnv("CLAMAV_URL", ""),
	}
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
	}
	return defaultValue
}
