package config

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	LogLevel   string
	LogPath    string // empty: console only
	LogMaxSize int    // MB

	// 持久化：sqlite（默认）或 mysql
	DBDriver   string
	SQLitePath string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis 会话缓存
	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// 专辑封面存储：local 或 minio
	ArtworkBackend string
	ArtworkDir     string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioRegion    string

	// Built-in library anchors, one per library type.
	MusicDir      string
	AudiobooksDir string
	PodcastsDir   string

	IndexWorkers int
	SortLocale   string
	HTTPAddr     string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool accepts the forms understood by strconv.ParseBool.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env files) or
// defaults. Extra files are loaded before the default .env; godotenv never
// overrides variables that are already set.
func Load(envFiles ...string) *Config {
	files := append([]string{}, envFiles...)
	if _, err := os.Stat(".env"); err == nil {
		files = append(files, ".env")
	}
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			log.Printf("error loading env files %v, relying on environment and defaults: %v", files, err)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := getEnv("ATLAS_DATA_DIR", filepath.Join(home, ".local", "share", "atlas"))

	return &Config{
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogPath:    getEnv("LOG_PATH", ""),
		LogMaxSize: getEnvInt("LOG_MAX_SIZE", 50),

		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		SQLitePath: getEnv("SQLITE_PATH", filepath.Join(dataDir, "atlas.db")),
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "atlas"),

		RedisEnabled:  getEnvBool("REDIS_ENABLED", false),
		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		ArtworkBackend: getEnv("ARTWORK_BACKEND", "local"),
		ArtworkDir:     getEnv("ARTWORK_DIR", filepath.Join(dataDir, "artwork")),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "atlas-artwork"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),

		MusicDir:      getEnv("MUSIC_DIR", filepath.Join(home, "Music")),
		AudiobooksDir: getEnv("AUDIOBOOKS_DIR", filepath.Join(home, "Audiobooks")),
		PodcastsDir:   getEnv("PODCASTS_DIR", filepath.Join(home, "Podcasts")),

		IndexWorkers: getEnvInt("INDEX_WORKERS", runtime.NumCPU()),
		SortLocale:   getEnv("SORT_LOCALE", "en"),
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
	}
}
