package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultDataSubDir       = "data"
	DefaultThumbnailsSubDir = "thumbnails"
	DefaultRawSubDir        = "raw"
	DefaultLogsSubDir       = "logs"
	DefaultDatabaseFile     = "watercolours.db"
)

const (
	defaultThumbnailMaxSize = 300
	defaultPipelineVersion  = "v0.1.0"
	defaultListenAddr       = ":5000"
)

type Config struct {
	// BaseDir anchors every relative default below. It is never discovered.
	BaseDir string

	// database
	DatabasePath string
	SchemaPath   string // optional; the embedded schema is used when empty

	// storage
	RawDataPath    string // default ingestion input
	ThumbnailsPath string
	LogDir         string

	// ingestion
	Extensions       []string // empty means the built-in list
	PipelineVersion  string
	ThumbnailMaxSize int

	// admin API
	ListenAddr        string
	AdminPasswordHash string // bcrypt; empty disables auth
	CORSOrigins       []string

	LogLevel string

	// Warnings collects env values that were ignored in favour of a default.
	Warnings []string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func (c *Config) getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("invalid %s %q, using default %d", envVar, valStr, defaultVal))
		return defaultVal
	}
	return val
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// resolve makes p absolute, joining it onto base when relative.
func resolve(base, p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

func LoadConfig() (Config, error) {
	base := getEnvOrDefault("WATERCOLOUR_BASE_DIR", ".")
	absBase, err := filepath.Abs(base)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for base directory '%s': %w", base, err)
	}

	dataDir := filepath.Join(absBase, DefaultDataSubDir)
	cfg := Config{
		BaseDir:           absBase,
		DatabasePath:      resolve(absBase, getEnvOrDefault("DATABASE_PATH", filepath.Join(dataDir, DefaultDatabaseFile))),
		SchemaPath:        resolve(absBase, os.Getenv("SCHEMA_PATH")),
		RawDataPath:       resolve(absBase, getEnvOrDefault("RAW_DATA_PATH", filepath.Join(dataDir, DefaultRawSubDir))),
		ThumbnailsPath:    resolve(absBase, getEnvOrDefault("THUMBNAILS_PATH", filepath.Join(dataDir, DefaultThumbnailsSubDir))),
		LogDir:            resolve(absBase, getEnvOrDefault("LOG_DIR", filepath.Join(absBase, DefaultLogsSubDir))),
		Extensions:        getEnvList("INGEST_EXTENSIONS"),
		PipelineVersion:   getEnvOrDefault("PIPELINE_VERSION", defaultPipelineVersion),
		ListenAddr:        getEnvOrDefault("LISTEN_ADDR", defaultListenAddr),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		CORSOrigins:       getEnvList("CORS_ORIGINS"),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
	}
	cfg.ThumbnailMaxSize = cfg.getEnvIntOrDefault("THUMBNAIL_MAX_SIZE", defaultThumbnailMaxSize)

	return cfg, nil
}
