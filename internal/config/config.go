package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ImageBackendSupabase   = "supabase"
	ImageBackendCloudinary = "cloudinary"
)

type Config struct {
	Port            string
	SupabaseURL     string
	SupabaseAnonKey string
	StorageBucket   string
	ImageBackend    string
	MongoDBURI      string
	MongoDBPassword string
	ValkeyAddr      string
	ToggleLockTTL   time.Duration
	AllowedOrigins  []string
	Environment     string
	LogLevel        string
}

// LoadEnvFiles reads .env.local then .env when present. Variables already
// set in the environment win.
func LoadEnvFiles() {
	for _, f := range []string{".env.local", ".env"} {
		_ = godotenv.Load(f)
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnvWithDefault("PORT", "8080"),
		SupabaseURL:     os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey: os.Getenv("SUPABASE_URL_ANON_KEY"),
		StorageBucket:   getEnvWithDefault("STORAGE_BUCKET", "event-images"),
		ImageBackend:    strings.ToLower(getEnvWithDefault("IMAGE_BACKEND", ImageBackendSupabase)),
		MongoDBURI:      os.Getenv("MONGODB_URI"),
		MongoDBPassword: os.Getenv("MONGODB_PASSWORD"),
		ValkeyAddr:      os.Getenv("VALKEY_ADDR"),
		AllowedOrigins:  splitList(getEnvWithDefault("ALLOWED_ORIGINS", "http://localhost:3000")),
		Environment:     getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:        getEnvWithDefault("LOG_LEVEL", "info"),
	}

	ttl, err := time.ParseDuration(getEnvWithDefault("TOGGLE_LOCK_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("TOGGLE_LOCK_TTL is not a duration: %v", err)
	}
	cfg.ToggleLockTTL = ttl

	// Validate required fields
	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL_ANON_KEY is required")
	}
	switch cfg.ImageBackend {
	case ImageBackendSupabase:
	case ImageBackendCloudinary:
		if os.Getenv("CLOUDINARY_CLOUD_NAME") == "" {
			return nil, fmt.Errorf("CLOUDINARY_CLOUD_NAME is required when IMAGE_BACKEND=cloudinary")
		}
	default:
		return nil, fmt.Errorf("unsupported IMAGE_BACKEND %q", cfg.ImageBackend)
	}
	if strings.Contains(cfg.MongoDBURI, "<password>") && cfg.MongoDBPassword == "" {
		return nil, fmt.Errorf("MONGODB_PASSWORD is required by MONGODB_URI")
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) ViewTrackingEnabled() bool {
	return c.MongoDBURI != ""
}
