package config

import "os"

// Config holds the runtime settings read from the environment.
type Config struct {
	Port      string
	DBDriver  string
	DBDSN     string
	JWTSecret string
	UploadDir string
}

// Load reads the environment and falls back to development defaults.
// godotenv is loaded by main before this runs.
func Load() Config {
	cfg := Config{
		Port:      getenv("PORT", "5000"),
		DBDriver:  getenv("DB_DRIVER", "sqlite3"),
		DBDSN:     getenv("DB_DSN", "quickchat.db"),
		JWTSecret: getenv("JWT_SECRET", "dev-secret-change-me"),
		UploadDir: getenv("UPLOAD_DIR", "uploads"),
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
