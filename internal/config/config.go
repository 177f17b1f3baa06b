package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Uploads
	UploadsDir         string
	MaxAvatarSize      int64
	MaxSpreadsheetSize int64

	// Server
	Port        string
	CORSOrigins string
	LogLevel    string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "userdir_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		UploadsDir:         getEnv("UPLOADS_DIR", "uploads"),
		MaxAvatarSize:      parseSize(getEnv("MAX_AVATAR_SIZE", ""), 5*1024*1024),
		MaxSpreadsheetSize: parseSize(getEnv("MAX_SPREADSHEET_SIZE", ""), 10*1024*1024),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseSize(s string, fallback int64) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
