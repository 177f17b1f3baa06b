package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "uploads", cfg.UploadsDir)
	require.EqualValues(t, 5*1024*1024, cfg.MaxAvatarSize)
	require.EqualValues(t, 10*1024*1024, cfg.MaxSpreadsheetSize)
	require.Equal(t, "*", cfg.CORSOrigins)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("UPLOADS_DIR", "/srv/uploads")
	t.Setenv("MAX_AVATAR_SIZE", "1048576")

	cfg := Load()
	require.Equal(t, "9000", cfg.Port)
	require.Equal(t, "/srv/uploads", cfg.UploadsDir)
	require.EqualValues(t, 1048576, cfg.MaxAvatarSize)
}

func TestParseSize_Invalid(t *testing.T) {
	require.EqualValues(t, 42, parseSize("not-a-number", 42))
	require.EqualValues(t, 42, parseSize("-5", 42))
}

func TestDSN(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_NAME", "users")

	cfg := Load()
	dsn := cfg.DSN()
	require.Contains(t, dsn, "host=db.internal")
	require.Contains(t, dsn, "user=app")
	require.Contains(t, dsn, "dbname=users")
	require.Contains(t, dsn, "sslmode=disable")
}
