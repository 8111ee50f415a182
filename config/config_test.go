package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "starhawk", cfg.Mongo.DBName)
	assert.Equal(t, "24h", cfg.JWT.Expiration)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("DATABASE_NAME", "starhawk_test")
	t.Setenv("PORT", "8080")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "starhawk_test", cfg.Mongo.DBName)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "server:\n  port: \"7000\"\njwt:\n  secret: file-secret\nreports:\n  generationDelay: 2s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "7100")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "7100", cfg.Server.Port)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Second, Duration(cfg.Reports.GenerationDelay, time.Minute))
}

func TestValidate(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		err := Config{}.Validate()
		assert.ErrorIs(t, err, ErrMissingJWTSecret)
	})

	t.Run("bad duration", func(t *testing.T) {
		err := Config{JWT: JWTConfig{Secret: "s", Expiration: "tomorrow"}}.Validate()
		assert.ErrorContains(t, err, "jwt.expiration")
	})

	t.Run("valid", func(t *testing.T) {
		err := Config{JWT: JWTConfig{Secret: "s", Expiration: "1h"}}.Validate()
		assert.NoError(t, err)
	})
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, Duration("3s", time.Minute))
	assert.Equal(t, time.Minute, Duration("", time.Minute))
	assert.Equal(t, time.Minute, Duration("nope", time.Minute))
	assert.Equal(t, time.Minute, Duration("-1s", time.Minute))
}
