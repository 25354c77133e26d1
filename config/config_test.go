package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("APP_ENV", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.HTTP.Addr)
	assert.Equal(t, 5*time.Second, cfg.Chat.TypingTimeout)
	assert.Equal(t, AvatarBackendDisk, cfg.Avatar.Backend)
	assert.EqualValues(t, 2<<20, cfg.Avatar.MaxBytes)
}

func TestLoad_RepositoryConfigFile(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("APP_ENV", "")

	cfg, err := Load("config.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("APP_ENV", "prod")

	path := writeFile(t, `
http:
  addr: ":4000"
chat:
  typingTimeout: 250ms
  rateLimit: { burst: 5, interval: 2s }
grpc:
  addr: ""
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "prod", cfg.Logging.Env)
	assert.Equal(t, 250*time.Millisecond, cfg.Chat.TypingTimeout)
	assert.Equal(t, RateLimit{Burst: 5, Interval: 2 * time.Second}, cfg.Chat.RateLimit)
	assert.Empty(t, cfg.GRPC.Addr)
	// untouched sections keep defaults
	assert.Equal(t, 256, cfg.Chat.SendBuffer)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("APP_ENV", "")

	cases := map[string]string{
		"unknown backend":      "avatar: { backend: s3 }",
		"postgres without dsn": "avatar: { backend: postgres }",
		"broken yaml":          "http: [",
		"negative send buffer": "chat: { sendBuffer: -1 }",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, body))
			assert.Error(t, err)
		})
	}
}
