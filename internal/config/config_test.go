package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := FromEnv()
	require.NoError(t, cfg.Validate())

	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "memory", cfg.Storage.Driver)
	require.Equal(t, "./certificates", cfg.Artifacts.Root)
	require.Equal(t, 587, cfg.SMTP.Port)
	require.Equal(t, 50, cfg.Dispatch.PoolCore)
	require.Equal(t, 100, cfg.Dispatch.PoolMax)
	require.Equal(t, 2000, cfg.Dispatch.PoolQueue)
	require.Equal(t, 50, cfg.Dispatch.ChunkSize)
	require.Equal(t, time.Minute, cfg.VerifyWindow())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("STORAGE_DSN", "postgres://x:y@localhost/certs")
	t.Setenv("SMTP_HOST", "mail.example.com")
	t.Setenv("DISPATCH_POOL_CORE", "10")
	t.Setenv("DISPATCH_POOL_MAX", "20")
	t.Setenv("RATE_VERIFY_WINDOW", "30s")

	cfg := FromEnv()
	require.NoError(t, cfg.Validate())

	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, "postgres", cfg.Storage.Driver)
	require.Equal(t, "mail.example.com", cfg.SMTP.Host)
	require.Equal(t, 10, cfg.Dispatch.PoolCore)
	require.Equal(t, 20, cfg.Dispatch.PoolMax)
	require.Equal(t, 30*time.Second, cfg.VerifyWindow())
}

func TestLoadYAML(t *testing.T) {
	const yml = `
server:
  addr: ":7070"
storage:
  driver: memory
mail:
  signature: "Equipo"
  banner_paths:
    - "a.jpg"
    - "b.jpg"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, ":7070", cfg.Server.Addr)
	require.Equal(t, "Equipo", cfg.Mail.Signature)
	require.Equal(t, []string{"a.jpg", "b.jpg"}, cfg.Mail.BannerPaths)
	// Los defaults rellenan lo que el YAML no trae.
	require.Equal(t, 50, cfg.Dispatch.ChunkSize)
}

func TestValidateRejectsBadPool(t *testing.T) {
	cfg := FromEnv()
	cfg.Dispatch.PoolMax = cfg.Dispatch.PoolCore - 1
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
}
