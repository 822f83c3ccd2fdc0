package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTPPort != "8080" {
		t.Errorf("port = %q, want 8080", cfg.HTTPPort)
	}
	if cfg.DatabaseMaxConns != 25 {
		t.Errorf("max conns = %d, want 25", cfg.DatabaseMaxConns)
	}
	if cfg.JWTExpiration != 720*time.Hour {
		t.Errorf("jwt expiration = %v, want 720h", cfg.JWTExpiration)
	}
	if cfg.MaxBackupBytes != 10485760 {
		t.Errorf("max backup bytes = %d, want 10485760", cfg.MaxBackupBytes)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Errorf("log config = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("JWT_EXPIRATION", "1h")
	t.Setenv("MAX_BACKUP_BYTES", "1024")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTPPort != "9090" {
		t.Errorf("port = %q", cfg.HTTPPort)
	}
	if cfg.JWTExpiration != time.Hour {
		t.Errorf("jwt expiration = %v", cfg.JWTExpiration)
	}
	if cfg.MaxBackupBytes != 1024 {
		t.Errorf("max backup bytes = %d", cfg.MaxBackupBytes)
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	// t.Setenv registers the restore; the variable itself must be absent.
	t.Setenv("JWT_SECRET", "placeholder")
	os.Unsetenv("JWT_SECRET")

	if _, err := Load(); err == nil {
		t.Error("expected error when JWT_SECRET is unset")
	}
}
