package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PAGE_SIZE", "")

	cfg, _ := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.PageSize != 2 {
		t.Errorf("expected page size 2, got %d", cfg.PageSize)
	}
	if cfg.UploadDirectory != "products" {
		t.Errorf("expected upload directory products, got %q", cfg.UploadDirectory)
	}
	if cfg.SessionTTL != 720*time.Hour {
		t.Errorf("expected 720h session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.DraftTTL != time.Hour {
		t.Errorf("expected 1h draft ttl, got %s", cfg.DraftTTL)
	}
	if cfg.StorageDriver != StorageMinio {
		t.Errorf("expected minio driver, got %q", cfg.StorageDriver)
	}
	if cfg.LogFormat != "console" {
		t.Errorf("expected console logs in development, got %q", cfg.LogFormat)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PAGE_SIZE", "5")
	t.Setenv("STORAGE_DRIVER", "GCS")
	t.Setenv("STORAGE_USE_SSL", "true")
	t.Setenv("UPLOAD_DIRECTORY", "/listings/")
	t.Setenv("SESSION_TTL", "2h")

	cfg, _ := Load()

	if !cfg.IsProduction() {
		t.Fatal("expected production")
	}
	if cfg.PageSize != 5 {
		t.Errorf("expected page size 5, got %d", cfg.PageSize)
	}
	if cfg.StorageDriver != StorageGCS {
		t.Errorf("expected gcs driver, got %q", cfg.StorageDriver)
	}
	if !cfg.StorageUseSSL {
		t.Error("expected ssl enabled")
	}
	if cfg.UploadDirectory != "listings" {
		t.Errorf("expected trimmed upload directory, got %q", cfg.UploadDirectory)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("expected 2h, got %s", cfg.SessionTTL)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("expected json logs in production, got %q", cfg.LogFormat)
	}
}

func TestLoad_NonPositivePageSizeFallsBack(t *testing.T) {
	t.Setenv("PAGE_SIZE", "0")
	t.Setenv("LISTINGS_PAGE_SIZE", "-3")

	cfg, _ := Load()

	if cfg.PageSize != 2 || cfg.ListingsPageSize != 12 {
		t.Fatalf("expected fallbacks 2/12, got %d/%d", cfg.PageSize, cfg.ListingsPageSize)
	}
}
