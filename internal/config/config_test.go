package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "DB_DRIVER", "AUTH_TOKEN_TTL", "OVERDUE_SWEEP_INTERVAL", "MAX_UPLOAD_BYTES", "CORS_ORIGINS_OFFLINE"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Mode != ModeOffline || c.DBDriver != "sqlite" || c.HTTPAddr != ":8080" {
		t.Fatalf("defaults = %+v", c)
	}
	if c.AuthTokenTTL != 8*time.Hour || c.OverdueSweepInterval != time.Minute || c.MaxUploadBytes != 5<<20 {
		t.Fatalf("durations/limits = %+v", c)
	}
	if got := c.CORSOrigins(); len(got) != 2 || got[0] != "http://localhost:3000" {
		t.Fatalf("offline origins = %v", got)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("AUTH_TOKEN_TTL", "30m")
	t.Setenv("OVERDUE_SWEEP_INTERVAL", "bogus")
	t.Setenv("ENABLE_METRICS", "no")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")
	c := FromEnv()
	if c.DBDriver != "postgres" || c.AuthTokenTTL != 30*time.Minute || c.EnableMetrics {
		t.Fatalf("overrides = %+v", c)
	}
	if c.OverdueSweepInterval != time.Minute {
		t.Fatalf("bad duration not defaulted: %v", c.OverdueSweepInterval)
	}
	if got := c.CORSOrigins(); len(got) != 2 || got[1] != "https://b.example" {
		t.Fatalf("online origins = %v", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(p, []byte("HTTP_ADDR=:9999\nSITE_ID=lab-1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("SITE_ID", "")
	os.Unsetenv("HTTP_ADDR")
	os.Unsetenv("SITE_ID")
	c := Load(p)
	if c.HTTPAddr != ":9999" || c.SiteID != "lab-1" {
		t.Fatalf("Load = %+v", c)
	}
	// missing files are not fatal
	_ = Load(filepath.Join(t.TempDir(), "absent.env"))
}
