package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"MENTORSHIP_HTTP_PORT",
			"MENTORSHIP_SQLITE_DSN",
			"MENTORSHIP_GOOGLE_CLIENT_ID",
			"MENTORSHIP_GOOGLE_CLIENT_SECRET",
			"MENTORSHIP_CALENDAR_TIMEOUT",
			"MENTORSHIP_TIMEZONE",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		const secret = "super-secret"
		t.Setenv("MENTORSHIP_JWT_SECRET", secret)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:mentorship.db?_foreign_keys=on" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.JWTSecret != secret {
			t.Fatalf("expected jwt secret %q, got %q", secret, cfg.JWTSecret)
		}
		if cfg.CalendarTimeout != 15*time.Second {
			t.Fatalf("expected default calendar timeout 15s, got %v", cfg.CalendarTimeout)
		}
		if cfg.Timezone != time.UTC {
			t.Fatalf("expected UTC default timezone, got %v", cfg.Timezone)
		}
		if cfg.CalendarEnabled() {
			t.Fatal("calendar sync should be disabled without oauth credentials")
		}
	})

	t.Run("reads overrides from the environment", func(t *testing.T) {
		t.Setenv("MENTORSHIP_JWT_SECRET", "secret")
		t.Setenv("MENTORSHIP_HTTP_PORT", "9090")
		t.Setenv("MENTORSHIP_SQLITE_DSN", "file:other.db")
		t.Setenv("MENTORSHIP_GOOGLE_CLIENT_ID", "client-id")
		t.Setenv("MENTORSHIP_GOOGLE_CLIENT_SECRET", "client-secret")
		t.Setenv("MENTORSHIP_CALENDAR_TIMEOUT", "5s")
		t.Setenv("MENTORSHIP_TIMEZONE", "Europe/Paris")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:other.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if !cfg.CalendarEnabled() {
			t.Fatal("calendar sync should be enabled with oauth credentials")
		}
		if cfg.CalendarTimeout != 5*time.Second {
			t.Fatalf("expected calendar timeout 5s, got %v", cfg.CalendarTimeout)
		}
		if cfg.Timezone.String() != "Europe/Paris" {
			t.Fatalf("expected Europe/Paris timezone, got %v", cfg.Timezone)
		}
	})

	t.Run("fails when the jwt secret is missing", func(t *testing.T) {
		if err := os.Unsetenv("MENTORSHIP_JWT_SECRET"); err != nil {
			t.Fatalf("failed to unset secret: %v", err)
		}

		if _, err := Load(); err == nil {
			t.Fatal("expected error for missing jwt secret")
		}
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		t.Setenv("MENTORSHIP_JWT_SECRET", "secret")
		t.Setenv("MENTORSHIP_HTTP_PORT", "not-a-port")
		t.Setenv("MENTORSHIP_CALENDAR_TIMEOUT", "-3s")

		if _, err := Load(); err == nil {
			t.Fatal("expected error for malformed values")
		}
	})
}
