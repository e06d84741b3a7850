package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTPPort           int
	SQLiteDSN          string
	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	CalendarTimeout    time.Duration
	Timezone           *time.Location
}

// CalendarEnabled reports whether external calendar sync is configured.
// Without OAuth client credentials the service runs in local-only mode.
func (c Config) CalendarEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// Load parses configuration values from the current process environment.
//
// The loader applies defaults for optional fields while validating required
// values and collecting every missing or malformed entry into one error.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		SQLiteDSN:       "file:mentorship.db?_foreign_keys=on",
		CalendarTimeout: 15 * time.Second,
		Timezone:        time.UTC,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("MENTORSHIP_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "MENTORSHIP_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("MENTORSHIP_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv("MENTORSHIP_JWT_SECRET")); secret == "" {
		missing = append(missing, "MENTORSHIP_JWT_SECRET")
	} else {
		cfg.JWTSecret = secret
	}

	cfg.GoogleClientID = strings.TrimSpace(os.Getenv("MENTORSHIP_GOOGLE_CLIENT_ID"))
	cfg.GoogleClientSecret = strings.TrimSpace(os.Getenv("MENTORSHIP_GOOGLE_CLIENT_SECRET"))
	cfg.GoogleRedirectURL = strings.TrimSpace(os.Getenv("MENTORSHIP_GOOGLE_REDIRECT_URL"))

	if timeoutValue := strings.TrimSpace(os.Getenv("MENTORSHIP_CALENDAR_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "MENTORSHIP_CALENDAR_TIMEOUT")
		} else {
			cfg.CalendarTimeout = timeout
		}
	}

	if tzValue := strings.TrimSpace(os.Getenv("MENTORSHIP_TIMEZONE")); tzValue != "" {
		location, err := time.LoadLocation(tzValue)
		if err != nil {
			invalid = append(invalid, "MENTORSHIP_TIMEZONE")
		} else {
			cfg.Timezone = location
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
