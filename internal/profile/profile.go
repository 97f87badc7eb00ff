package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where studylog stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// Timezone is the IANA zone used for all calendar-date bucketing.
	// It is a process-wide setting; per-user zones are stored on the
	// user profile but not consulted by the analytics engine yet.
	Timezone string

	// JWTSecret verifies session tokens.
	JWTSecret string

	// Analytics tuning.
	SummaryCacheTTL time.Duration // TTL for single-window summary entries
	RecentCacheTTL  time.Duration // TTL for recent-record list entries
	InitCacheTTL    time.Duration // TTL for the composite dashboard payload
	FanOutWorkers   int           // bounded worker pool size for dashboard init
	SubQueryTimeout time.Duration // deadline per dashboard sub-query
	RecentLimit     int           // records fetched for the recent-activity list
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// FromEnv loads configuration from STUDYLOG_* environment variables.
func (p *Profile) FromEnv() {
	p.Timezone = getEnvOrDefault("STUDYLOG_TIMEZONE", p.Timezone)
	p.JWTSecret = getEnvOrDefault("STUDYLOG_JWT_SECRET", p.JWTSecret)

	p.SummaryCacheTTL = getDurationEnv("STUDYLOG_SUMMARY_CACHE_TTL", p.SummaryCacheTTL)
	p.RecentCacheTTL = getDurationEnv("STUDYLOG_RECENT_CACHE_TTL", p.RecentCacheTTL)
	p.InitCacheTTL = getDurationEnv("STUDYLOG_INIT_CACHE_TTL", p.InitCacheTTL)
	p.FanOutWorkers = getIntEnv("STUDYLOG_FANOUT_WORKERS", p.FanOutWorkers)
	p.SubQueryTimeout = getDurationEnv("STUDYLOG_SUBQUERY_TIMEOUT", p.SubQueryTimeout)
	p.RecentLimit = getIntEnv("STUDYLOG_RECENT_LIMIT", p.RecentLimit)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q: only sqlite and postgres are supported", p.Driver)
	}

	// An empty secret would let tokens signed with "" verify.
	if p.Mode == "prod" && p.JWTSecret == "" {
		return errors.New("prod mode requires a JWT secret")
	}

	if p.Timezone == "" {
		p.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return errors.Wrapf(err, "invalid timezone %q", p.Timezone)
	}

	if p.SummaryCacheTTL <= 0 {
		p.SummaryCacheTTL = 5 * time.Minute
	}
	if p.RecentCacheTTL <= 0 {
		p.RecentCacheTTL = 3 * time.Minute
	}
	if p.InitCacheTTL <= 0 {
		p.InitCacheTTL = 2 * time.Minute
	}
	if p.FanOutWorkers <= 0 {
		p.FanOutWorkers = 5
	}
	if p.SubQueryTimeout <= 0 {
		p.SubQueryTimeout = 5 * time.Second
	}
	if p.RecentLimit <= 0 {
		p.RecentLimit = 10
	}

	if p.Driver == "sqlite" {
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			return errors.Wrap(err, "failed to check data dir")
		}
		p.Data = dataDir
		if p.DSN == "" {
			dbFile := fmt.Sprintf("studylog_%s.db", p.Mode)
			p.DSN = filepath.Join(dataDir, dbFile)
		}
	} else if p.DSN == "" {
		return errors.New("postgres driver requires a DSN")
	}

	return nil
}
