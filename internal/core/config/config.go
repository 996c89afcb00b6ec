package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Environment variables that override the defaults.
const (
	EnvAPIURL        = "CLAUDE_INSIGHTS_API_URL"
	EnvAPIKey        = "CLAUDE_INSIGHTS_API_KEY"
	EnvTranscriptURL = "CLAUDE_INSIGHTS_TRANSCRIPT_URL"
	EnvTimeout       = "CLAUDE_INSIGHTS_TIMEOUT"
)

const (
	DefaultHooksURL      = "http://localhost:3001"
	DefaultTranscriptURL = "http://localhost:3999"
	DefaultTimeout       = 5 * time.Second
	DefaultUploadTimeout = 10 * time.Second
	DefaultLogFile       = "~/.go-claude-insights/logs/app.log"
	DefaultMode          = "report"
)

// Config contains the runtime configuration shared by all commands
type Config struct {
	// Backend endpoints
	HooksURL      string // base of the /api/hooks/* endpoints
	TranscriptURL string // base of /api/sessions/{id}/transcript
	APIKey        string // forwarded verbatim as x-api-key

	// Request timeouts
	Timeout       time.Duration
	UploadTimeout time.Duration // transcript uploads

	// Transcript rendering for SessionEndTranscript: report or turns
	TranscriptMode string

	// Logging
	LogFile string
	Debug   bool

	// Performance settings
	Concurrency int
}

// Default returns a Config populated with defaults.
func Default() *Config {
	c := &Config{}
	_ = c.Validate()
	return c
}

// ApplyEnv overrides fields from the environment. lookup is usually
// os.LookupEnv. A malformed timeout is an error and leaves Timeout as is.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAPIURL); ok && strings.TrimSpace(v) != "" {
		c.HooksURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvTranscriptURL); ok && strings.TrimSpace(v) != "" {
		c.TranscriptURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvAPIKey); ok {
		c.APIKey = v
	}
	if v, ok := lookup(EnvTimeout); ok && strings.TrimSpace(v) != "" {
		d, err := ParseTimeout(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	return nil
}

// ParseTimeout accepts a Go duration ("3s", "1500ms") or a bare number of
// seconds ("5", "2.5").
func ParseTimeout(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("timeout must be positive: %q", value)
		}
		return d, nil
	}
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q", value)
	}
	if secs <= 0 {
		return 0, fmt.Errorf("timeout must be positive: %q", value)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Validate fills in defaults and checks that the configuration is usable
func (c *Config) Validate() error {
	if c.HooksURL == "" {
		c.HooksURL = DefaultHooksURL
	}
	if c.TranscriptURL == "" {
		c.TranscriptURL = DefaultTranscriptURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UploadTimeout <= 0 {
		c.UploadTimeout = DefaultUploadTimeout
	}
	if c.UploadTimeout < c.Timeout {
		c.UploadTimeout = c.Timeout
	}
	if c.TranscriptMode == "" {
		c.TranscriptMode = DefaultMode
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}

	c.HooksURL = strings.TrimRight(c.HooksURL, "/")
	c.TranscriptURL = strings.TrimRight(c.TranscriptURL, "/")

	for name, raw := range map[string]string{"hooks URL": c.HooksURL, "transcript URL": c.TranscriptURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid %s: %q", name, raw)
		}
	}
	return nil
}
