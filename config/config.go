// Package config holds the values the commands need, read once at startup
// from the environment and an optional .env file. Core packages never read
// the environment themselves; they receive what they need from Config.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/polliog/launch-outreach/store"
)

var (
	ErrMissingCredentials = errors.New("missing mail credentials")
	ErrMissingTestEmail   = errors.New("test mode needs a test address")
)

const (
	TransportResend = "resend"
	TransportSMTP   = "smtp"

	journalFile = "deliveries.db"
)

type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string
}

type Config struct {
	ResendAPIKey  string
	ResendBaseURL string
	FromEmail     string
	TestEmail     string
	SMTP          SMTP

	DataDir      string
	TemplateFile string
	SendDelay    time.Duration
	ListingURL   string
	Headless     bool

	S3 store.S3Options
}

// LoadEnvFile loads path into the process environment. A missing file is
// not an error; variables already set are left alone.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}

	return nil
}

// FromEnv builds a Config from lookup, usually os.LookupEnv, with defaults
// applied.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)

		return strings.TrimSpace(v)
	}

	cfg := Config{
		ResendAPIKey:  get("RESEND_API_KEY"),
		ResendBaseURL: get("RESEND_BASE_URL"),
		FromEmail:     get("FROM_EMAIL"),
		TestEmail:     get("TEST_EMAIL"),
		SMTP: SMTP{
			Host:     get("SMTP_HOST"),
			User:     get("SMTP_USER"),
			Password: get("SMTP_PASSWORD"),
		},
		DataDir:      get("DATA_DIR"),
		TemplateFile: get("TEMPLATE_FILE"),
		ListingURL:   get("LISTING_URL"),
		S3: store.S3Options{
			Bucket:          get("S3_BUCKET"),
			Prefix:          get("S3_PREFIX"),
			Region:          get("S3_REGION"),
			Endpoint:        get("S3_ENDPOINT"),
			AccessKeyID:     get("S3_ACCESS_KEY_ID"),
			SecretAccessKey: get("S3_SECRET_ACCESS_KEY"),
		},
		Headless: true,
	}

	if v := get("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("SMTP_PORT: %w", err)
		}

		cfg.SMTP.Port = port
	}

	if v := get("SEND_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("SEND_DELAY: %w", err)
		}

		cfg.SendDelay = d
	}

	if v := get("HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("HEADLESS: %w", err)
		}

		cfg.Headless = b
	}

	cfg.ApplyDefaults()

	return cfg, cfg.Validate()
}

func (c *Config) ApplyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}

	if c.TemplateFile == "" {
		c.TemplateFile = "template.txt"
	}

	if c.SendDelay == 0 {
		c.SendDelay = 5 * time.Second
	}

	if c.ListingURL == "" {
		c.ListingURL = "https://www.producthunt.com"
	}

	if c.SMTP.Host != "" && c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
}

func (c *Config) Validate() error {
	if c.SendDelay < 0 {
		return errors.New("send delay cannot be negative")
	}

	u, err := url.Parse(c.ListingURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("listing url %q must be an absolute http(s) url", c.ListingURL)
	}

	if c.S3.AccessKeyID != "" && c.S3.SecretAccessKey == "" {
		return errors.New("S3_SECRET_ACCESS_KEY is required with S3_ACCESS_KEY_ID")
	}

	if c.SMTP.Port < 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("smtp port %d out of range", c.SMTP.Port)
	}

	return nil
}

// Transport names the mail transport the config selects: SMTP when a host
// is set, Resend otherwise.
func (c *Config) Transport() string {
	if c.SMTP.Host != "" {
		return TransportSMTP
	}

	return TransportResend
}

// ValidateDelivery checks what a delivery pass needs before any record is
// touched. testEmail is the flag override for TEST_EMAIL.
func (c *Config) ValidateDelivery(testMode bool, testEmail string) error {
	if c.FromEmail == "" {
		return fmt.Errorf("%w: FROM_EMAIL is not set", ErrMissingCredentials)
	}

	if c.Transport() == TransportResend && c.ResendAPIKey == "" {
		return fmt.Errorf("%w: RESEND_API_KEY is not set", ErrMissingCredentials)
	}

	if c.Transport() == TransportSMTP && c.SMTP.User != "" && c.SMTP.Password == "" {
		return fmt.Errorf("%w: SMTP_PASSWORD is not set for %s", ErrMissingCredentials, c.SMTP.User)
	}

	if testMode && c.TestRecipient(testEmail) == "" {
		return ErrMissingTestEmail
	}

	return nil
}

// TestRecipient is the test-mode address: the override when given,
// TEST_EMAIL otherwise.
func (c *Config) TestRecipient(override string) string {
	if override != "" {
		return override
	}

	return c.TestEmail
}

// RecordPath is the record store for a scrape date.
func (c *Config) RecordPath(date string) string {
	return filepath.Join(c.DataDir, store.FileName(date))
}

func (c *Config) JournalPath() string {
	return filepath.Join(c.DataDir, journalFile)
}
