package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]

		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	require.NoError(t, err)
	require.Equal(t, "data", cfg.DataDir)
	require.Equal(t, "template.txt", cfg.TemplateFile)
	require.Equal(t, 5*time.Second, cfg.SendDelay)
	require.Equal(t, "https://www.producthunt.com", cfg.ListingURL)
	require.True(t, cfg.Headless)
	require.Equal(t, TransportResend, cfg.Transport())
	require.Equal(t, filepath.Join("data", "launches-2026-01-08.csv"), cfg.RecordPath("2026-01-08"))
	require.Equal(t, filepath.Join("data", "deliveries.db"), cfg.JournalPath())
}

func TestFromEnvValues(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"FROM_EMAIL":    "me@launch.dev",
		"SMTP_HOST":     "smtp.launch.dev",
		"SMTP_USER":     "me",
		"SMTP_PASSWORD": "secret",
		"SEND_DELAY":    "250ms",
		"HEADLESS":      "false",
		"DATA_DIR":      "/var/lib/launches",
	}))
	require.NoError(t, err)
	require.Equal(t, TransportSMTP, cfg.Transport())
	require.Equal(t, 587, cfg.SMTP.Port)
	require.Equal(t, 250*time.Millisecond, cfg.SendDelay)
	require.False(t, cfg.Headless)
	require.NoError(t, cfg.ValidateDelivery(false, ""))
}

func TestFromEnvInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port", map[string]string{"SMTP_PORT": "smtp"}},
		{"delay", map[string]string{"SEND_DELAY": "5"}},
		{"negative delay", map[string]string{"SEND_DELAY": "-1s"}},
		{"headless", map[string]string{"HEADLESS": "sometimes"}},
		{"listing", map[string]string{"LISTING_URL": "producthunt.com"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromEnv(env(tc.env))
			require.Error(t, err)
		})
	}
}

func TestValidateDelivery(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		testMode  bool
		testEmail string
		wantErr   error
	}{
		{
			name:    "no sender",
			cfg:     Config{ResendAPIKey: "re_x"},
			wantErr: ErrMissingCredentials,
		},
		{
			name:    "no api key",
			cfg:     Config{FromEmail: "me@launch.dev"},
			wantErr: ErrMissingCredentials,
		},
		{
			name:    "smtp user without password",
			cfg:     Config{FromEmail: "me@launch.dev", SMTP: SMTP{Host: "smtp.launch.dev", User: "me"}},
			wantErr: ErrMissingCredentials,
		},
		{
			name:     "test mode without address",
			cfg:      Config{FromEmail: "me@launch.dev", ResendAPIKey: "re_x"},
			testMode: true,
			wantErr:  ErrMissingTestEmail,
		},
		{
			name:      "test mode with flag address",
			cfg:       Config{FromEmail: "me@launch.dev", ResendAPIKey: "re_x"},
			testMode:  true,
			testEmail: "me@test.dev",
		},
		{
			name:     "test mode with env address",
			cfg:      Config{FromEmail: "me@launch.dev", ResendAPIKey: "re_x", TestEmail: "me@test.dev"},
			testMode: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.ValidateDelivery(tc.testMode, tc.testEmail)
			if tc.wantErr == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LAUNCH_OUTREACH_TEST_KEY=from-file\n"), 0o600))

	t.Setenv("LAUNCH_OUTREACH_TEST_KEY", "")
	os.Unsetenv("LAUNCH_OUTREACH_TEST_KEY")

	require.NoError(t, LoadEnvFile(path))
	require.Equal(t, "from-file", os.Getenv("LAUNCH_OUTREACH_TEST_KEY"))
}
