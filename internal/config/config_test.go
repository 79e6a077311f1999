package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 30, cfg.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, ".scannerwork/report-task.txt", cfg.ReportTaskFile)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SONAR_HOST_URL", "https://sonar.example.com/")
	t.Setenv("SONAR_TOKEN", "squ_abc")
	t.Setenv("SONAR_GATE_MAX_ATTEMPTS", "5")
	t.Setenv("SONAR_GATE_POLL_INTERVAL", "250")
	t.Setenv("SONAR_PROJECT_KEY", "my-app")
	t.Setenv("SONAR_GATE_PAGE_SIZE", "not-a-number")

	cfg := NewConfig()
	cfg.LoadFromEnvironment()

	assert.Equal(t, "https://sonar.example.com", cfg.BaseURL())
	assert.Equal(t, "squ_abc", cfg.Token)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "my-app", cfg.ProjectKey)
	assert.Equal(t, 100, cfg.PageSize, "unparseable values keep the default")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sonar-gate.yaml")
	content := "host_url: http://localhost:9000\nmax_attempts: 3\npoll_interval: 2s\nproject_key: svc\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "http://localhost:9000", cfg.HostURL)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, "svc", cfg.ProjectKey)
	assert.Equal(t, 100, cfg.PageSize)
}

func TestLoadFromFile_Missing(t *testing.T) {
	cfg := NewConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty host", func(c *Config) { c.HostURL = "" }, true},
		{"relative host", func(c *Config) { c.HostURL = "sonar.local" }, true},
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }, true},
		{"negative interval", func(c *Config) { c.PollInterval = -time.Second }, true},
		{"zero interval", func(c *Config) { c.PollInterval = 0 }, false},
		{"page size too large", func(c *Config) { c.PageSize = 501 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.HostURL = "http://localhost:9000"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
