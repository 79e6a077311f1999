package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Analysis host settings
	HostURL     string        `yaml:"host_url"`
	Token       string        `yaml:"token"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// Polling settings
	MaxAttempts  int           `yaml:"max_attempts"`
	PollInterval time.Duration `yaml:"poll_interval"`

	// Issue listing settings
	ProjectKey string `yaml:"project_key"`
	PageSize   int    `yaml:"page_size"`

	// File settings
	ReportTaskFile string `yaml:"report_task_file"`
	ReportFile     string `yaml:"report_file"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		HTTPTimeout:    30 * time.Second,
		MaxAttempts:    30,
		PollInterval:   10 * time.Second,
		PageSize:       100,
		ReportTaskFile: ".scannerwork/report-task.txt",
	}
}

// LoadFromFile overlays the values present in a YAML file
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// LoadFromEnvironment loads configuration from environment variables
func (c *Config) LoadFromEnvironment() {
	if host := os.Getenv("SONAR_HOST_URL"); host != "" {
		c.HostURL = host
	}

	if token := os.Getenv("SONAR_TOKEN"); token != "" {
		c.Token = token
	}

	if attempts := os.Getenv("SONAR_GATE_MAX_ATTEMPTS"); attempts != "" {
		if a, err := strconv.Atoi(attempts); err == nil {
			c.MaxAttempts = a
		}
	}

	if interval := os.Getenv("SONAR_GATE_POLL_INTERVAL"); interval != "" {
		if i, err := strconv.Atoi(interval); err == nil {
			c.PollInterval = time.Duration(i) * time.Millisecond
		}
	}

	if projectKey := os.Getenv("SONAR_PROJECT_KEY"); projectKey != "" {
		c.ProjectKey = projectKey
	}

	if pageSize := os.Getenv("SONAR_GATE_PAGE_SIZE"); pageSize != "" {
		if p, err := strconv.Atoi(pageSize); err == nil {
			c.PageSize = p
		}
	}

	if reportTask := os.Getenv("SONAR_GATE_REPORT_TASK"); reportTask != "" {
		c.ReportTaskFile = reportTask
	}

	if report := os.Getenv("SONAR_GATE_REPORT"); report != "" {
		c.ReportFile = report
	}
}

// BaseURL returns the host URL without a trailing slash
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.HostURL, "/")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.HostURL == "" {
		return fmt.Errorf("host URL cannot be empty")
	}

	parsed, err := url.Parse(c.HostURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("host URL must be an absolute http(s) URL, got: %q", c.HostURL)
	}

	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got: %d", c.MaxAttempts)
	}

	if c.PollInterval < 0 {
		return fmt.Errorf("poll interval must be non-negative, got: %v", c.PollInterval)
	}

	if c.PageSize < 1 || c.PageSize > 500 {
		return fmt.Errorf("page size must be between 1 and 500, got: %d", c.PageSize)
	}

	return nil
}
