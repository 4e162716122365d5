package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"incident-assignment/internal/assignment"
	"incident-assignment/internal/models"
)

// Config is loaded in layers: defaults, then an optional YAML file, then
// environment variables.
type Config struct {
	ListenAddr string `yaml:"listenAddr" envconfig:"LISTEN_ADDR"`

	Database   DatabaseConfig   `yaml:"database"`
	ServiceNow ServiceNowConfig `yaml:"servicenow"`

	// Groups lists the assignment group sys_ids the poller monitors.
	Groups       []string      `yaml:"groups"       envconfig:"ASSIGNMENT_GROUPS"`
	PollInterval time.Duration `yaml:"pollInterval" envconfig:"POLL_INTERVAL"`
	PollLookback time.Duration `yaml:"pollLookback" envconfig:"POLL_LOOKBACK"`
	QueueSize    int           `yaml:"queueSize"    envconfig:"QUEUE_SIZE"`

	// CreatedBy is stamped on history rows written by this instance.
	CreatedBy string `yaml:"createdBy" envconfig:"CREATED_BY"`

	Policy PolicyConfig `yaml:"policy"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" envconfig:"DATABASE_DRIVER"`
	DSN    string `yaml:"dsn"    envconfig:"DATABASE_DSN"`
}

type ServiceNowConfig struct {
	BaseURL  string `yaml:"baseUrl"  envconfig:"SERVICENOW_BASE_URL"`
	Username string `yaml:"username" envconfig:"SERVICENOW_USERNAME"`
	Password string `yaml:"password" envconfig:"SERVICENOW_PASSWORD"`
}

type PolicyConfig struct {
	RoleBaseScores    map[string]float64 `yaml:"roleBaseScores"`
	RecencyWindowDays int                `yaml:"recencyWindowDays" envconfig:"RECENCY_WINDOW_DAYS"`
}

func defaults() *Config {
	return &Config{
		ListenAddr: ":8080",
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "file:incident_assignment.db",
		},
		PollInterval: time.Minute,
		PollLookback: 10 * time.Minute,
		QueueSize:    100,
		CreatedBy:    "assignment-engine",
		Policy: PolicyConfig{
			RecencyWindowDays: 30,
		},
	}
}

// Load builds the config from defaults, the YAML file at path (skipped
// when path is empty), and environment overrides, in that order.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return cfg, nil
}

// Validate returns the list of missing settings required to run the
// poller/processor worker. The API server only needs the database block.
func (c *Config) Validate() []string {
	var missing []string
	if c.Database.Driver == "" {
		missing = append(missing, "database driver")
	}
	if c.Database.DSN == "" {
		missing = append(missing, "database DSN")
	}
	if c.ServiceNow.BaseURL == "" {
		missing = append(missing, "ServiceNow base URL")
	}
	if c.ServiceNow.Username == "" {
		missing = append(missing, "ServiceNow username")
	}
	if c.ServiceNow.Password == "" {
		missing = append(missing, "ServiceNow password")
	}
	if len(c.Groups) == 0 {
		missing = append(missing, "assignment groups")
	}
	return missing
}

// AssignmentPolicy materializes the policy block, falling back to the
// built-in role scores for roles left unset.
func (c *Config) AssignmentPolicy() assignment.Policy {
	p := assignment.DefaultPolicy()
	for name, score := range c.Policy.RoleBaseScores {
		role := models.Role(name)
		if role.Valid() && score > 0 {
			p.RoleBaseScores[role] = score
		}
	}
	if c.Policy.RecencyWindowDays > 0 {
		p.RecencyWindow = time.Duration(c.Policy.RecencyWindowDays) * 24 * time.Hour
	}
	return p
}
