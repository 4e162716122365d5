package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"incident-assignment/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.PollInterval != time.Minute {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
listenAddr: ":9999"
database:
  driver: postgres
  dsn: postgres://localhost/assign
groups:
  - grp-alpha
  - grp-beta
policy:
  recencyWindowDays: 7
  roleBaseScores:
    SME: 5.0
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q", cfg.Database.Driver)
	}
	if len(cfg.Groups) != 2 || cfg.Groups[0] != "grp-alpha" {
		t.Errorf("Groups = %v", cfg.Groups)
	}

	p := cfg.AssignmentPolicy()
	if p.RecencyWindow != 7*24*time.Hour {
		t.Errorf("RecencyWindow = %v", p.RecencyWindow)
	}
	if p.RoleBaseScores[models.RoleSME] != 5.0 {
		t.Errorf("SME score = %v", p.RoleBaseScores[models.RoleSME])
	}
	// Roles not named in the file keep their defaults.
	if p.RoleBaseScores[models.RoleL1] != 1.0 {
		t.Errorf("L1 score = %v", p.RoleBaseScores[models.RoleL1])
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listenAddr: \":9999\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LISTEN_ADDR", ":7777")
	t.Setenv("ASSIGNMENT_GROUPS", "grp-one,grp-two")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != ":7777" {
		t.Errorf("ListenAddr = %q, want env override", cfg.ListenAddr)
	}
	if len(cfg.Groups) != 2 || cfg.Groups[1] != "grp-two" {
		t.Errorf("Groups = %v", cfg.Groups)
	}
}

func TestValidateListsMissing(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	missing := cfg.Validate()
	if len(missing) == 0 {
		t.Fatal("expected missing settings for a bare config")
	}

	cfg.ServiceNow = ServiceNowConfig{BaseURL: "https://x.service-now.com", Username: "u", Password: "p"}
	cfg.Groups = []string{"grp1"}
	if missing := cfg.Validate(); len(missing) != 0 {
		t.Errorf("expected complete config, still missing %v", missing)
	}
}
