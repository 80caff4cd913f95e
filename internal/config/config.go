package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type ProjectConfig struct {
	Project   string         `yaml:"project"`
	Version   int            `yaml:"version"`
	Documents string         `yaml:"documents"`
	Schema    string         `yaml:"schema"`
	Database  DatabaseConfig `yaml:"database"`
	Neo4j     Neo4jConfig    `yaml:"neo4j"`
	Log       LogConfig      `yaml:"log"`
	Autosave  bool           `yaml:"autosave"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// Driver derives the store driver from the DSN scheme, or "" when unset or unknown.
func (d DatabaseConfig) Driver() string {
	dsn := strings.TrimSpace(d.DSN)
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return DriverSQLite
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DriverPostgres
	default:
		return ""
	}
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

func (n Neo4jConfig) Enabled() bool {
	return strings.TrimSpace(n.URI) != ""
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *ProjectConfig) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = LogFormatConsole
	}
	if cfg.Neo4j.Enabled() && cfg.Neo4j.Database == "" {
		cfg.Neo4j.Database = "neo4j"
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if strings.TrimSpace(cfg.Documents) == "" {
		return fmt.Errorf("documents directory is required")
	}
	if strings.TrimSpace(cfg.Database.DSN) != "" && cfg.Database.Driver() == "" {
		return fmt.Errorf("unsupported database dsn scheme: %s", cfg.Database.DSN)
	}
	if err := validateLogConfig(cfg.Log); err != nil {
		return err
	}
	return nil
}
