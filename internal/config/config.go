package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPath   = "kvpview.yaml"
	DefaultLogDir = "~/.kvpview/logs/"
)

// Config is the top-level configuration.
type Config struct {
	Job      JobConfig      `yaml:"job"`
	Database DatabaseConfig `yaml:"database,omitempty"`
	Logging  LogConfig      `yaml:"logging,omitempty"`
}

// JobConfig describes one ranking dataset to unpivot and fold into the union view.
type JobConfig struct {
	Source    ObjectRef   `yaml:"source"`
	Target    ObjectRef   `yaml:"target"`
	Constants Constants   `yaml:"constants"`
	Year      int         `yaml:"year"`
	Union     UnionConfig `yaml:"union,omitempty"`
}

// ObjectRef names a schema-qualified view.
type ObjectRef struct {
	Schema string `yaml:"schema"`
	View   string `yaml:"view"`
}

// Constants are stamped onto every generated row.
type Constants struct {
	Ranking       string `yaml:"ranking"`
	RankingDetail string `yaml:"ranking_detail"`
}

// UnionConfig names the multi-year union view. An empty View disables the union step.
type UnionConfig struct {
	View   string `yaml:"view,omitempty"`
	Prefix string `yaml:"prefix,omitempty"` // default: target view minus "_<year>_vw"
}

// DatabaseConfig holds connection settings from the config file. Environment
// variables and flags take precedence; see ResolveDatabase.
type DatabaseConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	Name     string `yaml:"name,omitempty"`
	SSLMode  string `yaml:"sslmode,omitempty"`
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level     string `yaml:"level,omitempty"`     // debug, info, warn, error
	Directory string `yaml:"directory,omitempty"` // default ~/.kvpview/logs/
}

// MissingKeysError is returned when required job keys are absent.
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return "missing required config keys: " + strings.Join(e.Keys, ", ")
}

// Load reads and parses the config file from the given path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(ExpandHome(path))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return Parse(data)
}

// Parse decodes, validates and defaults a config document.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) validate() error {
	required := map[string]string{
		"job.source.schema":            c.Job.Source.Schema,
		"job.source.view":              c.Job.Source.View,
		"job.target.schema":            c.Job.Target.Schema,
		"job.target.view":              c.Job.Target.View,
		"job.constants.ranking":        c.Job.Constants.Ranking,
		"job.constants.ranking_detail": c.Job.Constants.RankingDetail,
	}

	var missing []string
	for key, val := range required {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, key)
		}
	}
	if c.Job.Year == 0 {
		missing = append(missing, "job.year")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingKeysError{Keys: missing}
	}
	if c.Job.Year < 0 {
		return fmt.Errorf("job.year must be positive, got %d", c.Job.Year)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Job.Union.Prefix == "" {
		c.Job.Union.Prefix = DerivePrefix(c.Job.Target.View, c.Job.Year)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Directory == "" {
		c.Logging.Directory = ExpandHome(DefaultLogDir)
	}
}

// DerivePrefix strips the "_<year>_vw" suffix from a yearly view name, so
// kvp_arab_2026_vw yields kvp_arab. Names without the suffix are returned unchanged.
func DerivePrefix(view string, year int) string {
	suffix := fmt.Sprintf("_%d_vw", year)
	if p, ok := strings.CutSuffix(view, suffix); ok && p != "" {
		return p
	}
	return view
}

var secretPattern = regexp.MustCompile(`\$\{(ENV|VAULT|AWS_SM):([^}]+)\}`)

// ResolveValue resolves secret references in a string value.
func ResolveValue(val string) (string, error) {
	matches := secretPattern.FindStringSubmatch(val)
	if matches == nil {
		return val, nil
	}

	provider := matches[1]
	ref := matches[2]

	switch provider {
	case "ENV":
		v := os.Getenv(ref)
		if v == "" {
			return "", fmt.Errorf("environment variable %s not set", ref)
		}
		return v, nil
	case "VAULT":
		return resolveVault(ref)
	case "AWS_SM":
		return resolveAWSSecretsManager(ref)
	default:
		return "", fmt.Errorf("unknown secrets provider: %s", provider)
	}
}

// ExpandHome expands ~ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
