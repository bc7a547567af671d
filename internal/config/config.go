package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Env variables consulted for web search credentials when the config file
// does not set them.
const (
	EnvAPIKey   = "GOOGLE_API_KEY"
	EnvEngineID = "GOOGLE_SEARCH_ENGINE_ID"
)

// Config is the root configuration for coderd. It is constructed once at
// startup; nothing re-reads the environment after that.
type Config struct {
	General GeneralConfig `json:"general" yaml:"general"`
	Server  ServerConfig  `json:"server" yaml:"server"`
	Tools   ToolsConfig   `json:"tools" yaml:"tools"`
	Plan    PlanConfig    `json:"plan" yaml:"plan"`
	Audit   AuditConfig   `json:"audit" yaml:"audit"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel" yaml:"logLevel"`
	LogFile  string `json:"logFile,omitempty" yaml:"logFile,omitempty"`
}

// ServerConfig selects the MCP transport.
type ServerConfig struct {
	Transport string `json:"transport" yaml:"transport"` // "stdio" | "tcp"
	Addr      string `json:"addr" yaml:"addr"`           // listen address for tcp
}

type ToolsConfig struct {
	Exec ExecToolConfig `json:"exec" yaml:"exec"`
	Web  WebToolConfig  `json:"web" yaml:"web"`
}

// ExecToolConfig bounds execute_command. Zero values mean no timeout and
// no output cap.
type ExecToolConfig struct {
	TimeoutSeconds int `json:"timeoutSeconds" yaml:"timeoutSeconds"`
	MaxOutputBytes int `json:"maxOutputBytes" yaml:"maxOutputBytes"`
}

// WebToolConfig holds Google Custom Search credentials and the request
// timeout shared by search_web and fetch_url. Zero timeout means none.
type WebToolConfig struct {
	APIKey         string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	EngineID       string `json:"engineId,omitempty" yaml:"engineId,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds" yaml:"timeoutSeconds"`
}

// PlanConfig locates the project plan document. A relative path is
// resolved against the server's working directory.
type PlanConfig struct {
	Path string `json:"path" yaml:"path"`
}

type AuditConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	DBPath  string `json:"dbPath" yaml:"dbPath"`
}

type MetricsConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Addr     string `json:"addr" yaml:"addr"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// DefaultConfigDir returns the default config directory (~/.coderd).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".coderd"
	}
	return filepath.Join(home, ".coderd")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// Load reads, expands and validates a config file. Files ending in .yaml
// or .yml are parsed as YAML, everything else as JSON.
func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	}

	normalize(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// FromEnv returns the default configuration with credential overrides
// applied from the process environment. Used when no config file exists.
func FromEnv() *Config {
	cfg := Defaults()
	normalize(cfg)
	return cfg
}

// normalize expands paths and fills credentials from the environment when
// the file left them empty.
func normalize(cfg *Config) {
	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)
	cfg.Audit.DBPath = ExpandPath(cfg.Audit.DBPath)
	cfg.Plan.Path = ExpandPath(cfg.Plan.Path)

	if cfg.Tools.Web.APIKey == "" {
		cfg.Tools.Web.APIKey = os.Getenv(EnvAPIKey)
	}
	if cfg.Tools.Web.EngineID == "" {
		cfg.Tools.Web.EngineID = os.Getenv(EnvEngineID)
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

// Save writes the config to path in the format its extension implies.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	switch cfg.Server.Transport {
	case "stdio":
		// valid
	case "tcp":
		if cfg.Server.Addr == "" {
			errs = append(errs, "server.addr is required for tcp transport")
		}
	default:
		errs = append(errs, "server.transport must be one of: stdio, tcp")
	}

	if cfg.Tools.Exec.TimeoutSeconds < 0 {
		errs = append(errs, "tools.exec.timeoutSeconds must be >= 0")
	}
	if cfg.Tools.Exec.MaxOutputBytes < 0 {
		errs = append(errs, "tools.exec.maxOutputBytes must be >= 0")
	}
	if cfg.Tools.Web.TimeoutSeconds < 0 {
		errs = append(errs, "tools.web.timeoutSeconds must be >= 0")
	}

	if cfg.Plan.Path == "" {
		errs = append(errs, "plan.path must not be empty")
	}

	if cfg.Audit.Enabled && cfg.Audit.DBPath == "" {
		errs = append(errs, "audit.dbPath is required when audit is enabled")
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Addr == "" {
			errs = append(errs, "metrics.addr is required when metrics are enabled")
		}
		if !strings.HasPrefix(cfg.Metrics.Endpoint, "/") {
			errs = append(errs, "metrics.endpoint must start with /")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
