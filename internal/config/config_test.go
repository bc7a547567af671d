package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// --- Validate ---

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Defaults()
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.General.LogLevel = "verbose"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestValidate_ValidLogLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := Defaults()
		cfg.General.LogLevel = level
		if err := Validate(cfg); err != nil {
			t.Fatalf("level %q should be valid: %v", level, err)
		}
	}
}

func TestValidate_InvalidTransport(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Transport = "websocket"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for invalid transport")
	}
}

func TestValidate_TCPRequiresAddr(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Transport = "tcp"
	cfg.Server.Addr = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for tcp without addr")
	}

	cfg.Server.Addr = "127.0.0.1:8700"
	if err := Validate(cfg); err != nil {
		t.Fatalf("tcp with addr should be valid: %v", err)
	}
}

func TestValidate_NegativeTimeouts(t *testing.T) {
	cfg := Defaults()
	cfg.Tools.Exec.TimeoutSeconds = -1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for negative exec timeout")
	}

	cfg = Defaults()
	cfg.Tools.Web.TimeoutSeconds = -5
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for negative web timeout")
	}
}

func TestValidate_EmptyPlanPath(t *testing.T) {
	cfg := Defaults()
	cfg.Plan.Path = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for empty plan path")
	}
}

func TestValidate_AuditNeedsDBPath(t *testing.T) {
	cfg := Defaults()
	cfg.Audit.Enabled = true
	cfg.Audit.DBPath = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for enabled audit without dbPath")
	}
}

func TestValidate_MetricsEndpoint(t *testing.T) {
	cfg := Defaults()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Endpoint = "metrics"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for endpoint without leading slash")
	}
}

// --- Load / Save ---

func TestLoadSave_RoundTripJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	original := Defaults()
	original.Server.Transport = "tcp"
	original.Server.Addr = "127.0.0.1:9999"
	original.Tools.Exec.TimeoutSeconds = 45

	if err := Save(path, original); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Server.Transport != "tcp" || loaded.Server.Addr != "127.0.0.1:9999" {
		t.Fatalf("server config lost in round trip: %+v", loaded.Server)
	}
	if loaded.Tools.Exec.TimeoutSeconds != 45 {
		t.Fatalf("expected timeout 45, got %d", loaded.Tools.Exec.TimeoutSeconds)
	}
}

func TestLoadSave_RoundTripYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	original := Defaults()
	original.Plan.Path = "/tmp/plans/action_plan.md"

	if err := Save(path, original); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Plan.Path != "/tmp/plans/action_plan.md" {
		t.Fatalf("plan path lost in YAML round trip: %q", loaded.Plan.Path)
	}
	if loaded.Server.Transport != "stdio" {
		t.Fatalf("defaults should survive YAML round trip: %q", loaded.Server.Transport)
	}
}

func TestLoad_YAMLByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := "server:\n  transport: tcp\n  addr: 0.0.0.0:7000\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if cfg.Server.Transport != "tcp" || cfg.Server.Addr != "0.0.0.0:7000" {
		t.Fatalf("yaml values not applied: %+v", cfg.Server)
	}
	if cfg.Plan.Path == "" {
		t.Fatal("unset sections should keep defaults")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.json")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	os.WriteFile(path, []byte("{not json}"), 0o644)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoad_ValidatesConfig(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.json")
	content := `{"server": {"transport": "carrier-pigeon"}}`
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(cfgFile)
	if err == nil {
		t.Fatal("expected validation error for bad transport")
	}
}

func TestLoad_CredentialsFromEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, "env-api-key")
	t.Setenv(EnvEngineID, "env-engine-id")

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.json")
	if err := os.WriteFile(cfgFile, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgFile)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Tools.Web.APIKey != "env-api-key" {
		t.Fatalf("expected env api key, got %q", cfg.Tools.Web.APIKey)
	}
	if cfg.Tools.Web.EngineID != "env-engine-id" {
		t.Fatalf("expected env engine id, got %q", cfg.Tools.Web.EngineID)
	}
}

func TestLoad_FileCredentialsWinOverEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, "env-api-key")

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.json")
	content := `{"tools": {"web": {"apiKey": "file-api-key"}}}`
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgFile)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Tools.Web.APIKey != "file-api-key" {
		t.Fatalf("file value should win, got %q", cfg.Tools.Web.APIKey)
	}
}

func TestFromEnv_PicksUpCredentials(t *testing.T) {
	t.Setenv(EnvAPIKey, "k")
	t.Setenv(EnvEngineID, "cx")

	cfg := FromEnv()
	if cfg.Tools.Web.APIKey != "k" || cfg.Tools.Web.EngineID != "cx" {
		t.Fatalf("credentials not picked up: %+v", cfg.Tools.Web)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("FromEnv config should validate: %v", err)
	}
}

// --- Accessor ---

func TestGetByPath_ValidPaths(t *testing.T) {
	cfg := Defaults()

	val, err := GetByPath(cfg, "server.transport")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != "stdio" {
		t.Fatalf("expected 'stdio', got %v", val)
	}
}

func TestGetByPath_InvalidPath(t *testing.T) {
	cfg := Defaults()
	_, err := GetByPath(cfg, "nonexistent.path")
	if err == nil {
		t.Fatal("expected error for nonexistent path")
	}
}

func TestSetByPath_ValidPath(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "plan.path", "/data/plan.md"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if cfg.Plan.Path != "/data/plan.md" {
		t.Fatalf("expected '/data/plan.md', got %q", cfg.Plan.Path)
	}
}

func TestSetByPath_BoolConversion(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "audit.enabled", "true"); err != nil {
		t.Fatalf("set bool: %v", err)
	}
	if !cfg.Audit.Enabled {
		t.Fatal("expected audit.enabled=true")
	}
}

func TestSetByPath_IntConversion(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "tools.exec.timeoutSeconds", "60"); err != nil {
		t.Fatalf("set int: %v", err)
	}
	if cfg.Tools.Exec.TimeoutSeconds != 60 {
		t.Fatalf("expected 60, got %d", cfg.Tools.Exec.TimeoutSeconds)
	}
}

// --- Sanitize ---

func TestSanitize_MasksCredentials(t *testing.T) {
	cfg := Defaults()
	cfg.Tools.Web.APIKey = "AIzaSyA-long-api-key-value"
	cfg.Tools.Web.EngineID = "engine-id-12345678"

	sanitized := Sanitize(cfg)

	if sanitized.Tools.Web.APIKey == cfg.Tools.Web.APIKey {
		t.Fatal("api key should be masked")
	}
	if sanitized.Tools.Web.EngineID == cfg.Tools.Web.EngineID {
		t.Fatal("engine id should be masked")
	}
	// Verify original is untouched
	if cfg.Tools.Web.APIKey != "AIzaSyA-long-api-key-value" {
		t.Fatal("original config should not be modified")
	}
}

func TestSanitize_ShortSecret(t *testing.T) {
	cfg := Defaults()
	cfg.Tools.Web.APIKey = "short"
	sanitized := Sanitize(cfg)
	if sanitized.Tools.Web.APIKey != "***" {
		t.Fatalf("short secret should be '***', got %q", sanitized.Tools.Web.APIKey)
	}
}

// --- ListPaths ---

func TestListPaths_ReturnsAllLeaves(t *testing.T) {
	cfg := Defaults()
	paths := ListPaths(cfg)
	if len(paths) == 0 {
		t.Fatal("expected non-empty paths")
	}

	for _, expected := range []string{"general.logLevel", "server.transport", "plan.path", "audit.enabled"} {
		if _, ok := paths[expected]; !ok {
			t.Errorf("missing expected path: %s", expected)
		}
	}
}

// --- ExpandEnvVars ---

func TestExpandEnvVars_SimpleSubstitution(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-abc123")
	result := ExpandEnvVars(`{"apiKey": "${TEST_API_KEY}"}`)
	expected := `{"apiKey": "sk-abc123"}`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_DefaultValue(t *testing.T) {
	os.Unsetenv("NONEXISTENT_VAR_12345")
	result := ExpandEnvVars(`{"addr": "${NONEXISTENT_VAR_12345:-127.0.0.1:8700}"}`)
	expected := `{"addr": "127.0.0.1:8700"}`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_SetVarOverridesDefault(t *testing.T) {
	t.Setenv("MY_PORT", "9090")
	result := ExpandEnvVars(`{"port": "${MY_PORT:-8080}"}`)
	expected := `{"port": "9090"}`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_UnsetVarNoDefault_KeepsOriginal(t *testing.T) {
	os.Unsetenv("TOTALLY_UNSET_VAR_XYZ")
	result := ExpandEnvVars(`"${TOTALLY_UNSET_VAR_XYZ}"`)
	expected := `"${TOTALLY_UNSET_VAR_XYZ}"`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_EmptyVarUsesDefault(t *testing.T) {
	t.Setenv("EMPTY_VAR", "")
	result := ExpandEnvVars(`"${EMPTY_VAR:-fallback}"`)
	expected := `"fallback"`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_DollarSignWithoutBraces(t *testing.T) {
	input := `"$HOME is not substituted"`
	result := ExpandEnvVars(input)
	if result != input {
		t.Fatalf("expected no change for bare $VAR, got %q", result)
	}
}

func TestLoad_WithEnvVarSubstitution(t *testing.T) {
	t.Setenv("TEST_CODERD_PLAN", "/tmp/test-plan/action_plan.md")

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.json")
	content := `{"plan": {"path": "${TEST_CODERD_PLAN}"}}`
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Plan.Path != "/tmp/test-plan/action_plan.md" {
		t.Fatalf("expected substituted plan path, got %q", cfg.Plan.Path)
	}
}

// --- Defaults ---

func TestDefaults_ReturnsValidConfig(t *testing.T) {
	cfg := Defaults()
	if cfg == nil {
		t.Fatal("defaults returned nil")
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("defaults should be valid: %v", err)
	}
	if cfg.Server.Transport != "stdio" {
		t.Fatalf("default transport should be stdio, got %q", cfg.Server.Transport)
	}
	if cfg.Plan.Path != "project_plan/action_plan.md" {
		t.Fatalf("unexpected default plan path: %q", cfg.Plan.Path)
	}
	if cfg.Tools.Exec.TimeoutSeconds != 0 {
		t.Fatal("exec timeout should default to none")
	}
}

func TestDefaultConfigPath_UnderHome(t *testing.T) {
	path := DefaultConfigPath()
	if !strings.HasSuffix(path, filepath.Join(".coderd", "config.json")) {
		t.Fatalf("unexpected default config path: %q", path)
	}
}
