package config

// Defaults returns the baseline configuration. Tool limits default to
// zero: no exec timeout, no output cap, no web timeout. Web credentials
// default to empty and are filled from the environment at load time.
func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Server: ServerConfig{
			Transport: "stdio",
			Addr:      "127.0.0.1:8700",
		},
		Plan: PlanConfig{
			Path: "project_plan/action_plan.md",
		},
		Audit: AuditConfig{
			Enabled: false,
			DBPath:  "~/.coderd/audit.db",
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Addr:     "127.0.0.1:9090",
			Endpoint: "/metrics",
		},
	}
}
