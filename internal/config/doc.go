// Package config provides configuration loading and validation for the
// interview voice service. It handles YAML-based configuration with
// per-section validation and environment overrides for API keys.
package config
