package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/logger"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Session   SessionConfig   `json:"session"`
	Admin     AdminConfig     `json:"admin"`
	Security  SecurityConfig  `json:"security"`
	Heartbeat HeartbeatConfig `json:"heartbeat"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port     string `json:"port"`
	LogLevel string `json:"log_level"`
}

// DatabaseConfig contains database-related configuration
type DatabaseConfig struct {
	Path   string `json:"path"`
	Driver string `json:"driver"`
}

// SessionConfig contains session-related configuration
type SessionConfig struct {
	SecretKey string `json:"secret_key"`
	Name      string `json:"name"`
	MaxAge    int    `json:"max_age"`
}

// AdminConfig contains the seeded admin console account
type AdminConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	BcryptCost   int      `json:"bcrypt_cost"`
	AllowedRoles []string `json:"allowed_roles"`
}

// HeartbeatConfig drives the endpoint offline sweep. The monitor runs unless
// explicitly disabled, so a config file omitting the heartbeat section keeps
// the default behavior.
type HeartbeatConfig struct {
	MonitorIntervalSeconds  int  `json:"monitor_interval_seconds"`
	OfflineThresholdSeconds int  `json:"offline_threshold_seconds"`
	Disabled                bool `json:"disabled"`
}

var AppConfig *Config

// LoadConfig loads configuration from a JSON file
func LoadConfig(configPath string) error {
	// Fall back to defaults when no config file is present
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		logger.Info("Config file %s not found, using defaults", configPath)
		AppConfig = getDefaultConfig()
		return nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %v", err)
	}

	config := &Config{}
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %v", err)
	}

	validateAndSetDefaults(config)

	AppConfig = config
	logger.Info("Configuration loaded from %s", configPath)
	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     ":5000",
			LogLevel: "info",
		},
		Database: DatabaseConfig{
			Path:   "./firewall-center.db",
			Driver: "sqlite3",
		},
		Session: SessionConfig{
			SecretKey: "something-very-secret",
			Name:      "fw-session",
			MaxAge:    86400, // 24 hours in seconds
		},
		Admin: AdminConfig{
			Username: "admin",
			Password: "admin",
			Role:     "admin",
		},
		Security: SecurityConfig{
			BcryptCost:   12,
			AllowedRoles: []string{"admin", "viewer"},
		},
		Heartbeat: HeartbeatConfig{
			MonitorIntervalSeconds:  60,
			OfflineThresholdSeconds: 300,
		},
	}
}

// validateAndSetDefaults validates configuration and sets defaults where needed
func validateAndSetDefaults(config *Config) {
	defaults := getDefaultConfig()

	if config.Server.Port == "" {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}

	if config.Database.Path == "" {
		config.Database.Path = defaults.Database.Path
	}
	if config.Database.Driver == "" {
		config.Database.Driver = defaults.Database.Driver
	}

	if config.Session.SecretKey == "" {
		config.Session.SecretKey = defaults.Session.SecretKey
	}
	if config.Session.Name == "" {
		config.Session.Name = defaults.Session.Name
	}
	if config.Session.MaxAge == 0 {
		config.Session.MaxAge = defaults.Session.MaxAge
	}

	if config.Admin.Username == "" {
		config.Admin.Username = defaults.Admin.Username
	}
	if config.Admin.Password == "" {
		config.Admin.Password = defaults.Admin.Password
	}
	if config.Admin.Role == "" {
		config.Admin.Role = defaults.Admin.Role
	}

	if config.Security.BcryptCost == 0 {
		config.Security.BcryptCost = defaults.Security.BcryptCost
	}
	if len(config.Security.AllowedRoles) == 0 {
		config.Security.AllowedRoles = defaults.Security.AllowedRoles
	}

	if config.Heartbeat.MonitorIntervalSeconds == 0 {
		config.Heartbeat.MonitorIntervalSeconds = defaults.Heartbeat.MonitorIntervalSeconds
	}
	if config.Heartbeat.OfflineThresholdSeconds == 0 {
		config.Heartbeat.OfflineThresholdSeconds = defaults.Heartbeat.OfflineThresholdSeconds
	}
}

// SaveConfig saves the current configuration to a file
func SaveConfig(configPath string) error {
	if AppConfig == nil {
		AppConfig = getDefaultConfig()
	}

	data, err := json.MarshalIndent(AppConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %v", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}

	logger.Info("Configuration saved to %s", configPath)
	return nil
}

// GetConfig returns the current configuration
func GetConfig() *Config {
	if AppConfig == nil {
		AppConfig = getDefaultConfig()
	}
	return AppConfig
}
