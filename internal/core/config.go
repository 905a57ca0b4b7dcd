// Package core contains the business logic of the todo app: the task store
// and its lifecycle rules, validation, display projection and configuration.
package core

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/todo/pkg/models"
)

// ConfigFileName is the name of the YAML configuration file in the base path.
const ConfigFileName = ".todoconfig"

// ConfigurationManager loads and validates the .todoconfig file.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .todoconfig from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns the configuration used when .todoconfig is
// absent or leaves a key unset.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		Storage: models.StorageConfig{
			Backend: models.BackendFile,
			Redis: models.RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "todo:",
			},
		},
		Sort: models.SortConfig{
			Key:       string(models.SortByDateCreated),
			Direction: models.Descending.String(),
		},
		Log: models.LogConfig{
			Level:      "info",
			Format:     "json",
			Output:     "file",
			File:       "logs/todo.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Notifications: models.NotificationConfig{
			Enabled: true,
		},
		Alerts: models.AlertConfig{
			OverdueGraceHours:   0,
			StaleInProgressDays: 3,
		},
	}
}

// LoadGlobalConfig reads .todoconfig using Viper. Missing file or keys fall
// back to DefaultGlobalConfig. TODO_* environment variables override file
// values (e.g. TODO_STORAGE_BACKEND=sqlite).
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	def := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix("TODO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("storage.backend", def.Storage.Backend)
	v.SetDefault("storage.path", def.Storage.Path)
	v.SetDefault("storage.redis.addr", def.Storage.Redis.Addr)
	v.SetDefault("storage.redis.password", def.Storage.Redis.Password)
	v.SetDefault("storage.redis.db", def.Storage.Redis.DB)
	v.SetDefault("storage.redis.prefix", def.Storage.Redis.Prefix)
	v.SetDefault("sort.key", def.Sort.Key)
	v.SetDefault("sort.direction", def.Sort.Direction)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.output", def.Log.Output)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.max_size_mb", def.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", def.Log.MaxBackups)
	v.SetDefault("log.max_age_days", def.Log.MaxAgeDays)
	v.SetDefault("notifications.enabled", def.Notifications.Enabled)
	v.SetDefault("notifications.slack.webhook_url", def.Notifications.Slack.WebhookURL)
	v.SetDefault("alerts.overdue_grace_hours", def.Alerts.OverdueGraceHours)
	v.SetDefault("alerts.stale_in_progress_days", def.Alerts.StaleInProgressDays)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	cfg := &models.GlobalConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ConfigFileName, err)
	}
	return cfg, nil
}

var validBackends = map[string]bool{
	models.BackendFile:   true,
	models.BackendBadger: true,
	models.BackendSQLite: true,
	models.BackendRedis:  true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig reports every invalid value in cfg in a single error.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if !validBackends[cfg.Storage.Backend] {
		errs = append(errs, fmt.Sprintf(
			"storage.backend %q is invalid, must be one of: file, badger, sqlite, redis",
			cfg.Storage.Backend,
		))
	}
	if cfg.Storage.Backend == models.BackendRedis && cfg.Storage.Redis.Addr == "" {
		errs = append(errs, "storage.redis.addr must not be empty when storage.backend is redis")
	}
	if cfg.Storage.Redis.DB < 0 {
		errs = append(errs, fmt.Sprintf("storage.redis.db must be non-negative, got %d", cfg.Storage.Redis.DB))
	}

	if _, err := models.ParseSortKey(cfg.Sort.Key); err != nil {
		errs = append(errs, fmt.Sprintf("sort.key: %v", err))
	}
	if _, err := models.ParseSortDirection(cfg.Sort.Direction); err != nil {
		errs = append(errs, fmt.Sprintf("sort.direction: %v", err))
	}

	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		errs = append(errs, fmt.Sprintf(
			"log.level %q is invalid, must be one of: debug, info, warn, error",
			cfg.Log.Level,
		))
	}
	switch cfg.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q is invalid, must be json or console", cfg.Log.Format))
	}
	switch cfg.Log.Output {
	case "file", "stderr", "stdout":
	default:
		errs = append(errs, fmt.Sprintf("log.output %q is invalid, must be file, stderr or stdout", cfg.Log.Output))
	}

	if cfg.Alerts.OverdueGraceHours < 0 {
		errs = append(errs, fmt.Sprintf("alerts.overdue_grace_hours must be non-negative, got %d", cfg.Alerts.OverdueGraceHours))
	}
	if cfg.Alerts.StaleInProgressDays < 0 {
		errs = append(errs, fmt.Sprintf("alerts.stale_in_progress_days must be non-negative, got %d", cfg.Alerts.StaleInProgressDays))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// SortSpecFromConfig converts the sort section into a SortSpec, falling back
// to the default spec for any value that does not parse.
func SortSpecFromConfig(cfg models.SortConfig) models.SortSpec {
	spec := models.DefaultSortSpec()
	if key, err := models.ParseSortKey(cfg.Key); err == nil {
		spec.Key = key
	}
	if dir, err := models.ParseSortDirection(cfg.Direction); err == nil {
		spec.Direction = dir
	}
	return spec
}
