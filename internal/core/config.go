package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

// ConfigFileName is the name of the YAML configuration file looked up in the
// base path.
const ConfigFileName = ".boardconfig"

// validPrefixPattern matches lowercase alphanumeric prefixes between 1 and 10 characters.
var validPrefixPattern = regexp.MustCompile(`^[a-z0-9]{1,10}$`)

// ConfigurationManager defines the interface for loading and validating the
// board configuration.
type ConfigurationManager interface {
	LoadBoardConfig() (*models.BoardConfig, error)
	ValidateConfig(cfg *models.BoardConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML configuration file.
type viperConfigManager struct {
	// basePath is the directory where .boardconfig resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// .boardconfig from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultBoardConfig returns a BoardConfig populated with the defaults used
// when no configuration file exists.
func DefaultBoardConfig() *models.BoardConfig {
	return &models.BoardConfig{
		DefaultPriority: models.PriorityLow,
		ConfirmCreate:   true,
		ColumnTitles: map[models.Column]string{
			models.ColumnTodo:     models.ColumnTodo.DefaultTitle(),
			models.ColumnProgress: models.ColumnProgress.DefaultTitle(),
			models.ColumnDone:     models.ColumnDone.DefaultTitle(),
		},
		TaskIDPrefix: "task",
		Alerts: models.AlertConfig{
			DueSoonDays: 2,
			WIPLimit:    5,
		},
		Events: models.EventsConfig{
			Enabled: true,
			Path:    ".taskboard_events.jsonl",
		},
		Log: models.LogConfig{
			Level: "info",
		},
		Server: models.ServerConfig{
			Listen: "127.0.0.1:8080",
		},
	}
}

// LoadBoardConfig reads .boardconfig from the base path using Viper.
// If the file does not exist, defaults are returned.
func (cm *viperConfigManager) LoadBoardConfig() (*models.BoardConfig, error) {
	cfg := DefaultBoardConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("board.default_priority", string(cfg.DefaultPriority))
	v.SetDefault("board.confirm_create", cfg.ConfirmCreate)
	for col, title := range cfg.ColumnTitles {
		v.SetDefault("board.columns."+string(col), title)
	}
	v.SetDefault("task_id.prefix", cfg.TaskIDPrefix)
	v.SetDefault("alerts.due_soon_days", cfg.Alerts.DueSoonDays)
	v.SetDefault("alerts.wip_limit", cfg.Alerts.WIPLimit)
	v.SetDefault("events.enabled", cfg.Events.Enabled)
	v.SetDefault("events.path", cfg.Events.Path)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("server.listen", cfg.Server.Listen)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}

	cfg.DefaultPriority = models.Priority(v.GetString("board.default_priority"))
	cfg.ConfirmCreate = v.GetBool("board.confirm_create")
	for _, col := range models.Columns {
		cfg.ColumnTitles[col] = v.GetString("board.columns." + string(col))
	}
	cfg.TaskIDPrefix = v.GetString("task_id.prefix")
	cfg.Alerts.DueSoonDays = v.GetInt("alerts.due_soon_days")
	cfg.Alerts.WIPLimit = v.GetInt("alerts.wip_limit")
	cfg.Events.Enabled = v.GetBool("events.enabled")
	cfg.Events.Path = v.GetString("events.path")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.File = v.GetString("log.file")
	cfg.Server.Listen = v.GetString("server.listen")

	return cfg, nil
}

// validPriorities is the set of priorities accepted as a creation default.
var validPriorities = map[models.Priority]bool{
	models.PriorityHigh: true,
	models.PriorityLow:  true,
}

// ValidateConfig checks cfg for invalid values and reports all of them in a
// single error.
func (cm *viperConfigManager) ValidateConfig(cfg *models.BoardConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if !validPriorities[cfg.DefaultPriority] {
		errs = append(errs, fmt.Sprintf(
			"board.default_priority %q is invalid, must be one of: High, Low",
			cfg.DefaultPriority,
		))
	}

	for _, col := range models.Columns {
		if strings.TrimSpace(cfg.ColumnTitles[col]) == "" {
			errs = append(errs, fmt.Sprintf("board.columns.%s must not be empty", col))
		}
	}

	if cfg.TaskIDPrefix != "" && !validPrefixPattern.MatchString(cfg.TaskIDPrefix) {
		errs = append(errs, fmt.Sprintf(
			"task_id.prefix %q is invalid, must match [a-z0-9]{1,10}",
			cfg.TaskIDPrefix,
		))
	}

	if cfg.Alerts.DueSoonDays < 0 {
		errs = append(errs, fmt.Sprintf("alerts.due_soon_days must be non-negative, got %d", cfg.Alerts.DueSoonDays))
	}
	if cfg.Alerts.WIPLimit < 0 {
		errs = append(errs, fmt.Sprintf("alerts.wip_limit must be non-negative, got %d", cfg.Alerts.WIPLimit))
	}

	if cfg.Events.Enabled && cfg.Events.Path == "" {
		errs = append(errs, "events.path must be set when events.enabled is true")
	}

	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Sprintf("log.level %q is invalid: %v", cfg.Log.Level, err))
	}

	if cfg.Server.Listen == "" {
		errs = append(errs, "server.listen must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
