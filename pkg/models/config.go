package models

// BoardConfig holds settings read from .boardconfig via Viper.
type BoardConfig struct {
	DefaultPriority Priority          `yaml:"default_priority" mapstructure:"default_priority"`
	ConfirmCreate   bool              `yaml:"confirm_create" mapstructure:"confirm_create"`
	ColumnTitles    map[Column]string `yaml:"columns,omitempty" mapstructure:"columns"`
	TaskIDPrefix    string            `yaml:"task_id_prefix" mapstructure:"task_id_prefix"`
	Alerts          AlertConfig       `yaml:"alerts" mapstructure:"alerts"`
	Events          EventsConfig      `yaml:"events" mapstructure:"events"`
	Log             LogConfig         `yaml:"log" mapstructure:"log"`
	Server          ServerConfig      `yaml:"server" mapstructure:"server"`
}

// ColumnTitle returns the configured display title for c, falling back to
// the built-in title.
func (c *BoardConfig) ColumnTitle(col Column) string {
	if c != nil {
		if t, ok := c.ColumnTitles[col]; ok && t != "" {
			return t
		}
	}
	return col.DefaultTitle()
}

// AlertConfig configures the deadline and work-in-progress alerts.
type AlertConfig struct {
	DueSoonDays int `yaml:"due_soon_days" mapstructure:"due_soon_days"`
	// WIPLimit caps the number of tasks in progress; 0 disables the alert.
	WIPLimit int `yaml:"wip_limit" mapstructure:"wip_limit"`
}

// EventsConfig controls the JSONL event log.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file,omitempty" mapstructure:"file"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Listen string `yaml:"listen" mapstructure:"listen"`
}
