package core

import (
	"fmt"
	"testing"

	"github.com/valter-silva-au/taskboard/pkg/models"
	"pgregory.net/rapid"
)

type boardConfigValues struct {
	DefaultPriority models.Priority
	ConfirmCreate   bool
	Titles          map[models.Column]string
	Prefix          string
	DueSoonDays     int
	WIPLimit        int
}

func genBoardConfigValues(t *rapid.T) boardConfigValues {
	titles := make(map[models.Column]string, len(models.Columns))
	for _, col := range models.Columns {
		titles[col] = rapid.StringMatching(`[A-Z][a-z]{1,12}`).Draw(t, "title_"+string(col))
	}
	return boardConfigValues{
		DefaultPriority: rapid.SampledFrom([]models.Priority{models.PriorityHigh, models.PriorityLow}).Draw(t, "priority"),
		ConfirmCreate:   rapid.Bool().Draw(t, "confirm"),
		Titles:          titles,
		Prefix:          rapid.StringMatching(`[a-z0-9]{1,10}`).Draw(t, "prefix"),
		DueSoonDays:     rapid.IntRange(0, 30).Draw(t, "dueSoon"),
		WIPLimit:        rapid.IntRange(0, 50).Draw(t, "wip"),
	}
}

// Property: any valid .boardconfig round-trips through LoadBoardConfig and
// passes ValidateConfig.
func TestProperty_BoardConfigLoadsWhatWasWritten(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := genBoardConfigValues(rt)
		dir := t.TempDir()

		content := fmt.Sprintf(`board:
  default_priority: %s
  confirm_create: %v
  columns:
    todo: %q
    progress: %q
    done: %q
task_id:
  prefix: %q
alerts:
  due_soon_days: %d
  wip_limit: %d
`, v.DefaultPriority, v.ConfirmCreate,
			v.Titles[models.ColumnTodo], v.Titles[models.ColumnProgress], v.Titles[models.ColumnDone],
			v.Prefix, v.DueSoonDays, v.WIPLimit)
		writeFile(t, dir, ".boardconfig", content)

		cm := NewConfigurationManager(dir)
		cfg, err := cm.LoadBoardConfig()
		if err != nil {
			rt.Fatalf("LoadBoardConfig: %v", err)
		}
		if cfg.DefaultPriority != v.DefaultPriority {
			rt.Errorf("DefaultPriority: got %q, want %q", cfg.DefaultPriority, v.DefaultPriority)
		}
		if cfg.ConfirmCreate != v.ConfirmCreate {
			rt.Errorf("ConfirmCreate: got %v, want %v", cfg.ConfirmCreate, v.ConfirmCreate)
		}
		for col, title := range v.Titles {
			if got := cfg.ColumnTitle(col); got != title {
				rt.Errorf("ColumnTitle(%s): got %q, want %q", col, got, title)
			}
		}
		if cfg.TaskIDPrefix != v.Prefix {
			rt.Errorf("TaskIDPrefix: got %q, want %q", cfg.TaskIDPrefix, v.Prefix)
		}
		if cfg.Alerts.DueSoonDays != v.DueSoonDays || cfg.Alerts.WIPLimit != v.WIPLimit {
			rt.Errorf("Alerts: got %+v, want {%d %d}", cfg.Alerts, v.DueSoonDays, v.WIPLimit)
		}
		if err := cm.ValidateConfig(cfg); err != nil {
			rt.Errorf("ValidateConfig: %v", err)
		}
	})
}

// Property: prefixes outside [a-z0-9]{1,10} are always rejected.
func TestProperty_InvalidPrefixRejected(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	rapid.Check(t, func(rt *rapid.T) {
		prefix := rapid.OneOf(
			rapid.StringMatching(`[a-z0-9]{0,4}[A-Z_\-.][a-z0-9]{0,4}`),
			rapid.StringMatching(`[a-z0-9]{11,20}`),
		).Draw(rt, "prefix")

		cfg := DefaultBoardConfig()
		cfg.TaskIDPrefix = prefix
		if err := cm.ValidateConfig(cfg); err == nil {
			rt.Fatalf("prefix %q should be rejected", prefix)
		}
	})
}
