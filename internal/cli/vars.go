package cli

import (
	log "github.com/sirupsen/logrus"

	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/internal/observability"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	Config   *models.BoardConfig
	Logger   *log.Logger

	Board core.Board

	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
)
