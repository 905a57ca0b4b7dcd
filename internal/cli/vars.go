package cli

import (
	"github.com/valter-silva-au/todo/internal/core"
	"github.com/valter-silva-au/todo/internal/observability"
	"github.com/valter-silva-au/todo/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	TaskStore core.TaskStore
	SortSpec  = models.DefaultSortSpec()
	Config    *models.GlobalConfig
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog      observability.EventLog
	AlertEngine   observability.AlertEngine
	MetricsCalc   observability.MetricsCalculator
	AlertNotifier observability.AlertNotifier
	Console       *observability.ConsoleNotifier
	Notices       *observability.RecordingNotifier
)
