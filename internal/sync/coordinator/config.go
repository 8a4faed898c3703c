package coordinator

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs the reconciliation once a day at midnight.
const DefaultSchedule = "@daily"

// resolveSchedule parses spec, falling back to DefaultSchedule when it is
// empty or invalid.
func resolveSchedule(spec string) (string, cron.Schedule) {
	if spec != "" {
		schedule, err := cron.ParseStandard(spec)
		if err == nil {
			return spec, schedule
		}
		slog.Warn("Invalid sync schedule, using default",
			"schedule", spec,
			"default", DefaultSchedule,
			"error", err)
	}
	schedule, _ := cron.ParseStandard(DefaultSchedule)
	return DefaultSchedule, schedule
}

// cronLogger adapts slog to the cron scheduler's logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
