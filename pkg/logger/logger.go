package logger

import (
	"fmt"
	"log"
	"log/slog"
)

// New returns a stdlib *log.Logger that forwards lines to the given slog
// logger tagged with a component attribute. Libraries that only accept
// *log.Logger (cron) log through it.
func New(base *slog.Logger, component string) *log.Logger {
	if base == nil {
		base = slog.Default()
	}
	l := slog.NewLogLogger(base.With("component", component).Handler(), slog.LevelInfo)
	l.SetPrefix(fmt.Sprintf("[%s] ", component))
	return l
}
