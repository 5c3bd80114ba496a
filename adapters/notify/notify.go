// Package notify is the default advisory dispatcher: it narrates engine
// advisories into the service log. A real deployment swaps in a client for
// the notification delivery service; the engine only needs fire-and-forget.
package notify

import (
	"context"
	"log/slog"

	"taskflow/core"
)

type Logger struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{log: log}
}

func (l *Logger) Notify(_ context.Context, ownerID string, n core.Notification) {
	attrs := []any{"owner", ownerID, "kind", string(n.Kind), "task", n.TaskID}
	if n.Warning {
		l.log.Warn(n.Message, attrs...)
		return
	}
	l.log.Info(n.Message, attrs...)
}
