package notify

import (
	"log/slog"
)

// Notifier receives discrete pipeline events. Implementations must not block
// the caller; the pipeline emits and moves on.
type Notifier interface {
	Notify(event Event)
}

type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(event Event) {
	slog.Info("Event emitted", "kind", event.Kind(), "event", event)
}

// MultiNotifier fans one event out to several notifiers.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(event Event) {
	for _, notifier := range m {
		notifier.Notify(event)
	}
}
