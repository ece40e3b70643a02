package graph

import "log"

// Level classifies a user-visible notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notifier receives user-visible notifications: validation rejections,
// remote write failures, advisory warnings. Implementations must be safe to
// call from the syncer goroutine.
type Notifier interface {
	Notify(level Level, message string)
}

// LogNotifier writes notifications to the process log. Default when no UI is
// attached.
type LogNotifier struct{}

func (LogNotifier) Notify(level Level, message string) {
	log.Printf("[%s] %s", level, message)
}
