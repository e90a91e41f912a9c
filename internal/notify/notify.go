package notify

import "log"

// Level classifies a transient notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notifier surfaces transient notifications for user-triggered and
// evaluator-triggered action outcomes
type Notifier interface {
	Success(message string)
	Info(message string)
	Error(message string)
}

// LogNotifier writes notifications to the process log
type LogNotifier struct{}

func (LogNotifier) Success(message string) {
	log.Printf("NOTIFY: [success] %s", message)
}

func (LogNotifier) Info(message string) {
	log.Printf("NOTIFY: [info] %s", message)
}

func (LogNotifier) Error(message string) {
	log.Printf("NOTIFY: [error] %s", message)
}

// Multi fans a notification out to several notifiers
type Multi []Notifier

func (m Multi) Success(message string) {
	for _, n := range m {
		n.Success(message)
	}
}

func (m Multi) Info(message string) {
	for _, n := range m {
		n.Info(message)
	}
}

func (m Multi) Error(message string) {
	for _, n := range m {
		n.Error(message)
	}
}
