package models

import "time"

// AutomationLogType classifies an automation log line for display
type AutomationLogType string

const (
	LogTypeInfo    AutomationLogType = "info"
	LogTypeSuccess AutomationLogType = "success"
	LogTypeError   AutomationLogType = "error"
	LogTypeAction  AutomationLogType = "action"
)

// MaxPersistedLogs is the number of most recent log entries written to storage.
// The in-memory session log is not trimmed.
const MaxPersistedLogs = 50

// AutomationLog is one append-only entry of the automation log
type AutomationLog struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message"`
	Type      AutomationLogType `json:"type"`
}

// TrimLogs returns the last max entries of logs, preserving generation order.
// The returned slice never aliases the input.
func TrimLogs(logs []AutomationLog, max int) []AutomationLog {
	if max < 0 {
		max = 0
	}
	start := 0
	if len(logs) > max {
		start = len(logs) - max
	}
	out := make([]AutomationLog, len(logs)-start)
	copy(out, logs[start:])
	return out
}
