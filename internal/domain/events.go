package domain

// EventType names an acquisition lifecycle event
type EventType string

const (
	EventInfo     EventType = "info"
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one element of an acquisition's ordered event stream:
// at most one Info, then Progress events, then exactly one Complete or Error.
type Event struct {
	Type    EventType
	Info    *VideoMetadata
	Percent float64
	Result  *DownloadResult
	Message string
	Session string // session ID of the download, set on Complete
}

// IsTerminal reports whether the event ends the stream
func (e Event) IsTerminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

// InfoEvent creates an Info event
func InfoEvent(info *VideoMetadata) Event {
	return Event{Type: EventInfo, Info: info}
}

// ProgressEvent creates a Progress event
func ProgressEvent(percent float64) Event {
	return Event{Type: EventProgress, Percent: percent}
}

// CompleteEvent creates a Complete event
func CompleteEvent(sessionID string, result *DownloadResult) Event {
	return Event{Type: EventComplete, Result: result, Session: sessionID}
}

// ErrorEvent creates an Error event
func ErrorEvent(err error) Event {
	return Event{Type: EventError, Message: err.Error()}
}
