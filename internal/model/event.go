package model

// EventType discriminates progress events.
type EventType string

const (
	EventStatus  EventType = "status"
	EventResult  EventType = "result"
	EventError   EventType = "error"
	EventStopped EventType = "stopped"
)

// Event is one progress notification emitted by a running pipeline.
type Event struct {
	Type     EventType   `json:"type"`
	SearchID string      `json:"searchId,omitempty"`
	Message  string      `json:"message,omitempty"`
	Data     *LeadRecord `json:"data,omitempty"`
}

// StatusEvent builds a status event.
func StatusEvent(msg string) Event {
	return Event{Type: EventStatus, Message: msg}
}

// ResultEvent builds a result event carrying a copy of the record.
func ResultEvent(lead LeadRecord) Event {
	return Event{Type: EventResult, Data: &lead}
}

// ErrorEvent builds an error event.
func ErrorEvent(msg string) Event {
	return Event{Type: EventError, Message: msg}
}

// StoppedEvent builds a stopped event.
func StoppedEvent(msg string) Event {
	return Event{Type: EventStopped, Message: msg}
}
