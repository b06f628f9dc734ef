package model

import "time"

// LogEntry is the flat row shipped to the ingestion stream.
// Every field is always serialized; missing references become "".
type LogEntry struct {
	Time            string `json:"Time"`
	EventID         string `json:"EventId"`
	Category        string `json:"Category"`
	Message         string `json:"Message"`
	Severity        string `json:"Severity"`
	User            string `json:"User"`
	ProjectID       string `json:"ProjectId"`
	ProjectName     string `json:"ProjectName"`
	EnvironmentID   string `json:"EnvironmentId"`
	EnvironmentName string `json:"EnvironmentName"`
	TenantID        string `json:"TenantId"`
	TenantName      string `json:"TenantName"`
}

// NewLogEntry projects an Event into a LogEntry. When the event carries no
// Occurred timestamp, now (in UTC) is used instead.
func NewLogEntry(e Event, now time.Time) LogEntry {
	entry := LogEntry{
		Time:     e.Occurred,
		EventID:  e.ID,
		Category: e.Category,
		Message:  e.Message,
		Severity: e.Severity,
	}
	if entry.Time == "" {
		entry.Time = now.UTC().Format(time.RFC3339Nano)
	}
	if e.User != nil {
		entry.User = e.User.DisplayName
	}
	if e.Project != nil {
		entry.ProjectID, entry.ProjectName = e.Project.ID, e.Project.Name
	}
	if e.Environment != nil {
		entry.EnvironmentID, entry.EnvironmentName = e.Environment.ID, e.Environment.Name
	}
	if e.Tenant != nil {
		entry.TenantID, entry.TenantName = e.Tenant.ID, e.Tenant.Name
	}
	return entry
}

// NewLogEntries maps events one-to-one, preserving order.
func NewLogEntries(events []Event, now time.Time) []LogEntry {
	entries := make([]LogEntry, 0, len(events))
	for _, e := range events {
		entries = append(entries, NewLogEntry(e, now))
	}
	return entries
}
