package model

// Event is a single record from the Octopus Deploy events API.
// Nested references are pointers: an absent or null object decodes to nil.
type Event struct {
	ID          string   `json:"Id"`
	Occurred    string   `json:"Occurred"` // ISO 8601, passed through verbatim
	Category    string   `json:"Category"`
	Message     string   `json:"Message"`
	Severity    string   `json:"Severity"`
	User        *UserRef `json:"User,omitempty"`
	Project     *Ref     `json:"Project,omitempty"`
	Environment *Ref     `json:"Environment,omitempty"`
	Tenant      *Ref     `json:"Tenant,omitempty"`
}

// Ref is an id/name pair for a project, environment or tenant.
type Ref struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// UserRef identifies the user that caused an event.
type UserRef struct {
	ID          string `json:"Id"`
	DisplayName string `json:"DisplayName"`
}

// EventPage is the response envelope of GET /api/{space}/events.
type EventPage struct {
	Items        []Event `json:"Items"`
	TotalResults int     `json:"TotalResults"`
	ItemsPerPage int     `json:"ItemsPerPage"`
}
