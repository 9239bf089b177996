package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEmployeeCreated    EventType = "employee_created"
	EventEmployeeUpdated    EventType = "employee_updated"
	EventSalaryUpdated      EventType = "salary_updated"
	EventServiceTokenIssued EventType = "service_token_issued"
)

// Actor identifies who caused an event. Empty for anonymous self-registration.
type Actor struct {
	Username string `json:"username,omitempty"`
	Service  string `json:"service,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, subjectID string, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// EmployeeCreatedPayload payload.
type EmployeeCreatedPayload struct {
	Username   string `json:"username"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// EmployeeUpdatedPayload lists changed columns, never their values.
type EmployeeUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// SalaryUpdatedPayload deliberately omits the amount.
type SalaryUpdatedPayload struct {
	HadPrevious bool `json:"had_previous"`
}

// ServiceTokenIssuedPayload payload.
type ServiceTokenIssuedPayload struct {
	Origin    string    `json:"origin"`
	ExpiresAt time.Time `json:"expires_at"`
}
