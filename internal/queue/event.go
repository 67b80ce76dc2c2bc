// Package queue defines message payloads exchanged over the message broker
// plus the publisher and background consumer that move them.
package queue

// ApplicationSubmittedEvent is published when a verification application is
// successfully created. It carries enough information for downstream
// consumers to notify or log without querying the primary database.
type ApplicationSubmittedEvent struct {
	ApplicationID uint64 `json:"application_id"`
	UserID        uint64 `json:"user_id"`
	Username      string `json:"username"`
	SubmittedAt   string `json:"submitted_at"`
}

// ApplicationProcessedEvent is published when an admin approves or rejects
// an application.
type ApplicationProcessedEvent struct {
	ApplicationID   uint64 `json:"application_id"`
	UserID          uint64 `json:"user_id"`
	Status          string `json:"status"`
	AdminID         uint64 `json:"admin_id"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	ProcessedAt     string `json:"processed_at"`
}
