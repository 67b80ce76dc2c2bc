package model

import "time"

// Application status values. An application is created as pending and is
// moved to approved or rejected by an admin decision; both are terminal.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ValidStatus reports whether s is one of the known application statuses.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Application represents a row of the `applications` table: a user's
// passport-verification submission. Exactly one application may exist per
// user (UNIQUE on user_id), regardless of its status.
//
// DigitalSignatureURL holds either a remote file URL or a freeform text
// acknowledgment, depending on what the applicant supplied.
// RejectionReason is non-nil if and only if the status is rejected.
type Application struct {
	ID                  uint64     `json:"id"`
	UserID              uint64     `json:"userId"`
	FirstName           string     `json:"firstName"`
	LastName            string     `json:"lastName"`
	Patronymic          string     `json:"patronymic"`
	BirthDate           time.Time  `json:"birthDate"`
	PassportSeries      string     `json:"passportSeries"`
	PassportNumber      string     `json:"passportNumber"`
	IssuingAuthority    string     `json:"issuingAuthority"`
	PlaceOfResidence    string     `json:"placeOfResidence"`
	PassportPhotoURL    string     `json:"passportPhotoUrl"`
	UserPhotoURL        string     `json:"userPhotoUrl"`
	DigitalSignatureURL string     `json:"digitalSignatureUrl,omitempty"`
	Status              string     `json:"status"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
	ProcessedAt         *time.Time `json:"processedAt,omitempty"`
	ProcessedBy         *uint64    `json:"processedBy,omitempty"`
	RejectionReason     *string    `json:"rejectionReason,omitempty"`
}

// ApplicationListItem is an application joined with the owner's identity
// and the processing admin's username for the admin listing.
type ApplicationListItem struct {
	Application
	Username          string  `json:"username"`
	Email             string  `json:"email"`
	ProcessorUsername *string `json:"processorUsername,omitempty"`
}

// ApplicationFilter describes the admin listing query: optional status and
// owner filters, pagination and sorting. SortBy accepts a fixed allow-list
// of keys (submittedAt, status, firstName, lastName, email); unknown keys
// fall back to submission time. SortOrder is "asc" or anything-else=desc.
type ApplicationFilter struct {
	Status    string
	UserID    uint64
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}
