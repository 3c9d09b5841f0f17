package model

import "time"

// Veterinarian is a staff credential record. Token holds the outstanding
// one-time confirmation or recovery token; nil means no flow is pending
// (for a confirmed account) or the token was already consumed.
type Veterinarian struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Surname      string
	Address      string
	Phone        string
	Confirmed    bool
	Token        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Patient is owned by exactly one veterinarian. Active is the soft-delete
// flag: listings only ever show active patients.
type Patient struct {
	ID             string
	VeterinarianID string
	Name           string
	Owner          string
	Email          string
	Cell           string
	Landline       string
	Symptoms       string
	AdmittedAt     time.Time
	DischargedAt   *time.Time
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
