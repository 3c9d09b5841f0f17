// Package repository defines the persistence boundary of the service. The
// Store interface is injected into the HTTP layer so handlers never touch a
// process-wide database handle; the only implementation is Postgres via pgx.
package repository

import (
	"context"
	"errors"
	"time"

	"vetclinic/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ProfileUpdate carries the mutable, non-security profile fields of a
// veterinarian. All fields are written as given.
type ProfileUpdate struct {
	Name    string
	Surname string
	Address string
	Phone   string
	Email   string
}

// PatientUpdate carries the mutable fields of a patient record.
type PatientUpdate struct {
	Name         string
	Owner        string
	Email        string
	Cell         string
	Landline     string
	Symptoms     string
	DischargedAt *time.Time
}

// Store is the credential and patient store. All mutations are single-row
// read-modify-write sequences with last-writer-wins; no optimistic
// concurrency token is used.
type Store interface {
	CreateVeterinarian(ctx context.Context, vet model.Veterinarian) error
	GetVeterinarianByID(ctx context.Context, id string) (model.Veterinarian, error)
	GetVeterinarianByEmail(ctx context.Context, email string) (model.Veterinarian, error)
	// GetVeterinarianByToken matches the stored one-time token exactly; a
	// NULL stored token never matches.
	GetVeterinarianByToken(ctx context.Context, token string) (model.Veterinarian, error)
	ListVeterinarians(ctx context.Context) ([]model.Veterinarian, error)
	VeterinarianEmailExists(ctx context.Context, email string) (bool, error)
	UpdateVeterinarianProfile(ctx context.Context, id string, update ProfileUpdate) error
	UpdateVeterinarianPassword(ctx context.Context, id, passwordHash string) error
	// SetVeterinarianToken overwrites any outstanding one-time token.
	SetVeterinarianToken(ctx context.Context, id, token string) error
	// ConfirmVeterinarian clears the one-time token and marks the account
	// confirmed.
	ConfirmVeterinarian(ctx context.Context, id string) error
	// ClearTokenAndSetPassword consumes the one-time token and commits the
	// new password hash in a single statement.
	ClearTokenAndSetPassword(ctx context.Context, id, passwordHash string) error
	// TouchVeterinarian re-persists the record without changing it.
	TouchVeterinarian(ctx context.Context, id string) error

	CreatePatient(ctx context.Context, patient model.Patient) error
	GetPatientByID(ctx context.Context, id string) (model.Patient, error)
	// ListPatientsByVeterinarian returns the active patients of one
	// veterinarian.
	ListPatientsByVeterinarian(ctx context.Context, vetID string) ([]model.Patient, error)
	UpdatePatient(ctx context.Context, id string, update PatientUpdate) error
	DeletePatient(ctx context.Context, id string) (bool, error)
}
