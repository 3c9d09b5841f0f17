package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"vetclinic/internal/model"
)

// pgxPool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it in tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store on top of a pgx connection pool.
type PostgresStore struct {
	pool pgxPool
}

func NewPostgresStore(pool pgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const veterinarianColumns = `id, email, password_hash, name, surname, address, phone, confirmed, token, created_at, updated_at`

func (s *PostgresStore) scanVeterinarian(row pgx.Row) (model.Veterinarian, error) {
	var vet model.Veterinarian
	err := row.Scan(
		&vet.ID,
		&vet.Email,
		&vet.PasswordHash,
		&vet.Name,
		&vet.Surname,
		&vet.Address,
		&vet.Phone,
		&vet.Confirmed,
		&vet.Token,
		&vet.CreatedAt,
		&vet.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Veterinarian{}, ErrNotFound
	}
	return vet, err
}

func (s *PostgresStore) CreateVeterinarian(ctx context.Context, vet model.Veterinarian) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO veterinarians (`+veterinarianColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, vet.ID, vet.Email, vet.PasswordHash, vet.Name, vet.Surname, vet.Address, vet.Phone, vet.Confirmed, vet.Token, vet.CreatedAt, vet.UpdatedAt)
	return err
}

func (s *PostgresStore) GetVeterinarianByID(ctx context.Context, id string) (model.Veterinarian, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+veterinarianColumns+`
		FROM veterinarians
		WHERE id = $1
	`, id)
	return s.scanVeterinarian(row)
}

func (s *PostgresStore) GetVeterinarianByEmail(ctx context.Context, email string) (model.Veterinarian, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+veterinarianColumns+`
		FROM veterinarians
		WHERE email = $1
	`, email)
	return s.scanVeterinarian(row)
}

func (s *PostgresStore) GetVeterinarianByToken(ctx context.Context, token string) (model.Veterinarian, error) {
	// token = $1 never matches a NULL stored token, which is exactly the
	// "already consumed" behavior the confirmation flow relies on.
	row := s.pool.QueryRow(ctx, `
		SELECT `+veterinarianColumns+`
		FROM veterinarians
		WHERE token = $1
	`, token)
	return s.scanVeterinarian(row)
}

func (s *PostgresStore) ListVeterinarians(ctx context.Context) ([]model.Veterinarian, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+veterinarianColumns+`
		FROM veterinarians
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vets []model.Veterinarian
	for rows.Next() {
		vet, err := s.scanVeterinarian(rows)
		if err != nil {
			return nil, err
		}
		vets = append(vets, vet)
	}
	return vets, rows.Err()
}

func (s *PostgresStore) VeterinarianEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM veterinarians WHERE email = $1)
	`, email).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) UpdateVeterinarianProfile(ctx context.Context, id string, update ProfileUpdate) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE veterinarians
		SET name = $1, surname = $2, address = $3, phone = $4, email = $5, updated_at = $6
		WHERE id = $7
	`, update.Name, update.Surname, update.Address, update.Phone, update.Email, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateVeterinarianPassword(ctx context.Context, id, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE veterinarians
		SET password_hash = $1, updated_at = $2
		WHERE id = $3
	`, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetVeterinarianToken(ctx context.Context, id, token string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE veterinarians
		SET token = $1, updated_at = $2
		WHERE id = $3
	`, token, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ConfirmVeterinarian(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE veterinarians
		SET token = NULL, confirmed = TRUE, updated_at = $1
		WHERE id = $2
	`, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ClearTokenAndSetPassword(ctx context.Context, id, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE veterinarians
		SET token = NULL, password_hash = $1, updated_at = $2
		WHERE id = $3
	`, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) TouchVeterinarian(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE veterinarians
		SET updated_at = $1
		WHERE id = $2
	`, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const patientColumns = `id, veterinarian_id, name, owner, email, cell, landline, symptoms, admitted_at, discharged_at, active, created_at, updated_at`

func (s *PostgresStore) scanPatient(row pgx.Row) (model.Patient, error) {
	var patient model.Patient
	err := row.Scan(
		&patient.ID,
		&patient.VeterinarianID,
		&patient.Name,
		&patient.Owner,
		&patient.Email,
		&patient.Cell,
		&patient.Landline,
		&patient.Symptoms,
		&patient.AdmittedAt,
		&patient.DischargedAt,
		&patient.Active,
		&patient.CreatedAt,
		&patient.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Patient{}, ErrNotFound
	}
	return patient, err
}

func (s *PostgresStore) CreatePatient(ctx context.Context, patient model.Patient) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO patients (`+patientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, patient.ID, patient.VeterinarianID, patient.Name, patient.Owner, patient.Email, patient.Cell, patient.Landline,
		patient.Symptoms, patient.AdmittedAt, patient.DischargedAt, patient.Active, patient.CreatedAt, patient.UpdatedAt)
	return err
}

func (s *PostgresStore) GetPatientByID(ctx context.Context, id string) (model.Patient, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id = $1
	`, id)
	return s.scanPatient(row)
}

func (s *PostgresStore) ListPatientsByVeterinarian(ctx context.Context, vetID string) ([]model.Patient, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE veterinarian_id = $1 AND active = TRUE
		ORDER BY admitted_at
	`, vetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []model.Patient
	for rows.Next() {
		patient, err := s.scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}
	return patients, rows.Err()
}

func (s *PostgresStore) UpdatePatient(ctx context.Context, id string, update PatientUpdate) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE patients
		SET name = $1, owner = $2, email = $3, cell = $4, landline = $5, symptoms = $6, discharged_at = $7, updated_at = $8
		WHERE id = $9
	`, update.Name, update.Owner, update.Email, update.Cell, update.Landline, update.Symptoms, update.DischargedAt, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeletePatient(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
