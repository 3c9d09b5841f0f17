package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock pool")
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock), mock
}

func veterinarianRow(token *string) *pgxmock.Rows {
	now := time.Now().UTC()
	return pgxmock.NewRows([]string{
		"id", "email", "password_hash", "name", "surname", "address", "phone",
		"confirmed", "token", "created_at", "updated_at",
	}).AddRow("vet-1", "vet@clinic.test", "$2a$10$hash", "Ana", "Mora", "", "", true, token, now, now)
}

func TestGetVeterinarianByEmail(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM veterinarians\s+WHERE email = \$1`).
		WithArgs("vet@clinic.test").
		WillReturnRows(veterinarianRow(nil))

	vet, err := store.GetVeterinarianByEmail(context.Background(), "vet@clinic.test")
	require.NoError(t, err)
	assert.Equal(t, "vet-1", vet.ID)
	assert.True(t, vet.Confirmed)
	assert.Nil(t, vet.Token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetVeterinarianByEmailNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM veterinarians\s+WHERE email = \$1`).
		WithArgs("missing@clinic.test").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := store.GetVeterinarianByEmail(context.Background(), "missing@clinic.test")
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetVeterinarianByToken(t *testing.T) {
	store, mock := newMockStore(t)
	token := "opaque-token"

	mock.ExpectQuery(`SELECT (.+) FROM veterinarians\s+WHERE token = \$1`).
		WithArgs(token).
		WillReturnRows(veterinarianRow(&token))

	vet, err := store.GetVeterinarianByToken(context.Background(), token)
	require.NoError(t, err)
	require.NotNil(t, vet.Token)
	assert.Equal(t, token, *vet.Token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmVeterinarian(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE veterinarians\s+SET token = NULL, confirmed = TRUE`).
		WithArgs(pgxmock.AnyArg(), "vet-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.ConfirmVeterinarian(context.Background(), "vet-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmVeterinarianMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE veterinarians\s+SET token = NULL, confirmed = TRUE`).
		WithArgs(pgxmock.AnyArg(), "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.ConfirmVeterinarian(context.Background(), "ghost")
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetVeterinarianTokenOverwrites(t *testing.T) {
	store, mock := newMockStore(t)

	// The UPDATE unconditionally replaces the stored token; an earlier
	// outstanding token is invalidated by overwrite, not by explicit delete.
	mock.ExpectExec(`UPDATE veterinarians\s+SET token = \$1`).
		WithArgs("new-token", pgxmock.AnyArg(), "vet-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.SetVeterinarianToken(context.Background(), "vet-1", "new-token"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPatientsByVeterinarianFiltersActive(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{
		"id", "veterinarian_id", "name", "owner", "email", "cell", "landline",
		"symptoms", "admitted_at", "discharged_at", "active", "created_at", "updated_at",
	}).AddRow("pat-1", "vet-1", "Max", "Juan", "", "", "", "vomito", now, nil, true, now, now)

	mock.ExpectQuery(`SELECT (.+) FROM patients\s+WHERE veterinarian_id = \$1 AND active = TRUE`).
		WithArgs("vet-1").
		WillReturnRows(rows)

	patients, err := store.ListPatientsByVeterinarian(context.Background(), "vet-1")
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "Max", patients[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePatient(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM patients WHERE id = \$1`).
		WithArgs("pat-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	deleted, err := store.DeletePatient(context.Background(), "pat-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	mock.ExpectExec(`DELETE FROM patients WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	deleted, err = store.DeletePatient(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
