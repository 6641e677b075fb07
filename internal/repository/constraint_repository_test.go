package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConstraintMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestConstraintRepositoryUpdateSlotsBlocksNewSlots(t *testing.T) {
	db, mock, cleanup := newConstraintMock(t)
	defer cleanup()
	repo := NewConstraintRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT unavailable_slots FROM teachers WHERE id = $1")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"unavailable_slots"}).AddRow(`["Mon_1"]`))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE teachers SET unavailable_slots = $1 WHERE id = $2")).
		WithArgs(sqlmock.AnyArg(), "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateSlots(context.Background(), "teachers", "t1", []string{"Mon_1", "Tue_2"}, true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintRepositoryUpdateSlotsUnblocksExistingSlots(t *testing.T) {
	db, mock, cleanup := newConstraintMock(t)
	defer cleanup()
	repo := NewConstraintRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT unavailable_slots FROM rooms WHERE id = $1")).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"unavailable_slots"}).AddRow(`["Mon_1", "Tue_2"]`))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE rooms SET unavailable_slots = $1 WHERE id = $2")).
		WithArgs(sqlmock.AnyArg(), "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateSlots(context.Background(), "rooms", "r1", []string{"Mon_1"}, false)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintRepositoryUpdateSlotsRejectsUnknownTable(t *testing.T) {
	db, mock, cleanup := newConstraintMock(t)
	defer cleanup()
	repo := NewConstraintRepository(db)

	err := repo.UpdateSlots(context.Background(), "cohorts", "c1", []string{"Mon_1"}, true)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet(), "no query should have been issued for an unknown table")
}

func TestConstraintRepositoryForceSubjectSetsFixedSlotAndClearsUnavailability(t *testing.T) {
	db, mock, cleanup := newConstraintMock(t)
	defer cleanup()
	repo := NewConstraintRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE subjects SET fixed_slot = $1, unavailable_slots = '[]' WHERE id = $2")).
		WithArgs("Mon_3", "s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ForceSubject(context.Background(), "s1", "Mon_3")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintRepositoryForceSubjectReturnsErrorWhenNotFound(t *testing.T) {
	db, mock, cleanup := newConstraintMock(t)
	defer cleanup()
	repo := NewConstraintRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE subjects SET fixed_slot = $1, unavailable_slots = '[]' WHERE id = $2")).
		WithArgs("Mon_3", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ForceSubject(context.Background(), "missing", "Mon_3")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintRepositoryClearAllCommitsAllThreeStatements(t *testing.T) {
	db, mock, cleanup := newConstraintMock(t)
	defer cleanup()
	repo := NewConstraintRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE teachers SET unavailable_slots = '[]'")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE rooms SET unavailable_slots = '[]'")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE subjects SET unavailable_slots = '[]', fixed_slot = NULL")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.ClearAll(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintRepositoryClearAllRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newConstraintMock(t)
	defer cleanup()
	repo := NewConstraintRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE teachers SET unavailable_slots = '[]'")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.ClearAll(context.Background())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
