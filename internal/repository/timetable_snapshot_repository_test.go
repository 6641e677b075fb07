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

func newTimetableSnapshotMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimetableSnapshotRepositoryListTeachers(t *testing.T) {
	db, mock, cleanup := newTimetableSnapshotMock(t)
	defer cleanup()
	repo := NewTimetableSnapshotRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "unavailable_slots"}).
		AddRow("t1", "Mrs. Sari", `["Mon_1"]`).
		AddRow("t2", "Mr. Budi", `[]`)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, unavailable_slots FROM teachers ORDER BY name ASC")).
		WillReturnRows(rows)

	teachers, err := repo.ListTeachers(context.Background())
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, "t1", teachers[0].ID)
	assert.JSONEq(t, `["Mon_1"]`, string(teachers[0].UnavailableSlots))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSnapshotRepositoryListRooms(t *testing.T) {
	db, mock, cleanup := newTimetableSnapshotMock(t)
	defer cleanup()
	repo := NewTimetableSnapshotRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "capacity", "unavailable_slots"}).
		AddRow("r1", "Lab A", 30, `[]`)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, capacity, unavailable_slots FROM rooms ORDER BY name ASC")).
		WillReturnRows(rows)

	rooms, err := repo.ListRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, 30, rooms[0].Capacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSnapshotRepositoryListSubjectsWithFixedSlot(t *testing.T) {
	db, mock, cleanup := newTimetableSnapshotMock(t)
	defer cleanup()
	repo := NewTimetableSnapshotRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "sks", "unavailable_slots", "fixed_slot"}).
		AddRow("s1", "Math", 4, `[]`, "Mon_2").
		AddRow("s2", "Bio", 2, `[]`, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, sks, unavailable_slots, fixed_slot FROM subjects ORDER BY name ASC")).
		WillReturnRows(rows)

	subjects, err := repo.ListSubjects(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	require.NotNil(t, subjects[0].FixedSlot)
	assert.Equal(t, "Mon_2", *subjects[0].FixedSlot)
	assert.Nil(t, subjects[1].FixedSlot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSnapshotRepositoryListCohortsScopesByTerm(t *testing.T) {
	db, mock, cleanup := newTimetableSnapshotMock(t)
	defer cleanup()
	repo := NewTimetableSnapshotRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name"}).AddRow("c1", "X-1")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM cohorts WHERE term_id = $1 ORDER BY name ASC")).
		WithArgs("term-1").
		WillReturnRows(rows)

	cohorts, err := repo.ListCohorts(context.Background(), "term-1")
	require.NoError(t, err)
	require.Len(t, cohorts, 1)
	assert.Equal(t, "X-1", cohorts[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSnapshotRepositoryListAssignmentsScopesByTerm(t *testing.T) {
	db, mock, cleanup := newTimetableSnapshotMock(t)
	defer cleanup()
	repo := NewTimetableSnapshotRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "subject_id", "cohort_id", "sks"}).
		AddRow("a1", "t1", "s1", "c1", 4)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, teacher_id, subject_id, cohort_id, sks FROM curriculum_assignments WHERE term_id = $1")).
		WithArgs("term-1").
		WillReturnRows(rows)

	assignments, err := repo.ListAssignments(context.Background(), "term-1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, 4, assignments[0].Sks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSnapshotRepositoryPropagatesQueryError(t *testing.T) {
	db, mock, cleanup := newTimetableSnapshotMock(t)
	defer cleanup()
	repo := NewTimetableSnapshotRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, unavailable_slots FROM teachers ORDER BY name ASC")).
		WillReturnError(assert.AnError)

	_, err := repo.ListTeachers(context.Background())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecodeSlotsTreatsEmptyColumnAsUnrestricted(t *testing.T) {
	set, err := DecodeSlots(nil)
	require.NoError(t, err)
	assert.Nil(t, set)

	set, err = DecodeSlots([]byte(`["Mon_1", "Tue_2"]`))
	require.NoError(t, err)
	assert.Len(t, set, 2)
	_, ok := set["Mon_1"]
	assert.True(t, ok)
}
