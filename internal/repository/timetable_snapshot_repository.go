package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/schoolforge/timetable-api/internal/models"
)

// TimetableSnapshotRepository loads every resource a solve needs for one term.
type TimetableSnapshotRepository struct {
	db *sqlx.DB
}

// NewTimetableSnapshotRepository constructs the repository.
func NewTimetableSnapshotRepository(db *sqlx.DB) *TimetableSnapshotRepository {
	return &TimetableSnapshotRepository{db: db}
}

// ListTeachers returns every teacher, unavailability included.
func (r *TimetableSnapshotRepository) ListTeachers(ctx context.Context) ([]models.TimetableTeacher, error) {
	const query = `SELECT id, name, unavailable_slots FROM teachers ORDER BY name ASC`
	var teachers []models.TimetableTeacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list timetable teachers: %w", err)
	}
	return teachers, nil
}

// ListRooms returns every room, unavailability included.
func (r *TimetableSnapshotRepository) ListRooms(ctx context.Context) ([]models.TimetableRoom, error) {
	const query = `SELECT id, name, capacity, unavailable_slots FROM rooms ORDER BY name ASC`
	var rooms []models.TimetableRoom
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list timetable rooms: %w", err)
	}
	return rooms, nil
}

// ListSubjects returns every subject, including fixed_slot pins.
func (r *TimetableSnapshotRepository) ListSubjects(ctx context.Context) ([]models.TimetableSubject, error) {
	const query = `SELECT id, name, sks, unavailable_slots, fixed_slot FROM subjects ORDER BY name ASC`
	var subjects []models.TimetableSubject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list timetable subjects: %w", err)
	}
	return subjects, nil
}

// ListCohorts returns every cohort in the term.
func (r *TimetableSnapshotRepository) ListCohorts(ctx context.Context, termID string) ([]models.TimetableCohort, error) {
	const query = `SELECT id, name FROM cohorts WHERE term_id = $1 ORDER BY name ASC`
	var cohorts []models.TimetableCohort
	if err := r.db.SelectContext(ctx, &cohorts, query, termID); err != nil {
		return nil, fmt.Errorf("list timetable cohorts: %w", err)
	}
	return cohorts, nil
}

// ListAssignments returns every curriculum contract for the term.
func (r *TimetableSnapshotRepository) ListAssignments(ctx context.Context, termID string) ([]models.CurriculumAssignment, error) {
	const query = `SELECT id, teacher_id, subject_id, cohort_id, sks FROM curriculum_assignments WHERE term_id = $1`
	var assignments []models.CurriculumAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, termID); err != nil {
		return nil, fmt.Errorf("list timetable assignments: %w", err)
	}
	return assignments, nil
}

// DecodeSlots parses a unavailable_slots JSON column into a set, tolerating
// a NULL/empty column as "no restrictions".
func DecodeSlots(raw []byte) (map[string]struct{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode unavailable_slots: %w", err)
	}
	set := make(map[string]struct{}, len(list))
	for _, s := range list {
		set[s] = struct{}{}
	}
	return set, nil
}
