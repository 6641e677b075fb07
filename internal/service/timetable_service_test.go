package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schoolforge/timetable-api/internal/dto"
	"github.com/schoolforge/timetable-api/internal/models"
	appErrors "github.com/schoolforge/timetable-api/pkg/errors"
)

func TestTimetableServiceGenerateSuccess(t *testing.T) {
	svc := newTimetableServiceFixture(t, timetableFixtureConfig{})

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{TermID: "term-1"})
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Len(t, resp.Placements, 1)
	assert.Equal(t, 1, resp.Stats.AssignmentsProcessed)
	assert.Equal(t, 1, resp.Stats.BlocksScheduled)
	assert.NotEmpty(t, resp.ProposalID)
}

func TestTimetableServiceGenerateValidatesRequest(t *testing.T) {
	svc := newTimetableServiceFixture(t, timetableFixtureConfig{})

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestTimetableServiceGenerateReturnsFailureStatusWithoutError(t *testing.T) {
	svc := newTimetableServiceFixture(t, timetableFixtureConfig{
		teachers: []models.TimetableTeacher{{ID: "t1", Name: "Mrs. Sari", UnavailableSlots: []byte(`["Mon_1"]`)}},
		rooms:    []models.TimetableRoom{{ID: "r1"}},
		subjects: []models.TimetableSubject{{ID: "s1", Name: "Math", Sks: 1}},
		cohorts:  []models.TimetableCohort{{ID: "c1", Name: "X-1"}},
		assignments: []models.CurriculumAssignment{
			{ID: "a1", TeacherID: "t1", SubjectID: "s1", CohortID: "c1", Sks: 1},
		},
		days: []string{"Mon"}, periodsPerDay: 1,
	})

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{TermID: "term-1"})
	require.NoError(t, err)
	assert.Equal(t, "failure", resp.Status)
	assert.NotEmpty(t, resp.Error)
	assert.Empty(t, resp.Placements)
}

func TestTimetableServiceGenerateAndGetProposalRoundTrip(t *testing.T) {
	svc := newTimetableServiceFixture(t, timetableFixtureConfig{})

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{TermID: "term-1"})
	require.NoError(t, err)

	fetched, err := svc.GetProposal(context.Background(), resp.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, resp.ProposalID, fetched.ProposalID)
	assert.Equal(t, resp.Placements, fetched.Placements)
}

func TestTimetableServiceGetProposalNotFound(t *testing.T) {
	svc := newTimetableServiceFixture(t, timetableFixtureConfig{})

	_, err := svc.GetProposal(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

// --- Fixtures ---

type timetableFixtureConfig struct {
	teachers      []models.TimetableTeacher
	rooms         []models.TimetableRoom
	subjects      []models.TimetableSubject
	cohorts       []models.TimetableCohort
	assignments   []models.CurriculumAssignment
	days          []string
	periodsPerDay int
}

func newTimetableServiceFixture(t *testing.T, cfg timetableFixtureConfig) *TimetableService {
	t.Helper()

	if cfg.teachers == nil {
		cfg.teachers = []models.TimetableTeacher{{ID: "t1", Name: "Mrs. Sari", UnavailableSlots: []byte(`[]`)}}
	}
	if cfg.rooms == nil {
		cfg.rooms = []models.TimetableRoom{{ID: "r1", UnavailableSlots: []byte(`[]`)}}
	}
	if cfg.subjects == nil {
		cfg.subjects = []models.TimetableSubject{{ID: "s1", Name: "Math", Sks: 1, UnavailableSlots: []byte(`[]`)}}
	}
	if cfg.cohorts == nil {
		cfg.cohorts = []models.TimetableCohort{{ID: "c1", Name: "X-1"}}
	}
	if cfg.assignments == nil {
		cfg.assignments = []models.CurriculumAssignment{{ID: "a1", TeacherID: "t1", SubjectID: "s1", CohortID: "c1", Sks: 1}}
	}
	if cfg.days == nil {
		cfg.days = []string{"Mon", "Tue"}
	}
	if cfg.periodsPerDay == 0 {
		cfg.periodsPerDay = 4
	}

	snapshots := &timetableSnapshotStub{
		teachers:    cfg.teachers,
		rooms:       cfg.rooms,
		subjects:    cfg.subjects,
		cohorts:     cfg.cohorts,
		assignments: cfg.assignments,
	}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Hour, zap.NewNop(), true)

	return NewTimetableService(
		snapshots,
		cache,
		validator.New(),
		zap.NewNop(),
		prometheus.NewRegistry(),
		TimetableServiceConfig{
			Days:             cfg.days,
			PeriodsPerDay:    cfg.periodsPerDay,
			MaxBlockDuration: 3,
			ProposalTTL:      time.Hour,
		},
	)
}

type timetableSnapshotStub struct {
	teachers    []models.TimetableTeacher
	rooms       []models.TimetableRoom
	subjects    []models.TimetableSubject
	cohorts     []models.TimetableCohort
	assignments []models.CurriculumAssignment
}

func (s *timetableSnapshotStub) ListTeachers(ctx context.Context) ([]models.TimetableTeacher, error) {
	return s.teachers, nil
}

func (s *timetableSnapshotStub) ListRooms(ctx context.Context) ([]models.TimetableRoom, error) {
	return s.rooms, nil
}

func (s *timetableSnapshotStub) ListSubjects(ctx context.Context) ([]models.TimetableSubject, error) {
	return s.subjects, nil
}

func (s *timetableSnapshotStub) ListCohorts(ctx context.Context, termID string) ([]models.TimetableCohort, error) {
	return s.cohorts, nil
}

func (s *timetableSnapshotStub) ListAssignments(ctx context.Context, termID string) ([]models.CurriculumAssignment, error) {
	return s.assignments, nil
}

// memoryCacheRepo is an in-process stand-in for Redis, round-tripping
// values through JSON exactly as the real repository does.
type memoryCacheRepo struct {
	data map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{data: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = payload
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	delete(m.data, pattern)
	return nil
}

