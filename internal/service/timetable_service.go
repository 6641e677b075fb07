package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/schoolforge/timetable-api/internal/dto"
	"github.com/schoolforge/timetable-api/internal/models"
	"github.com/schoolforge/timetable-api/internal/repository"
	"github.com/schoolforge/timetable-api/internal/scheduling"
	appErrors "github.com/schoolforge/timetable-api/pkg/errors"
)

type timetableSnapshotLoader interface {
	ListTeachers(ctx context.Context) ([]models.TimetableTeacher, error)
	ListRooms(ctx context.Context) ([]models.TimetableRoom, error)
	ListSubjects(ctx context.Context) ([]models.TimetableSubject, error)
	ListCohorts(ctx context.Context, termID string) ([]models.TimetableCohort, error)
	ListAssignments(ctx context.Context, termID string) ([]models.CurriculumAssignment, error)
}

// TimetableServiceConfig governs generator behaviour.
type TimetableServiceConfig struct {
	Days             []string
	PeriodsPerDay    int
	MaxBlockDuration int
	DefaultRandomize bool
	SolveTimeLimit   time.Duration
	SearchWorkers    int
	ProposalTTL      time.Duration
}

// TimetableService orchestrates snapshot loading, solving, and proposal
// caching for the weekly timetable generator.
type TimetableService struct {
	snapshots timetableSnapshotLoader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableServiceConfig

	solveDuration prometheus.Histogram
	solveOutcomes *prometheus.CounterVec
}

// NewTimetableService wires the timetable generator's dependencies.
func NewTimetableService(
	snapshots timetableSnapshotLoader,
	cache *CacheService,
	validate *validator.Validate,
	logger *zap.Logger,
	registry *prometheus.Registry,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}

	solveDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_solve_duration_seconds",
		Help:    "Duration of a full timetable generation pipeline run.",
		Buckets: prometheus.DefBuckets,
	})
	solveOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_solve_outcome_total",
		Help: "Count of timetable solve attempts by outcome.",
	}, []string{"outcome"})

	if registry != nil {
		registry.MustRegister(solveDuration, solveOutcomes)
	} else {
		prometheus.MustRegister(solveDuration, solveOutcomes)
	}

	return &TimetableService{
		snapshots:     snapshots,
		cache:         cache,
		validator:     validate,
		logger:        logger,
		cfg:           cfg,
		solveDuration: solveDuration,
		solveOutcomes: solveOutcomes,
	}
}

// Generate loads the term's snapshot, runs the scheduling pipeline, and
// caches the resulting proposal (success or failure) under a fresh id.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}

	snapshot, assignmentCount, err := s.loadSnapshot(ctx, req.TermID)
	if err != nil {
		return nil, err
	}

	opts := scheduling.SolveOptions{
		Randomize:     req.Randomize || s.cfg.DefaultRandomize,
		Seed:          req.Seed,
		SearchWorkers: s.cfg.SearchWorkers,
		TimeLimit:     s.cfg.SolveTimeLimit,
	}

	start := time.Now()
	result, err := scheduling.Run(snapshot, opts, s.logger)
	s.solveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.solveOutcomes.WithLabelValues("error").Inc()
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "timetable snapshot is not solvable")
	}

	proposalID := uuid.NewString()
	resp := &dto.GenerateTimetableResponse{
		ProposalID: proposalID,
		Status:     string(result.Status),
		Stats: dto.GenerateTimetableStats{
			AssignmentsProcessed: assignmentCount,
			BlocksScheduled:      len(result.Placements),
		},
	}

	if result.Status == scheduling.StatusSuccess {
		s.solveOutcomes.WithLabelValues("success").Inc()
		resp.Placements = toDTOPlacements(result.Placements)
	} else {
		s.solveOutcomes.WithLabelValues("failure").Inc()
		resp.Error = result.Error
	}

	if s.cache != nil {
		cacheKey := proposalCacheKey(proposalID)
		if cacheErr := s.cache.Set(ctx, cacheKey, resp, s.cfg.ProposalTTL); cacheErr != nil {
			s.logger.Warn("failed to cache timetable proposal", zap.String("proposal_id", proposalID), zap.Error(cacheErr))
		}
	}

	return resp, nil
}

// GetProposal retrieves a previously generated proposal from cache.
func (s *TimetableService) GetProposal(ctx context.Context, proposalID string) (*dto.GenerateTimetableResponse, error) {
	if s.cache == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "proposal cache unavailable")
	}
	var resp dto.GenerateTimetableResponse
	hit, err := s.cache.Get(ctx, proposalCacheKey(proposalID), &resp)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read proposal cache")
	}
	if !hit {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	return &resp, nil
}

func (s *TimetableService) loadSnapshot(ctx context.Context, termID string) (scheduling.Snapshot, int, error) {
	teacherRows, err := s.snapshots.ListTeachers(ctx)
	if err != nil {
		return scheduling.Snapshot{}, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	roomRows, err := s.snapshots.ListRooms(ctx)
	if err != nil {
		return scheduling.Snapshot{}, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	subjectRows, err := s.snapshots.ListSubjects(ctx)
	if err != nil {
		return scheduling.Snapshot{}, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	cohortRows, err := s.snapshots.ListCohorts(ctx, termID)
	if err != nil {
		return scheduling.Snapshot{}, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cohorts")
	}
	assignmentRows, err := s.snapshots.ListAssignments(ctx, termID)
	if err != nil {
		return scheduling.Snapshot{}, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}

	teachers := make([]scheduling.Teacher, 0, len(teacherRows))
	for _, t := range teacherRows {
		slots, decodeErr := repository.DecodeSlots(t.UnavailableSlots)
		if decodeErr != nil {
			return scheduling.Snapshot{}, 0, appErrors.Wrap(decodeErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode teacher constraints")
		}
		teachers = append(teachers, scheduling.Teacher{ID: t.ID, Name: t.Name, UnavailableSlots: slots})
	}

	rooms := make([]scheduling.Room, 0, len(roomRows))
	for _, r := range roomRows {
		slots, decodeErr := repository.DecodeSlots(r.UnavailableSlots)
		if decodeErr != nil {
			return scheduling.Snapshot{}, 0, appErrors.Wrap(decodeErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode room constraints")
		}
		rooms = append(rooms, scheduling.Room{ID: r.ID, Name: r.Name, Capacity: r.Capacity, UnavailableSlots: slots})
	}

	subjects := make([]scheduling.Subject, 0, len(subjectRows))
	for _, sub := range subjectRows {
		slots, decodeErr := repository.DecodeSlots(sub.UnavailableSlots)
		if decodeErr != nil {
			return scheduling.Snapshot{}, 0, appErrors.Wrap(decodeErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode subject constraints")
		}
		subjects = append(subjects, scheduling.Subject{
			ID:               sub.ID,
			Name:             sub.Name,
			Sks:              sub.Sks,
			UnavailableSlots: slots,
			FixedSlot:        sub.FixedSlot,
		})
	}

	cohorts := make([]scheduling.Cohort, 0, len(cohortRows))
	for _, c := range cohortRows {
		cohorts = append(cohorts, scheduling.Cohort{ID: c.ID, Name: c.Name})
	}

	assignments := make([]scheduling.Assignment, 0, len(assignmentRows))
	for _, a := range assignmentRows {
		assignments = append(assignments, scheduling.Assignment{
			ID:        a.ID,
			TeacherID: a.TeacherID,
			SubjectID: a.SubjectID,
			CohortID:  a.CohortID,
			Sks:       a.Sks,
		})
	}

	snapshot := scheduling.Snapshot{
		Config: scheduling.Config{
			Days:             s.cfg.Days,
			PeriodsPerDay:    s.cfg.PeriodsPerDay,
			MaxBlockDuration: s.cfg.MaxBlockDuration,
		},
		Teachers:    teachers,
		Rooms:       rooms,
		Subjects:    subjects,
		Cohorts:     cohorts,
		Assignments: assignments,
	}
	return snapshot, len(assignments), nil
}

func toDTOPlacements(placements []scheduling.Placement) []dto.TimetablePlacement {
	out := make([]dto.TimetablePlacement, 0, len(placements))
	for _, p := range placements {
		out = append(out, dto.TimetablePlacement{
			BlockID:     p.BlockID,
			RoomID:      p.RoomID,
			StartSlot:   p.StartSlot,
			Duration:    p.Duration,
			SubjectName: p.SubjectName,
			TeacherID:   p.TeacherID,
			CohortName:  p.CohortName,
		})
	}
	return out
}

func proposalCacheKey(id string) string {
	return fmt.Sprintf("timetable:proposal:%s", id)
}
