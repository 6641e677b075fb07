package scheduling

import (
	"fmt"

	"go.uber.org/zap"
)

// Run drives the full Idle -> PreDiagnose -> {FailDiagnosed} | Solve ->
// {Success, FailGeneric} pipeline over a single snapshot: block expansion,
// domain generation, pre-solve diagnosis, model construction, and solving.
// A nil logger is replaced with a no-op logger.
func Run(snapshot Snapshot, opts SolveOptions, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}

	teachers, rooms, subjects, subjectNames, cohortNames, err := index(snapshot)
	if err != nil {
		return Result{}, err
	}

	if err := checkForeignKeys(snapshot, teachers, subjects, cohortNames); err != nil {
		return Result{}, err
	}

	if reason := invalidGridConfig(snapshot.Config); reason != "" {
		log.Info("configuration error", zap.String("reason", reason))
		return Result{Status: StatusFailure, Error: reason}, nil
	}

	grid := BuildGrid(snapshot.Config)
	warnInvalidPins(snapshot.Subjects, grid, log)

	blocks := ExpandBlocks(snapshot.Assignments, subjectNames, cohortNames, snapshot.Config)
	log.Info("blocks expanded", zap.Int("assignments", len(snapshot.Assignments)), zap.Int("blocks", len(blocks)))
	if len(blocks) == 0 {
		return Result{Status: StatusSuccess, Placements: nil}, nil
	}

	if len(rooms) == 0 {
		const reason = "No rooms defined in database."
		log.Info("configuration error", zap.String("reason", reason))
		return Result{Status: StatusFailure, Error: reason}, nil
	}

	domains := BuildDomains(blocks, rooms, teachers, subjects, grid)

	if diag, found := PreDiagnose(blocks, domains, subjects, teachers); found {
		log.Info("pre-diagnosis found an unsatisfiable block",
			zap.String("block_id", diag.BlockID),
			zap.Bool("pinned", diag.Pinned),
			zap.String("reason", diag.Reason),
		)
		return Result{Status: StatusFailure, Error: diag.Reason}, nil
	}

	model, err := BuildModel(blocks, domains, grid)
	if err != nil {
		return Result{}, err
	}

	log.Info("solving", zap.Int("variables", len(model.Variables)), zap.Bool("randomize", opts.Randomize))
	result := Solve(model, blocks, opts)

	if result.Status == StatusSuccess {
		log.Info("solve succeeded", zap.Int("placements", len(result.Placements)))
	} else {
		log.Info("solve failed", zap.String("reason", result.Error))
	}

	return result, nil
}

func index(snapshot Snapshot) (
	teachers map[string]Teacher,
	rooms []Room,
	subjects map[string]Subject,
	subjectNames map[string]string,
	cohortNames map[string]string,
	err error,
) {
	teachers = make(map[string]Teacher, len(snapshot.Teachers))
	for _, t := range snapshot.Teachers {
		teachers[t.ID] = t
	}

	subjects = make(map[string]Subject, len(snapshot.Subjects))
	subjectNames = make(map[string]string, len(snapshot.Subjects))
	for _, s := range snapshot.Subjects {
		subjects[s.ID] = s
		subjectNames[s.ID] = s.Name
	}

	cohortNames = make(map[string]string, len(snapshot.Cohorts))
	for _, c := range snapshot.Cohorts {
		cohortNames[c.ID] = c.Name
	}

	rooms = snapshot.Rooms
	return teachers, rooms, subjects, subjectNames, cohortNames, nil
}

// checkForeignKeys rejects a snapshot whose assignments reference a
// teacher, subject, or cohort that isn't present. An unresolved reference
// is a configuration error, not an empty-unavailability default.
func checkForeignKeys(snapshot Snapshot, teachers map[string]Teacher, subjects map[string]Subject, cohortNames map[string]string) error {
	for _, a := range snapshot.Assignments {
		if _, ok := teachers[a.TeacherID]; !ok {
			return fmt.Errorf("scheduling: assignment %s references unknown teacher %s", a.ID, a.TeacherID)
		}
		if _, ok := subjects[a.SubjectID]; !ok {
			return fmt.Errorf("scheduling: assignment %s references unknown subject %s", a.ID, a.SubjectID)
		}
		if _, ok := cohortNames[a.CohortID]; !ok {
			return fmt.Errorf("scheduling: assignment %s references unknown cohort %s", a.ID, a.CohortID)
		}
	}
	return nil
}

// invalidGridConfig reports a missing day list or non-positive
// periods_per_day as a specific message, or "" when the grid shape is
// usable. Checked before the grid is built so a misconfigured week never
// reaches BuildDomains as a silently-empty domain on every block.
func invalidGridConfig(config Config) string {
	if len(config.Days) == 0 {
		return "No days defined in configuration."
	}
	if config.PeriodsPerDay <= 0 {
		return "No periods_per_day defined in configuration."
	}
	return ""
}

// warnInvalidPins logs once per subject whose fixed slot doesn't resolve
// against the grid. The pin is still silently dropped from the domain by
// BuildDomains; this only surfaces it for operators.
func warnInvalidPins(subjects []Subject, grid Grid, log *zap.Logger) {
	for _, s := range subjects {
		if s.FixedSlot == nil {
			continue
		}
		if _, ok := grid.Lookup(*s.FixedSlot); !ok {
			log.Warn("invalid fixed slot", zap.String("subject_id", s.ID), zap.String("fixed_slot", *s.FixedSlot))
		}
	}
}
