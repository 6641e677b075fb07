package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableTeacher is a schedulable teacher with optional weekly unavailability.
type TimetableTeacher struct {
	ID               string         `db:"id" json:"id"`
	Name             string         `db:"name" json:"name"`
	UnavailableSlots types.JSONText `db:"unavailable_slots" json:"unavailable_slots"`
}

// TimetableRoom is a schedulable room with optional weekly unavailability.
type TimetableRoom struct {
	ID               string         `db:"id" json:"id"`
	Name             string         `db:"name" json:"name"`
	Capacity         int            `db:"capacity" json:"capacity"`
	UnavailableSlots types.JSONText `db:"unavailable_slots" json:"unavailable_slots"`
}

// TimetableSubject carries the weekly workload and optional pin. FixedSlot
// is nil when the column is NULL, distinguishing "never pinned" from
// "pinned to an empty string" — callers must never collapse the two.
type TimetableSubject struct {
	ID               string         `db:"id" json:"id"`
	Name             string         `db:"name" json:"name"`
	Sks              int            `db:"sks" json:"sks"`
	UnavailableSlots types.JSONText `db:"unavailable_slots" json:"unavailable_slots"`
	FixedSlot        *string        `db:"fixed_slot" json:"fixed_slot,omitempty"`
}

// TimetableCohort is an academic-year/class group.
type TimetableCohort struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// CurriculumAssignment is a curriculum contract: teacher X teaches subject Y
// to cohort Z for Sks lesson-units weekly.
type CurriculumAssignment struct {
	ID        string `db:"id" json:"id"`
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	SubjectID string `db:"subject_id" json:"subject_id"`
	CohortID  string `db:"cohort_id" json:"cohort_id"`
	Sks       int    `db:"sks" json:"sks"`
}

// TimetableProposalStatus is the persisted lifecycle state of a proposal.
type TimetableProposalStatus string

const (
	TimetableProposalStatusDraft     TimetableProposalStatus = "draft"
	TimetableProposalStatusPublished TimetableProposalStatus = "published"
)

// TimetableProposal is a solved (or failed) run, kept for later publication.
type TimetableProposal struct {
	ID        string                  `db:"id" json:"id"`
	TermID    string                  `db:"term_id" json:"term_id"`
	Status    TimetableProposalStatus `db:"status" json:"status"`
	Meta      types.JSONText          `db:"meta" json:"meta"`
	CreatedAt time.Time               `db:"created_at" json:"created_at"`
}

// GeneratedPlacement is one persisted row of a published proposal.
type GeneratedPlacement struct {
	ID          string `db:"id" json:"id"`
	ProposalID  string `db:"proposal_id" json:"proposal_id"`
	BlockID     string `db:"block_id" json:"block_id"`
	RoomID      string `db:"room_id" json:"room_id"`
	TeacherID   string `db:"teacher_id" json:"teacher_id"`
	StartSlot   string `db:"start_slot" json:"start_slot"`
	Duration    int    `db:"duration" json:"duration"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	CohortName  string `db:"cohort_name" json:"cohort_name"`
}
