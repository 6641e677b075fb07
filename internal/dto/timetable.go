package dto

// GenerateTimetableRequest identifies which term's snapshot to load and solve.
type GenerateTimetableRequest struct {
	TermID    string `json:"termId" validate:"required"`
	Randomize bool   `json:"randomize"`
	Seed      *int64 `json:"seed,omitempty"`
}

// TimetablePlacement is one solved (block, room, start slot) triple.
type TimetablePlacement struct {
	BlockID     string `json:"blockId"`
	RoomID      string `json:"roomId"`
	StartSlot   string `json:"startSlot"`
	Duration    int    `json:"duration"`
	SubjectName string `json:"subjectName"`
	TeacherID   string `json:"teacherId"`
	CohortName  string `json:"cohortName"`
}

// GenerateTimetableStats summarises a solve run regardless of outcome.
type GenerateTimetableStats struct {
	AssignmentsProcessed int `json:"assignmentsProcessed"`
	BlocksScheduled      int `json:"blocksScheduled"`
}

// GenerateTimetableResponse returns a proposal id plus the solved placements,
// or a failure message with zero placements. There is never a partial result.
type GenerateTimetableResponse struct {
	ProposalID string                 `json:"proposalId"`
	Status     string                 `json:"status"`
	Placements []TimetablePlacement   `json:"placements,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Stats      GenerateTimetableStats `json:"stats"`
}

// AdjustCommand is the flat tagged union the natural-language interpreter
// emits: Action discriminates which of the optional fields apply. A field
// absent from the discriminated branch is simply ignored.
type AdjustCommand struct {
	Action string `json:"action" validate:"required,oneof=block_teacher unblock_teacher block_room unblock_room block_subject unblock_subject force_subject clear_all_constraints general_constraint"`

	TeacherID string   `json:"teacherId,omitempty"`
	RoomID    string   `json:"roomId,omitempty"`
	SubjectID string   `json:"subjectId,omitempty"`
	SlotIDs   []string `json:"slotIds,omitempty"`

	// TargetSlotID is used by force_subject only.
	TargetSlotID string `json:"targetSlotId,omitempty"`

	// Confirmation gates clear_all_constraints: without it, the command
	// is rejected rather than silently skipped.
	Confirmation bool `json:"confirmation,omitempty"`

	// Description carries free text for general_constraint, which this
	// system records but cannot act on mechanically.
	Description string `json:"description,omitempty"`
}

// AdjustTimetableRequest wraps the command with the term it applies to.
type AdjustTimetableRequest struct {
	TermID  string        `json:"termId" validate:"required"`
	Command AdjustCommand `json:"command" validate:"required"`
}

// AdjustTimetableResponse mirrors the interpreter's human-readable reply.
type AdjustTimetableResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
