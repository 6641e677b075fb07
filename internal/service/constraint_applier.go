package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/schoolforge/timetable-api/internal/dto"
	appErrors "github.com/schoolforge/timetable-api/pkg/errors"
)

type constraintStore interface {
	UpdateSlots(ctx context.Context, table, id string, slots []string, block bool) error
	ForceSubject(ctx context.Context, subjectID, targetSlotID string) error
	ClearAll(ctx context.Context) error
}

// ConstraintApplier dispatches an AdjustCommand to the constraint store,
// one branch per action, mirroring the source interpreter's handler table.
type ConstraintApplier struct {
	store  constraintStore
	logger *zap.Logger
}

// NewConstraintApplier constructs the applier.
func NewConstraintApplier(store constraintStore, logger *zap.Logger) *ConstraintApplier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConstraintApplier{store: store, logger: logger}
}

// Apply executes one constraint command and returns a human-readable reply.
func (a *ConstraintApplier) Apply(ctx context.Context, cmd dto.AdjustCommand) (string, error) {
	switch cmd.Action {
	case "clear_all_constraints":
		return a.clearAll(ctx, cmd)
	case "block_teacher":
		return a.updateSlots(ctx, "teachers", cmd.TeacherID, cmd.SlotIDs, true, "Blocked teacher for %d slot(s).")
	case "unblock_teacher":
		return a.updateSlots(ctx, "teachers", cmd.TeacherID, cmd.SlotIDs, false, "Freed up teacher on %d slot(s).")
	case "block_room":
		return a.updateSlots(ctx, "rooms", cmd.RoomID, cmd.SlotIDs, true, "Closed room for %d slot(s).")
	case "unblock_room":
		return a.updateSlots(ctx, "rooms", cmd.RoomID, cmd.SlotIDs, false, "Opened room again.")
	case "block_subject":
		return a.updateSlots(ctx, "subjects", cmd.SubjectID, cmd.SlotIDs, true, "Restricted subject on %d slot(s).")
	case "unblock_subject":
		return a.updateSlots(ctx, "subjects", cmd.SubjectID, cmd.SlotIDs, false, "Restrictions removed for subject.")
	case "force_subject":
		return a.forceSubject(ctx, cmd)
	case "general_constraint":
		a.logger.Info("recorded general constraint", zap.String("description", cmd.Description))
		return "Noted that constraint down.", nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown adjust action %q", cmd.Action))
	}
}

func (a *ConstraintApplier) updateSlots(ctx context.Context, table, id string, rawSlots []string, block bool, messageFmt string) (string, error) {
	if id == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s id is required", table))
	}
	slots := expandSlotShorthand(rawSlots)
	if err := a.store.UpdateSlots(ctx, table, id, slots, block); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update constraint")
	}
	if !strings.Contains(messageFmt, "%d") {
		return messageFmt, nil
	}
	return fmt.Sprintf(messageFmt, len(slots)), nil
}

func (a *ConstraintApplier) forceSubject(ctx context.Context, cmd dto.AdjustCommand) (string, error) {
	if cmd.SubjectID == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "subject id is required")
	}
	if cmd.TargetSlotID == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "target slot id is required")
	}
	if err := a.store.ForceSubject(ctx, cmd.SubjectID, cmd.TargetSlotID); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to force subject")
	}
	return fmt.Sprintf("Pinned subject to start exactly at %s.", cmd.TargetSlotID), nil
}

func (a *ConstraintApplier) clearAll(ctx context.Context, cmd dto.AdjustCommand) (string, error) {
	if !cmd.Confirmation {
		return "", appErrors.Clone(appErrors.ErrValidation, "clear_all_constraints requires confirmation")
	}
	if err := a.store.ClearAll(ctx); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear constraints")
	}
	return "Wiped all constraints. We are starting fresh.", nil
}

// expandSlotShorthand turns a bare day label ("Mon") into periods 1 through
// 8 of that day ("Mon_1".."Mon_8"); the configured periods per day are not
// consulted. Ids already shaped like "{day}_{period}" pass through
// unchanged. Duplicates are dropped.
func expandSlotShorthand(slotIDs []string) []string {
	const maxPeriodsPerDay = 8

	seen := make(map[string]struct{}, len(slotIDs))
	result := make([]string, 0, len(slotIDs))
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}

	for _, s := range slotIDs {
		if isBareDayLabel(s) {
			for p := 1; p <= maxPeriodsPerDay; p++ {
				add(fmt.Sprintf("%s_%d", s, p))
			}
			continue
		}
		add(s)
	}
	return result
}

func isBareDayLabel(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r == '_' {
			return false
		}
	}
	return true
}
