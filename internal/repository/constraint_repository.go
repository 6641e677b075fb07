package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

// ConstraintRepository mutates the unavailable_slots/fixed_slot constraint
// columns that the timetable generator reads as Snapshot input.
type ConstraintRepository struct {
	db *sqlx.DB
}

// NewConstraintRepository constructs the repository.
func NewConstraintRepository(db *sqlx.DB) *ConstraintRepository {
	return &ConstraintRepository{db: db}
}

var constraintTables = map[string]bool{"teachers": true, "rooms": true, "subjects": true}

// UpdateSlots adds (block) or removes (unblock) slots from a resource's
// unavailable_slots column. table must be one of "teachers", "rooms",
// "subjects".
func (r *ConstraintRepository) UpdateSlots(ctx context.Context, table, id string, slots []string, block bool) error {
	if !constraintTables[table] {
		return fmt.Errorf("constraint repository: unknown table %q", table)
	}

	var current types.JSONText
	selectQuery := fmt.Sprintf(`SELECT unavailable_slots FROM %s WHERE id = $1`, table)
	if err := r.db.GetContext(ctx, &current, selectQuery, id); err != nil {
		return fmt.Errorf("load %s unavailable_slots: %w", table, err)
	}

	set, err := DecodeSlots(current)
	if err != nil {
		return err
	}
	if set == nil {
		set = make(map[string]struct{})
	}

	for _, s := range slots {
		if block {
			set[s] = struct{}{}
		} else {
			delete(set, s)
		}
	}

	updated := make([]string, 0, len(set))
	for s := range set {
		updated = append(updated, s)
	}
	payload, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("encode %s unavailable_slots: %w", table, err)
	}

	updateQuery := fmt.Sprintf(`UPDATE %s SET unavailable_slots = $1 WHERE id = $2`, table)
	if _, err := r.db.ExecContext(ctx, updateQuery, types.JSONText(payload), id); err != nil {
		return fmt.Errorf("update %s unavailable_slots: %w", table, err)
	}
	return nil
}

// ForceSubject pins a subject to a slot and clears its own unavailability,
// mirroring the source interpreter's "forcing clears conflicts" behaviour.
func (r *ConstraintRepository) ForceSubject(ctx context.Context, subjectID, targetSlotID string) error {
	const query = `UPDATE subjects SET fixed_slot = $1, unavailable_slots = '[]' WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, targetSlotID, subjectID)
	if err != nil {
		return fmt.Errorf("force subject: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check forced subject rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("subject %s not found", subjectID)
	}
	return nil
}

// ClearAll wipes every teacher/room/subject constraint, including fixed
// slots. It is the nuclear reset exposed through clear_all_constraints.
func (r *ConstraintRepository) ClearAll(ctx context.Context) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("clear all constraints: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	statements := []string{
		`UPDATE teachers SET unavailable_slots = '[]'`,
		`UPDATE rooms SET unavailable_slots = '[]'`,
		`UPDATE subjects SET unavailable_slots = '[]', fixed_slot = NULL`,
	}
	for _, stmt := range statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear all constraints: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("clear all constraints: commit: %w", err)
	}
	return nil
}
