package scheduling

import "fmt"

// Diagnosis is the first-match infeasibility reason found while scanning
// block domains.
type Diagnosis struct {
	BlockID string
	Pinned  bool
	Reason  string
}

// PreDiagnose scans every block's domain before the solver runs. It
// returns the first empty-domain block's diagnosis, or ok=false if every
// block has at least one candidate.
//
// CP solvers typically return undifferentiated UNSAT; this pre-scan
// catches the most common single-block causes and returns actionable
// text before the expensive search.
func PreDiagnose(blocks []Block, domains Domains, subjects map[string]Subject, teachers map[string]Teacher) (Diagnosis, bool) {
	for _, b := range blocks {
		if len(domains[b.BlockID]) > 0 {
			continue
		}

		subject, hasSubject := subjects[b.SubjectID]
		if hasSubject && subject.FixedSlot != nil {
			return Diagnosis{
				BlockID: b.BlockID,
				Pinned:  true,
				Reason: fmt.Sprintf(
					"'%s' (%d hrs) has 0 valid slots. It is FORCED to %s, but the teacher or room is blocked there or the pin is outside the grid.",
					b.SubjectName, b.Duration, *subject.FixedSlot,
				),
			}, true
		}

		teacherName := b.TeacherID
		if teacher, ok := teachers[b.TeacherID]; ok {
			teacherName = teacher.Name
		}
		return Diagnosis{
			BlockID: b.BlockID,
			Pinned:  false,
			Reason: fmt.Sprintf(
				"'%s' (%d hrs) has 0 valid slots. Teacher %s may be over-blocked, or no contiguous window of length %d is free.",
				b.SubjectName, b.Duration, teacherName, b.Duration,
			),
		}, true
	}

	return Diagnosis{}, false
}
