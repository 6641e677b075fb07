package scheduling

import "fmt"

// ExpandBlocks splits each assignment's weekly workload into an ordered
// list of blocks of length between 1 and maxBlock, summing to the
// assignment's Sks. Assignments with Sks <= 0 are silently dropped — the
// database is expected never to carry a non-positive workload.
//
// Greedy rule: repeatedly emit a block of length min(maxBlock, remaining)
// until the remainder is zero. Running this twice on the same input
// yields identical output — there is no hidden state or randomness here.
func ExpandBlocks(assignments []Assignment, subjectNames, cohortNames map[string]string, cfg Config) []Block {
	maxBlock := cfg.maxBlock()
	blocks := make([]Block, 0, len(assignments))

	for _, a := range assignments {
		if a.Sks <= 0 {
			continue
		}

		remaining := a.Sks
		part := 1
		for remaining > 0 {
			duration := maxBlock
			if remaining < maxBlock {
				duration = remaining
			}

			blocks = append(blocks, Block{
				BlockID:      fmt.Sprintf("%s_p%d", a.ID, part),
				AssignmentID: a.ID,
				TeacherID:    a.TeacherID,
				SubjectID:    a.SubjectID,
				CohortID:     a.CohortID,
				Duration:     duration,
				SubjectName:  subjectNames[a.SubjectID],
				CohortName:   cohortNames[a.CohortID],
			})

			remaining -= duration
			part++
		}
	}

	return blocks
}
