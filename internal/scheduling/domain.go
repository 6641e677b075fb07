package scheduling

// Candidate is one admissible (room, start slot) pair for a block.
type Candidate struct {
	RoomID    string
	StartSlot string
}

// Domains maps a block id to its admissible candidate set.
type Domains map[string][]Candidate

// BuildDomains enumerates, for every block, the set of (room, start_slot)
// pairs consistent with block length, day boundaries, subject pinning,
// and teacher/subject/room unavailability.
func BuildDomains(blocks []Block, rooms []Room, teachers map[string]Teacher, subjects map[string]Subject, grid Grid) Domains {
	domains := make(Domains, len(blocks))

	for _, b := range blocks {
		subject, hasSubject := subjects[b.SubjectID]
		pinned := hasSubject && subject.FixedSlot != nil

		var starts []Slot
		if pinned {
			if slot, ok := grid.Lookup(*subject.FixedSlot); ok {
				// The pinned slot must still leave room for the block's
				// full duration within the same day — a pin can promise
				// the subject is free, but it cannot promise the day has
				// more periods than it does. A block never crosses a day
				// boundary, pinned or not; see DESIGN.md "Pinned blocks
				// and the day boundary".
				if grid.Occupied(slot, b.Duration) != nil {
					starts = []Slot{slot}
				}
			}
			// An unresolved or boundary-violating pin leaves starts nil:
			// the domain below is empty and pre-diagnosis reports the
			// pinned-variant reason.
		} else {
			for _, s := range grid.Slots() {
				if grid.Occupied(s, b.Duration) != nil {
					starts = append(starts, s)
				}
			}
		}

		var candidates []Candidate
		teacher, hasTeacher := teachers[b.TeacherID]

		for _, room := range rooms {
			for _, start := range starts {
				occ := grid.Occupied(start, b.Duration)
				if occ == nil {
					continue
				}

				if hasTeacher && intersects(teacher.UnavailableSlots, occ) {
					continue
				}
				if !pinned && hasSubject && intersects(subject.UnavailableSlots, occ) {
					continue
				}
				if intersects(room.UnavailableSlots, occ) {
					continue
				}

				candidates = append(candidates, Candidate{RoomID: room.ID, StartSlot: start.ID})
			}
		}

		domains[b.BlockID] = candidates
	}

	return domains
}

func intersects(set map[string]struct{}, slots []string) bool {
	if len(set) == 0 {
		return false
	}
	for _, s := range slots {
		if _, blocked := set[s]; blocked {
			return true
		}
	}
	return false
}
