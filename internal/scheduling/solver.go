package scheduling

import (
	"math/rand"
	"sort"
	"time"
)

// SolveOptions governs solver behaviour for a single solve.
type SolveOptions struct {
	// Randomize, when true, seeds the search with a fresh random integer
	// in [1, 10000] (or Seed, if provided) and shuffles variable/value
	// ordering. Absent randomization the solver is deterministic.
	Randomize bool
	// Seed overrides the random source. When nil and Randomize is true, a
	// fresh seed is drawn from math/rand.
	Seed *int64
	// SearchWorkers is carried through for parity with a CP-SAT adapter's
	// num_search_workers knob; this backtracking solver is single
	// threaded, so the field is informational only and never changes
	// observable ordering.
	SearchWorkers int
	// TimeLimit bounds the search. Zero means unbounded, matching the
	// spec's documented default ("a pathological input can run
	// arbitrarily long" absent an explicit limit).
	TimeLimit time.Duration
}

const genericFailureMessage = "Mathematical Conflict: too many overlapping classes at the same time."

// Solve runs a backtracking search over one Boolean variable per admitted
// (block, room, start_slot) triple, enforcing exactly-one-per-block and
// at-most-one-per-(resource,slot) exclusivity. It returns a complete
// placement for every block, or a generic failure — there are no partial
// results.
func Solve(model *Model, blocks []Block, opts SolveOptions) Result {
	blockOrder := orderedBlockIDs(model, blocks)

	var rng *rand.Rand
	if opts.Randomize {
		seed := freshSeed(opts.Seed)
		rng = rand.New(rand.NewSource(seed))
		rng.Shuffle(len(blockOrder), func(i, j int) {
			blockOrder[i], blockOrder[j] = blockOrder[j], blockOrder[i]
		})
	}

	candidates := make(map[string][]int, len(model.byBlock))
	for blockID, idxs := range model.byBlock {
		ordered := append([]int(nil), idxs...)
		if rng != nil {
			rng.Shuffle(len(ordered), func(i, j int) {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			})
		}
		candidates[blockID] = ordered
	}

	search := &backtrackSearch{
		model:       model,
		order:       blockOrder,
		candidates:  candidates,
		roomSlot:    make(map[string]bool, len(model.byRoomSlot)),
		teacherSlot: make(map[string]bool, len(model.byTeacherSlot)),
		cohortSlot:  make(map[string]bool, len(model.byCohortSlot)),
		chosen:      make(map[string]int, len(blockOrder)),
		deadline:    deadlineFor(opts.TimeLimit),
	}

	if !search.run(0) {
		return Result{Status: StatusFailure, Error: genericFailureMessage}
	}

	blockByID := make(map[string]Block, len(blocks))
	for _, b := range blocks {
		blockByID[b.BlockID] = b
	}

	placements := make([]Placement, 0, len(blockOrder))
	for _, blockID := range blockOrder {
		v := model.Variables[search.chosen[blockID]]
		b := blockByID[blockID]
		placements = append(placements, Placement{
			BlockID:     blockID,
			RoomID:      v.RoomID,
			StartSlot:   v.StartSlot,
			Duration:    v.Duration,
			SubjectName: b.SubjectName,
			TeacherID:   v.TeacherID,
			CohortName:  b.CohortName,
		})
	}

	return Result{Status: StatusSuccess, Placements: placements}
}

// orderedBlockIDs lists every block with at least one admitted variable,
// most-constrained-first (fewest candidates), breaking ties by block id
// for determinism. This is a search heuristic only — it does not change
// which solutions are reachable, only how quickly one is found.
func orderedBlockIDs(model *Model, blocks []Block) []string {
	ids := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if _, ok := model.byBlock[b.BlockID]; ok {
			ids = append(ids, b.BlockID)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		li, lj := len(model.byBlock[ids[i]]), len(model.byBlock[ids[j]])
		if li != lj {
			return li < lj
		}
		return ids[i] < ids[j]
	})
	return ids
}

func freshSeed(explicit *int64) int64 {
	if explicit != nil {
		return *explicit
	}
	return rand.Int63n(10000) + 1
}

func deadlineFor(limit time.Duration) time.Time {
	if limit <= 0 {
		return time.Time{}
	}
	return time.Now().Add(limit)
}

type backtrackSearch struct {
	model       *Model
	order       []string
	candidates  map[string][]int
	roomSlot    map[string]bool
	teacherSlot map[string]bool
	cohortSlot  map[string]bool
	chosen      map[string]int
	deadline    time.Time
}

// run performs depth-first search with forward-checked exclusivity:
// a candidate is only committed if none of its occupied slots collide
// with an already-placed room, teacher, or cohort assignment.
func (s *backtrackSearch) run(depth int) bool {
	if depth == len(s.order) {
		return true
	}
	if !s.deadline.IsZero() && time.Now().After(s.deadline) {
		return false
	}

	blockID := s.order[depth]
	for _, idx := range s.candidates[blockID] {
		v := s.model.Variables[idx]
		if s.conflicts(v) {
			continue
		}

		s.reserve(v)
		s.chosen[blockID] = idx
		if s.run(depth + 1) {
			return true
		}
		s.release(v)
		delete(s.chosen, blockID)
	}

	return false
}

func (s *backtrackSearch) conflicts(v Variable) bool {
	for _, slot := range v.Occupied {
		if s.roomSlot[roomSlotKey(v.RoomID, slot)] {
			return true
		}
		if s.teacherSlot[teacherSlotKey(v.TeacherID, slot)] {
			return true
		}
		if s.cohortSlot[cohortSlotKey(v.CohortID, slot)] {
			return true
		}
	}
	return false
}

func (s *backtrackSearch) reserve(v Variable) {
	for _, slot := range v.Occupied {
		s.roomSlot[roomSlotKey(v.RoomID, slot)] = true
		s.teacherSlot[teacherSlotKey(v.TeacherID, slot)] = true
		s.cohortSlot[cohortSlotKey(v.CohortID, slot)] = true
	}
}

func (s *backtrackSearch) release(v Variable) {
	for _, slot := range v.Occupied {
		delete(s.roomSlot, roomSlotKey(v.RoomID, slot))
		delete(s.teacherSlot, teacherSlotKey(v.TeacherID, slot))
		delete(s.cohortSlot, cohortSlotKey(v.CohortID, slot))
	}
}
