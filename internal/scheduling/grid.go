package scheduling

// Slot identifies a single (day, period) cell of the weekly grid.
type Slot struct {
	ID     string
	Day    string
	Period int
}

// Grid is the full Cartesian product of configured days and periods.
type Grid struct {
	slots   []Slot
	byID    map[string]Slot
	periods int
}

// BuildGrid expands the configured days/periods into the slot universe.
func BuildGrid(cfg Config) Grid {
	periods := cfg.PeriodsPerDay
	g := Grid{
		slots:   make([]Slot, 0, len(cfg.Days)*periods),
		byID:    make(map[string]Slot, len(cfg.Days)*periods),
		periods: periods,
	}
	for _, day := range cfg.Days {
		for p := 1; p <= periods; p++ {
			s := Slot{ID: SlotID(day, p), Day: day, Period: p}
			g.slots = append(g.slots, s)
			g.byID[s.ID] = s
		}
	}
	return g
}

// Slots returns every slot in the grid, in day-major, period-minor order.
func (g Grid) Slots() []Slot {
	return g.slots
}

// Lookup resolves a slot id against the grid. The second return value is
// false for slot ids outside the configured grid (wrong day label,
// out-of-range period) — including ids that are merely well-formed.
func (g Grid) Lookup(id string) (Slot, bool) {
	s, ok := g.byID[id]
	return s, ok
}

// Occupied returns the contiguous slot ids a block of the given duration
// starting at "start" would occupy, or nil if the block would cross the
// day boundary.
func (g Grid) Occupied(start Slot, duration int) []string {
	if start.Period+duration-1 > g.periods {
		return nil
	}
	occ := make([]string, duration)
	for k := 0; k < duration; k++ {
		occ[k] = SlotID(start.Day, start.Period+k)
	}
	return occ
}
