package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildModelIndexesExclusivityConstraints(t *testing.T) {
	grid := BuildGrid(Config{Days: []string{"Mon"}, PeriodsPerDay: 2})
	blocks := []Block{{BlockID: "b1", TeacherID: "t1", CohortID: "c1", Duration: 1}}
	domains := Domains{"b1": []Candidate{
		{RoomID: "r1", StartSlot: "Mon_1"},
		{RoomID: "r1", StartSlot: "Mon_2"},
	}}

	model, err := BuildModel(blocks, domains, grid)
	require.NoError(t, err)
	assert.Len(t, model.Variables, 2)
	assert.Len(t, model.byBlock["b1"], 2)
	assert.Len(t, model.byRoomSlot[roomSlotKey("r1", "Mon_1")], 1)
	assert.Len(t, model.byTeacherSlot[teacherSlotKey("t1", "Mon_1")], 1)
	assert.Len(t, model.byCohortSlot[cohortSlotKey("c1", "Mon_1")], 1)
}

func TestBuildModelRejectsBlockWithNoAdmittedVariables(t *testing.T) {
	grid := BuildGrid(Config{Days: []string{"Mon"}, PeriodsPerDay: 2})
	blocks := []Block{{BlockID: "b1", Duration: 1}}
	domains := Domains{"b1": nil}

	_, err := BuildModel(blocks, domains, grid)
	assert.Error(t, err)
}

func TestBuildModelDropsCandidatesOutsideTheGrid(t *testing.T) {
	grid := BuildGrid(Config{Days: []string{"Mon"}, PeriodsPerDay: 2})
	blocks := []Block{{BlockID: "b1", Duration: 1}}
	domains := Domains{"b1": []Candidate{{RoomID: "r1", StartSlot: "Wed_1"}}}

	_, err := BuildModel(blocks, domains, grid)
	assert.Error(t, err, "an unresolvable slot id leaves the block with zero admitted variables")
}
