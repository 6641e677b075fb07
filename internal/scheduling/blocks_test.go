package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandBlocksSplitsAtMaxDuration(t *testing.T) {
	cfg := Config{MaxBlockDuration: 3}
	assignments := []Assignment{
		{ID: "a1", TeacherID: "t1", SubjectID: "s1", CohortID: "c1", Sks: 7},
	}
	names := map[string]string{"s1": "Mathematics"}
	cohorts := map[string]string{"c1": "X-IPA-1"}

	blocks := ExpandBlocks(assignments, names, cohorts, cfg)

	wantDurations := []int{3, 3, 1}
	assert.Len(t, blocks, len(wantDurations))
	total := 0
	for i, b := range blocks {
		assert.Equal(t, wantDurations[i], b.Duration)
		assert.Equal(t, "a1", b.AssignmentID)
		assert.Equal(t, "Mathematics", b.SubjectName)
		assert.Equal(t, "X-IPA-1", b.CohortName)
		total += b.Duration
	}
	assert.Equal(t, 7, total)
}

func TestExpandBlocksDropsNonPositiveWorkload(t *testing.T) {
	cfg := Config{MaxBlockDuration: 3}
	assignments := []Assignment{
		{ID: "a1", Sks: 0},
		{ID: "a2", Sks: -2},
	}
	blocks := ExpandBlocks(assignments, nil, nil, cfg)
	assert.Empty(t, blocks)
}

func TestExpandBlocksIsDeterministic(t *testing.T) {
	cfg := Config{MaxBlockDuration: 2}
	assignments := []Assignment{{ID: "a1", Sks: 5}}
	first := ExpandBlocks(assignments, nil, nil, cfg)
	second := ExpandBlocks(assignments, nil, nil, cfg)
	assert.Equal(t, first, second)
}

func TestExpandBlocksDefaultsMaxDuration(t *testing.T) {
	cfg := Config{}
	blocks := ExpandBlocks([]Assignment{{ID: "a1", Sks: 4}}, nil, nil, cfg)
	assert.Equal(t, []int{3, 1}, []int{blocks[0].Duration, blocks[1].Duration})
}
