package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreDiagnoseReportsPinnedReason(t *testing.T) {
	blocks := []Block{{BlockID: "b1", SubjectID: "s1", SubjectName: "Physics", Duration: 2}}
	pin := "Mon_1"
	domains := Domains{"b1": nil}
	subjects := map[string]Subject{"s1": {ID: "s1", FixedSlot: &pin}}

	diag, found := PreDiagnose(blocks, domains, subjects, nil)
	require.True(t, found)
	assert.True(t, diag.Pinned)
	assert.Equal(t, "b1", diag.BlockID)
	assert.Contains(t, diag.Reason, "FORCED")
	assert.Contains(t, diag.Reason, "Mon_1")
}

func TestPreDiagnoseReportsGenericReasonWithTeacherName(t *testing.T) {
	blocks := []Block{{BlockID: "b1", SubjectID: "s1", TeacherID: "t1", SubjectName: "Physics", Duration: 2}}
	domains := Domains{"b1": nil}
	subjects := map[string]Subject{"s1": {ID: "s1"}}
	teachers := map[string]Teacher{"t1": {ID: "t1", Name: "Mrs. Sari"}}

	diag, found := PreDiagnose(blocks, domains, subjects, teachers)
	require.True(t, found)
	assert.False(t, diag.Pinned)
	assert.Contains(t, diag.Reason, "Mrs. Sari")
}

func TestPreDiagnoseOkWhenEveryBlockHasACandidate(t *testing.T) {
	blocks := []Block{{BlockID: "b1"}}
	domains := Domains{"b1": []Candidate{{RoomID: "r1", StartSlot: "Mon_1"}}}

	_, found := PreDiagnose(blocks, domains, nil, nil)
	assert.False(t, found)
}
