package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/schoolforge/timetable-api/internal/dto"
	"github.com/schoolforge/timetable-api/pkg/export"
)

// TimetableExportService renders a cached proposal as a printable PDF grid,
// the Go equivalent of the source prototype's console table printout.
type TimetableExportService struct {
	proposals timetableProposalReader
	pdf       *export.PDFExporter
}

type timetableProposalReader interface {
	GetProposal(ctx context.Context, proposalID string) (*dto.GenerateTimetableResponse, error)
}

// NewTimetableExportService constructs the export service.
func NewTimetableExportService(proposals timetableProposalReader, pdf *export.PDFExporter) *TimetableExportService {
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &TimetableExportService{proposals: proposals, pdf: pdf}
}

// ExportPDF renders the proposal's placements into a PDF byte stream.
func (s *TimetableExportService) ExportPDF(ctx context.Context, proposalID string) ([]byte, error) {
	proposal, err := s.proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	placements := make([]dto.TimetablePlacement, len(proposal.Placements))
	copy(placements, proposal.Placements)
	sort.Slice(placements, func(i, j int) bool {
		if placements[i].StartSlot != placements[j].StartSlot {
			return placements[i].StartSlot < placements[j].StartSlot
		}
		return placements[i].RoomID < placements[j].RoomID
	})

	dataset := export.Dataset{
		Headers: []string{"Slot", "Subject", "Cohort", "Room", "Teacher"},
		Rows:    make([]map[string]string, 0, len(placements)),
	}
	for _, p := range placements {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Slot":    p.StartSlot,
			"Subject": p.SubjectName,
			"Cohort":  p.CohortName,
			"Room":    p.RoomID,
			"Teacher": p.TeacherID,
		})
	}

	title := fmt.Sprintf("Timetable Proposal %s", proposalID)
	return s.pdf.Render(dataset, title)
}
