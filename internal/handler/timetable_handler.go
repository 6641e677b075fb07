package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/schoolforge/timetable-api/internal/dto"
	appErrors "github.com/schoolforge/timetable-api/pkg/errors"
	"github.com/schoolforge/timetable-api/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	GetProposal(ctx context.Context, proposalID string) (*dto.GenerateTimetableResponse, error)
}

type timetableAdjuster interface {
	Apply(ctx context.Context, cmd dto.AdjustCommand) (string, error)
}

type timetableExporter interface {
	ExportPDF(ctx context.Context, proposalID string) ([]byte, error)
}

// TimetableHandler exposes the weekly timetable generator endpoints.
type TimetableHandler struct {
	service  timetableGenerator
	adjuster timetableAdjuster
	exporter timetableExporter
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(service timetableGenerator, adjuster timetableAdjuster, exporter timetableExporter) *TimetableHandler {
	return &TimetableHandler{service: service, adjuster: adjuster, exporter: exporter}
}

// Generate godoc
// @Summary Generate a weekly timetable proposal
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generate timetable payload"
// @Success 200 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Adjust godoc
// @Summary Apply a constraint adjustment to the timetable inputs
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.AdjustTimetableRequest true "Adjust timetable payload"
// @Success 200 {object} response.Envelope
// @Router /timetable/adjust [post]
func (h *TimetableHandler) Adjust(c *gin.Context) {
	var req dto.AdjustTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid adjust payload"))
		return
	}
	if err := validator.New().Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid adjust payload"))
		return
	}
	message, err := h.adjuster.Apply(c.Request.Context(), req.Command)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.AdjustTimetableResponse{Status: "success", Message: message}, nil)
}

// GetProposal godoc
// @Summary Fetch a previously generated timetable proposal
// @Tags Timetable
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/proposals/{id} [get]
func (h *TimetableHandler) GetProposal(c *gin.Context) {
	proposal, err := h.service.GetProposal(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// ExportPDF godoc
// @Summary Export a timetable proposal as a PDF grid
// @Tags Timetable
// @Produce application/pdf
// @Param id path string true "Proposal ID"
// @Success 200 {file} binary
// @Router /timetable/proposals/{id}/export.pdf [get]
func (h *TimetableHandler) ExportPDF(c *gin.Context) {
	pdfBytes, err := h.exporter.ExportPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
