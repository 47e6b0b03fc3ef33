package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prehab/prehab-app/internal/service"
)

// PatientHandler holds the patient-facing service dependency.
type PatientHandler struct {
	patientService service.PatientService
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(patientService service.PatientService) *PatientHandler {
	return &PatientHandler{patientService: patientService}
}

type MarkDoneRequest struct {
	Completed         bool   `json:"completed"`
	WasDifficult      bool   `json:"wasDifficult"`
	PatientNotes      string `json:"patientNotes"`
	ActualRepetitions *int   `json:"actualRepetitions"`
}

// GetMySchedule returns the calling patient's current enrollment and its
// calendar, newest first.
func (h *PatientHandler) GetMySchedule(c *gin.Context) {
	patientID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	sched, err := h.patientService.GetMySchedule(c.Request.Context(), patientID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

// MarkDone finalizes one scheduled item with the patient's report.
func (h *PatientHandler) MarkDone(c *gin.Context) {
	patientID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}

	var req MarkDoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	item, err := h.patientService.MarkDone(c.Request.Context(), patientID, itemID, service.MarkDoneInput{
		Completed:         req.Completed,
		WasDifficult:      req.WasDifficult,
		PatientNotes:      req.PatientNotes,
		ActualRepetitions: req.ActualRepetitions,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
