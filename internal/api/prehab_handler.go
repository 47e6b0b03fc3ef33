package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"prehab/prehab-app/internal/domain"
	"prehab/prehab-app/internal/service"
)

// PrehabHandler holds the enrollment service dependency.
type PrehabHandler struct {
	prehabService service.PrehabService
}

// NewPrehabHandler creates a new PrehabHandler.
func NewPrehabHandler(prehabService service.PrehabService) *PrehabHandler {
	return &PrehabHandler{prehabService: prehabService}
}

type CreatePrehabRequest struct {
	PatientID   string    `json:"patientId" binding:"required"`
	TemplateID  string    `json:"templateId" binding:"required"`
	InitDate    time.Time `json:"initDate" binding:"required"`
	SurgeryDate time.Time `json:"surgeryDate" binding:"required"`
}

type UpdatePrehabStatusRequest struct {
	Status domain.PrehabStatus `json:"status" binding:"required,oneof=pending active completed cancelled"`
}

// CreatePrehab enrolls a patient into a template, expanding its calendar.
func (h *PrehabHandler) CreatePrehab(c *gin.Context) {
	doctorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req CreatePrehabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	patientID, err := primitive.ObjectIDFromHex(req.PatientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid patient ID format")
		return
	}
	templateID, err := primitive.ObjectIDFromHex(req.TemplateID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid template ID format")
		return
	}

	prehab, err := h.prehabService.CreatePrehab(c.Request.Context(), doctorID, service.CreatePrehabInput{
		PatientID:   patientID,
		TemplateID:  templateID,
		InitDate:    req.InitDate,
		SurgeryDate: req.SurgeryDate,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, prehab)
}

// UpdateStatus applies a lifecycle transition to an enrollment.
func (h *PrehabHandler) UpdateStatus(c *gin.Context) {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	prehabID, ok := parseIDParam(c, "prehabId")
	if !ok {
		return
	}

	var req UpdatePrehabStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	prehab, err := h.prehabService.UpdateStatus(c.Request.Context(), callerID, prehabID, req.Status)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, prehab)
}

// GetStatistics returns the adherence report for a patient's current
// enrollment.
func (h *PrehabHandler) GetStatistics(c *gin.Context) {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	patientID, ok := parseIDParam(c, "patientId")
	if !ok {
		return
	}

	report, err := h.prehabService.GetStatistics(c.Request.Context(), callerID, patientID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetPatientSchedule returns a patient's enrollment and calendar for review.
func (h *PrehabHandler) GetPatientSchedule(c *gin.Context) {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	patientID, ok := parseIDParam(c, "patientId")
	if !ok {
		return
	}

	sched, err := h.prehabService.GetPatientSchedule(c.Request.Context(), callerID, patientID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

// ListAllItems returns every scheduled item across all enrollments.
func (h *PrehabHandler) ListAllItems(c *gin.Context) {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	items, err := h.prehabService.ListAllItems(c.Request.Context(), callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ListMyPrehabs lists the enrollments created by the calling doctor.
func (h *PrehabHandler) ListMyPrehabs(c *gin.Context) {
	doctorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	prehabs, err := h.prehabService.ListByDoctor(c.Request.Context(), doctorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, prehabs)
}
