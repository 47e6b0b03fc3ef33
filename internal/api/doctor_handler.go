package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"prehab/prehab-app/internal/domain"
	"prehab/prehab-app/internal/service"
)

// DoctorHandler holds the doctor-facing service dependency.
type DoctorHandler struct {
	doctorService service.DoctorService
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(doctorService service.DoctorService) *DoctorHandler {
	return &DoctorHandler{doctorService: doctorService}
}

type CreatePatientRequest struct {
	Name          string   `json:"name" binding:"required"`
	Email         string   `json:"email" binding:"required,email"`
	Age           int      `json:"age" binding:"required,min=1"`
	Height        float64  `json:"height" binding:"required,gt=0"`
	Weight        float64  `json:"weight" binding:"required,gt=0"`
	Sex           string   `json:"sex" binding:"required,oneof=F M"`
	ConstraintIDs []string `json:"constraintIds"`
}

// CreatePatientResponse includes the one-time activation code; this is the
// only place it is ever exposed.
type CreatePatientResponse struct {
	User           UserResponse `json:"user"`
	ActivationCode string       `json:"activationCode"`
	PatientTag     string       `json:"patientTag"`
}

type AddDoctorRequest struct {
	DoctorID string `json:"doctorId" binding:"required"`
}

type MarkSeenRequest struct {
	Seen        bool   `json:"seen"`
	DoctorNotes string `json:"doctorNotes"`
}

// CreatePatient registers a new patient under the calling doctor.
func (h *DoctorHandler) CreatePatient(c *gin.Context) {
	doctorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	constraintIDs := make([]primitive.ObjectID, 0, len(req.ConstraintIDs))
	for _, raw := range req.ConstraintIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid constraint ID format")
			return
		}
		constraintIDs = append(constraintIDs, id)
	}

	patient, err := h.doctorService.CreatePatient(c.Request.Context(), doctorID, service.CreatePatientInput{
		Name:  req.Name,
		Email: req.Email,
		Profile: domain.PatientProfile{
			Age:    req.Age,
			Height: req.Height,
			Weight: req.Weight,
			Sex:    req.Sex,
		},
		ConstraintIDs: constraintIDs,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreatePatientResponse{
		User:           MapUserToResponse(patient),
		ActivationCode: patient.ActivationCode,
		PatientTag:     patient.Profile.PatientTag,
	})
}

// AddDoctorToPatient grants a second doctor access to a patient.
func (h *DoctorHandler) AddDoctorToPatient(c *gin.Context) {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	patientID, ok := parseIDParam(c, "patientId")
	if !ok {
		return
	}

	var req AddDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	newDoctorID, err := primitive.ObjectIDFromHex(req.DoctorID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid doctor ID format")
		return
	}

	if err := h.doctorService.AddDoctorToPatient(c.Request.Context(), callerID, patientID, newDoctorID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetManagedPatients lists the patients followed by the calling doctor.
func (h *DoctorHandler) GetManagedPatients(c *gin.Context) {
	doctorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	patients, err := h.doctorService.GetManagedPatients(c.Request.Context(), doctorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	resp := make([]UserResponse, 0, len(patients))
	for i := range patients {
		resp = append(resp, MapUserToResponse(&patients[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// MarkSeen records the doctor's review of one pending scheduled item.
func (h *DoctorHandler) MarkSeen(c *gin.Context) {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}

	var req MarkSeenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.doctorService.MarkSeen(c.Request.Context(), callerID, itemID, req.Seen, req.DoctorNotes); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkSeenBulk flags every item of a prehab as reviewed.
func (h *DoctorHandler) MarkSeenBulk(c *gin.Context) {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	prehabID, ok := parseIDParam(c, "prehabId")
	if !ok {
		return
	}

	n, err := h.doctorService.MarkSeenBulk(c.Request.Context(), callerID, prehabID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modified": n})
}
