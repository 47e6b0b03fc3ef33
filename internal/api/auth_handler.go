package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"prehab/prehab-app/internal/domain"
	"prehab/prehab-app/internal/service"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type RegisterRequest struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     domain.Role `json:"role" binding:"required,oneof=admin doctor"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ActivateRequest struct {
	ActivationCode string `json:"activationCode" binding:"required"`
	Password       string `json:"password" binding:"required,min=8"`
}

// UserResponse excludes sensitive fields like the password hash and the
// activation code (the code is only shown to the creating doctor).
type UserResponse struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Email         string                 `json:"email,omitempty"`
	Role          domain.Role            `json:"role"`
	IsActive      bool                   `json:"isActive"`
	Profile       *domain.PatientProfile `json:"profile,omitempty"`
	PatientIDs    []string               `json:"patientIds,omitempty"`
	DoctorIDs     []string               `json:"doctorIds,omitempty"`
	ConstraintIDs []string               `json:"constraintIds,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// Register creates an admin or doctor account. Patient accounts are created
// through the doctor endpoints and claimed via /auth/activate.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// Login authenticates a user and returns a JWT token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User:  MapUserToResponse(user),
	})
}

// Activate claims a patient account with the one-time activation code.
func (h *AuthHandler) Activate(c *gin.Context) {
	var req ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.authService.Activate(c.Request.Context(), req.ActivationCode, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// MapUserToResponse converts a domain User to its API representation.
func MapUserToResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}

	resp := UserResponse{
		ID:        user.ID.Hex(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		IsActive:  user.IsActive,
		Profile:   user.Profile,
		CreatedAt: user.CreatedAt,
	}
	for _, id := range user.PatientIDs {
		resp.PatientIDs = append(resp.PatientIDs, id.Hex())
	}
	for _, id := range user.DoctorIDs {
		resp.DoctorIDs = append(resp.DoctorIDs, id.Hex())
	}
	for _, id := range user.ConstraintIDs {
		resp.ConstraintIDs = append(resp.ConstraintIDs, id.Hex())
	}
	return resp
}
