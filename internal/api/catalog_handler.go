package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"prehab/prehab-app/internal/domain"
	"prehab/prehab-app/internal/service"
)

// CatalogHandler holds the catalog service dependency.
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type CreateMealRequest struct {
	Title         string          `json:"title" binding:"required"`
	Description   string          `json:"description"`
	MealType      domain.MealType `json:"mealType" binding:"required,oneof=breakfast lunch snack dinner supper"`
	ConstraintIDs []string        `json:"constraintIds"`
}

type CreateConstraintRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type RequestUploadRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

type RequestUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

type ConfirmUploadRequest struct {
	ObjectKey   string `json:"objectKey" binding:"required"`
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	Size        int64  `json:"size" binding:"required,gt=0"`
}

func (h *CatalogHandler) CreateTask(c *gin.Context) {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	task, err := h.catalogService.CreateTask(c.Request.Context(), callerID, req.Title, req.Description)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *CatalogHandler) ListTasks(c *gin.Context) {
	tasks, err := h.catalogService.ListTasks(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *CatalogHandler) GetTask(c *gin.Context) {
	id, ok := parseIDParam(c, "taskId")
	if !ok {
		return
	}
	task, err := h.catalogService.GetTask(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *CatalogHandler) CreateMeal(c *gin.Context) {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req CreateMealRequest
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

	meal, err := h.catalogService.CreateMeal(c.Request.Context(), callerID, req.Title, req.Description, req.MealType, constraintIDs)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meal)
}

func (h *CatalogHandler) ListMeals(c *gin.Context) {
	meals, err := h.catalogService.ListMeals(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, meals)
}

func (h *CatalogHandler) GetMeal(c *gin.Context) {
	id, ok := parseIDParam(c, "mealId")
	if !ok {
		return
	}
	meal, err := h.catalogService.GetMeal(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (h *CatalogHandler) CreateConstraintType(c *gin.Context) {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req CreateConstraintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	ct, err := h.catalogService.CreateConstraintType(c.Request.Context(), callerID, req.Name, req.Description)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ct)
}

func (h *CatalogHandler) ListConstraintTypes(c *gin.Context) {
	constraints, err := h.catalogService.ListConstraintTypes(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, constraints)
}

// RequestMediaUpload hands out a presigned PUT URL for instruction media.
// The item type ("task" or "meal") comes from the route.
func (h *CatalogHandler) RequestMediaUpload(c *gin.Context) {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	targetType, targetID, ok := h.mediaTarget(c)
	if !ok {
		return
	}

	var req RequestUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	uploadURL, objectKey, err := h.catalogService.RequestMediaUpload(c.Request.Context(), callerID, targetType, targetID, req.FileName, req.ContentType)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, RequestUploadResponse{UploadURL: uploadURL, ObjectKey: objectKey})
}

// ConfirmMediaUpload records the uploaded file and links it to the entry.
func (h *CatalogHandler) ConfirmMediaUpload(c *gin.Context) {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	targetType, targetID, ok := h.mediaTarget(c)
	if !ok {
		return
	}

	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	upload, err := h.catalogService.ConfirmMediaUpload(c.Request.Context(), callerID, targetType, targetID, req.ObjectKey, req.FileName, req.ContentType, req.Size)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, upload)
}

// GetMediaDownloadURL returns a short-lived URL for viewing the entry's
// instruction media.
func (h *CatalogHandler) GetMediaDownloadURL(c *gin.Context) {
	targetType, targetID, ok := h.mediaTarget(c)
	if !ok {
		return
	}

	url, err := h.catalogService.GetMediaDownloadURL(c.Request.Context(), targetType, targetID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

func (h *CatalogHandler) mediaTarget(c *gin.Context) (domain.ItemType, primitive.ObjectID, bool) {
	targetType := domain.ItemType(c.Param("itemType"))
	if !targetType.Valid() {
		abortWithError(c, http.StatusBadRequest, "Item type must be 'task' or 'meal'")
		return "", primitive.NilObjectID, false
	}
	targetID, ok := parseIDParam(c, "itemId")
	if !ok {
		return "", primitive.NilObjectID, false
	}
	return targetType, targetID, true
}
