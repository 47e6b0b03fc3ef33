package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"prehab/prehab-app/internal/domain"
	"prehab/prehab-app/internal/service"
)

// TemplateHandler holds the template service dependency.
type TemplateHandler struct {
	templateService service.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(templateService service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

type TemplateItemRequest struct {
	ItemID          string          `json:"itemId" binding:"required"`
	ItemType        domain.ItemType `json:"itemType" binding:"required,oneof=task meal"`
	TimesPerWeek    int             `json:"timesPerWeek" binding:"required,min=1,max=7"`
	RepetitionCount *int            `json:"repetitionCount"`
}

type TemplateWeekRequest struct {
	WeekNumber int                   `json:"weekNumber" binding:"required,min=1"`
	Items      []TemplateItemRequest `json:"items" binding:"required,dive"`
}

type CreateTemplateRequest struct {
	Title         string                `json:"title" binding:"required"`
	NumberOfWeeks int                   `json:"numberOfWeeks" binding:"required,min=1"`
	Weeks         []TemplateWeekRequest `json:"weeks" binding:"required,dive"`
}

// CreateTemplate stores a new multi-week plan definition.
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	tmpl := &domain.ScheduleTemplate{
		Title:         req.Title,
		NumberOfWeeks: req.NumberOfWeeks,
		Weeks:         make([]domain.TemplateWeek, 0, len(req.Weeks)),
	}
	for _, w := range req.Weeks {
		week := domain.TemplateWeek{
			WeekNumber: w.WeekNumber,
			Items:      make([]domain.TemplateItem, 0, len(w.Items)),
		}
		for _, item := range w.Items {
			itemID, err := primitive.ObjectIDFromHex(item.ItemID)
			if err != nil {
				abortWithError(c, http.StatusBadRequest, "Invalid item ID format")
				return
			}
			week.Items = append(week.Items, domain.TemplateItem{
				ItemID:          itemID,
				ItemType:        item.ItemType,
				TimesPerWeek:    item.TimesPerWeek,
				RepetitionCount: item.RepetitionCount,
			})
		}
		tmpl.Weeks = append(tmpl.Weeks, week)
	}

	created, err := h.templateService.CreateTemplate(c.Request.Context(), callerID, tmpl)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetTemplate returns one template by ID.
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "templateId")
	if !ok {
		return
	}
	tmpl, err := h.templateService.GetTemplate(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

// ListTemplates returns every stored template.
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.templateService.ListTemplates(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}
