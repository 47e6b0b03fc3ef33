package service

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"prehab/prehab-app/internal/domain"
	"prehab/prehab-app/internal/repository"
	"prehab/prehab-app/internal/schedule"
)

// TemplateService manages reusable multi-week plan definitions.
type TemplateService interface {
	// CreateTemplate validates the structure and verifies that every
	// referenced task and meal exists before storing the template. A stored
	// template is always expandable.
	CreateTemplate(ctx context.Context, callerID primitive.ObjectID, tmpl *domain.ScheduleTemplate) (*domain.ScheduleTemplate, error)
	GetTemplate(ctx context.Context, id primitive.ObjectID) (*domain.ScheduleTemplate, error)
	ListTemplates(ctx context.Context) ([]domain.ScheduleTemplate, error)
}

type templateService struct {
	userRepo     repository.UserRepository
	templateRepo repository.TemplateRepository
	taskRepo     repository.TaskRepository
	mealRepo     repository.MealRepository
}

// NewTemplateService creates a new instance of templateService.
func NewTemplateService(
	userRepo repository.UserRepository,
	templateRepo repository.TemplateRepository,
	taskRepo repository.TaskRepository,
	mealRepo repository.MealRepository,
) TemplateService {
	return &templateService{
		userRepo:     userRepo,
		templateRepo: templateRepo,
		taskRepo:     taskRepo,
		mealRepo:     mealRepo,
	}
}

func (s *templateService) CreateTemplate(ctx context.Context, callerID primitive.ObjectID, tmpl *domain.ScheduleTemplate) (*domain.ScheduleTemplate, error) {
	caller, err := s.requireRole(ctx, callerID, domain.RoleDoctor, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if tmpl.Title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if err := schedule.ValidateTemplate(tmpl); err != nil {
		return nil, err
	}

	for _, week := range tmpl.Weeks {
		for _, item := range week.Items {
			if err := s.checkItemExists(ctx, item); err != nil {
				return nil, err
			}
		}
	}

	tmpl.CreatedBy = caller.ID
	id, err := s.templateRepo.Create(ctx, tmpl)
	if err != nil {
		return nil, err
	}
	tmpl.ID = id
	return tmpl, nil
}

func (s *templateService) GetTemplate(ctx context.Context, id primitive.ObjectID) (*domain.ScheduleTemplate, error) {
	tmpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: template %s", domain.ErrNotFound, id.Hex())
		}
		return nil, err
	}
	return tmpl, nil
}

func (s *templateService) ListTemplates(ctx context.Context) ([]domain.ScheduleTemplate, error) {
	return s.templateRepo.List(ctx)
}

func (s *templateService) checkItemExists(ctx context.Context, item domain.TemplateItem) error {
	var err error
	switch item.ItemType {
	case domain.ItemTask:
		_, err = s.taskRepo.GetByID(ctx, item.ItemID)
	case domain.ItemMeal:
		_, err = s.mealRepo.GetByID(ctx, item.ItemID)
	default:
		return fmt.Errorf("%w: unknown item type %q", domain.ErrValidation, item.ItemType)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, item.ItemType, item.ItemID.Hex())
	}
	return err
}

func (s *templateService) requireRole(ctx context.Context, callerID primitive.ObjectID, roles ...domain.Role) (*domain.User, error) {
	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: caller %s", domain.ErrNotFound, callerID.Hex())
		}
		return nil, err
	}
	for _, r := range roles {
		if caller.Role == r {
			return caller, nil
		}
	}
	return nil, fmt.Errorf("%w: role %s cannot perform this action", domain.ErrPermission, caller.Role)
}
