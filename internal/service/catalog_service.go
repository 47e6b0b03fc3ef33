package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"prehab/prehab-app/internal/domain"
	"prehab/prehab-app/internal/repository"
	"prehab/prehab-app/internal/storage"
)

// CatalogService manages the reusable task, meal and constraint catalogs
// templates are assembled from, plus the instruction media attached to
// catalog entries.
//
// Media upload is a two-step flow: RequestMediaUpload hands out a presigned
// PUT URL, the client uploads directly to object storage, then
// ConfirmMediaUpload records the metadata and links it to the entry.
type CatalogService interface {
	CreateTask(ctx context.Context, callerID primitive.ObjectID, title, description string) (*domain.Task, error)
	GetTask(ctx context.Context, id primitive.ObjectID) (*domain.Task, error)
	ListTasks(ctx context.Context) ([]domain.Task, error)

	CreateMeal(ctx context.Context, callerID primitive.ObjectID, title, description string, mealType domain.MealType, constraintIDs []primitive.ObjectID) (*domain.Meal, error)
	GetMeal(ctx context.Context, id primitive.ObjectID) (*domain.Meal, error)
	ListMeals(ctx context.Context) ([]domain.Meal, error)

	CreateConstraintType(ctx context.Context, callerID primitive.ObjectID, name, description string) (*domain.ConstraintType, error)
	ListConstraintTypes(ctx context.Context) ([]domain.ConstraintType, error)

	RequestMediaUpload(ctx context.Context, callerID primitive.ObjectID, targetType domain.ItemType, targetID primitive.ObjectID, fileName, contentType string) (uploadURL, objectKey string, err error)
	ConfirmMediaUpload(ctx context.Context, callerID primitive.ObjectID, targetType domain.ItemType, targetID primitive.ObjectID, objectKey, fileName, contentType string, size int64) (*domain.Upload, error)
	GetMediaDownloadURL(ctx context.Context, targetType domain.ItemType, targetID primitive.ObjectID) (string, error)
}

type catalogService struct {
	userRepo       repository.UserRepository
	taskRepo       repository.TaskRepository
	mealRepo       repository.MealRepository
	constraintRepo repository.ConstraintTypeRepository
	uploadRepo     repository.UploadRepository
	media          storage.MediaStorage
}

// NewCatalogService creates a new instance of catalogService.
func NewCatalogService(
	userRepo repository.UserRepository,
	taskRepo repository.TaskRepository,
	mealRepo repository.MealRepository,
	constraintRepo repository.ConstraintTypeRepository,
	uploadRepo repository.UploadRepository,
	media storage.MediaStorage,
) CatalogService {
	return &catalogService{
		userRepo:       userRepo,
		taskRepo:       taskRepo,
		mealRepo:       mealRepo,
		constraintRepo: constraintRepo,
		uploadRepo:     uploadRepo,
		media:          media,
	}
}

func (s *catalogService) CreateTask(ctx context.Context, callerID primitive.ObjectID, title, description string) (*domain.Task, error) {
	caller, err := s.requireRole(ctx, callerID, domain.RoleDoctor, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}

	task := &domain.Task{
		CreatedBy:   caller.ID,
		Title:       title,
		Description: description,
	}
	id, err := s.taskRepo.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	task.ID = id
	return task, nil
}

func (s *catalogService) GetTask(ctx context.Context, id primitive.ObjectID) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: task %s", domain.ErrNotFound, id.Hex())
		}
		return nil, err
	}
	return task, nil
}

func (s *catalogService) ListTasks(ctx context.Context) ([]domain.Task, error) {
	return s.taskRepo.List(ctx)
}

// CreateMeal is admin-only: the nutrition catalog is curated centrally, not
// by individual doctors.
func (s *catalogService) CreateMeal(ctx context.Context, callerID primitive.ObjectID, title, description string, mealType domain.MealType, constraintIDs []primitive.ObjectID) (*domain.Meal, error) {
	caller, err := s.requireRole(ctx, callerID, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if !mealType.Valid() {
		return nil, fmt.Errorf("%w: unknown meal type %q", domain.ErrValidation, mealType)
	}
	for _, cid := range constraintIDs {
		if _, err := s.constraintRepo.GetByID(ctx, cid); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: constraint %s", domain.ErrNotFound, cid.Hex())
			}
			return nil, err
		}
	}

	meal := &domain.Meal{
		CreatedBy:     caller.ID,
		Title:         title,
		Description:   description,
		MealType:      mealType,
		ConstraintIDs: constraintIDs,
	}
	id, err := s.mealRepo.Create(ctx, meal)
	if err != nil {
		return nil, err
	}
	meal.ID = id
	return meal, nil
}

func (s *catalogService) GetMeal(ctx context.Context, id primitive.ObjectID) (*domain.Meal, error) {
	meal, err := s.mealRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: meal %s", domain.ErrNotFound, id.Hex())
		}
		return nil, err
	}
	return meal, nil
}

func (s *catalogService) ListMeals(ctx context.Context) ([]domain.Meal, error) {
	return s.mealRepo.List(ctx)
}

func (s *catalogService) CreateConstraintType(ctx context.Context, callerID primitive.ObjectID, name, description string) (*domain.ConstraintType, error) {
	if _, err := s.requireRole(ctx, callerID, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	ct := &domain.ConstraintType{
		Name:        name,
		Description: description,
	}
	id, err := s.constraintRepo.Create(ctx, ct)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: constraint %q already exists", domain.ErrInvalidState, name)
		}
		return nil, err
	}
	ct.ID = id
	return ct, nil
}

func (s *catalogService) ListConstraintTypes(ctx context.Context) ([]domain.ConstraintType, error) {
	return s.constraintRepo.List(ctx)
}

func (s *catalogService) RequestMediaUpload(ctx context.Context, callerID primitive.ObjectID, targetType domain.ItemType, targetID primitive.ObjectID, fileName, contentType string) (string, string, error) {
	if _, err := s.requireRole(ctx, callerID, domain.RoleDoctor, domain.RoleAdmin); err != nil {
		return "", "", err
	}
	if fileName == "" || contentType == "" {
		return "", "", fmt.Errorf("%w: file name and content type are required", domain.ErrValidation)
	}
	if _, err := s.getCatalogEntry(ctx, targetType, targetID); err != nil {
		return "", "", err
	}

	objectKey := fmt.Sprintf("media/%s/%s/%s%s", targetType, targetID.Hex(), uuid.NewString(), filepath.Ext(fileName))
	uploadURL, err := s.media.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", "", err
	}
	return uploadURL, objectKey, nil
}

func (s *catalogService) ConfirmMediaUpload(ctx context.Context, callerID primitive.ObjectID, targetType domain.ItemType, targetID primitive.ObjectID, objectKey, fileName, contentType string, size int64) (*domain.Upload, error) {
	caller, err := s.requireRole(ctx, callerID, domain.RoleDoctor, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if objectKey == "" {
		return nil, fmt.Errorf("%w: object key is required", domain.ErrValidation)
	}
	if _, err := s.getCatalogEntry(ctx, targetType, targetID); err != nil {
		return nil, err
	}

	upload := &domain.Upload{
		UploadedBy:  caller.ID,
		TargetID:    targetID,
		TargetType:  targetType,
		S3ObjectKey: objectKey,
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
		UploadedAt:  time.Now().UTC(),
	}
	uploadID, err := s.uploadRepo.Create(ctx, upload)
	if err != nil {
		return nil, err
	}
	upload.ID = uploadID

	switch targetType {
	case domain.ItemTask:
		err = s.taskRepo.SetAttachment(ctx, targetID, uploadID)
	case domain.ItemMeal:
		err = s.mealRepo.SetAttachment(ctx, targetID, uploadID)
	}
	if err != nil {
		return nil, err
	}
	return upload, nil
}

// GetMediaDownloadURL is open to every authenticated role; patients need the
// instruction videos for their scheduled items.
func (s *catalogService) GetMediaDownloadURL(ctx context.Context, targetType domain.ItemType, targetID primitive.ObjectID) (string, error) {
	var attachmentID *primitive.ObjectID
	entry, err := s.getCatalogEntry(ctx, targetType, targetID)
	if err != nil {
		return "", err
	}
	switch e := entry.(type) {
	case *domain.Task:
		attachmentID = e.AttachmentID
	case *domain.Meal:
		attachmentID = e.AttachmentID
	}
	if attachmentID == nil {
		return "", fmt.Errorf("%w: entry has no attachment", domain.ErrNotFound)
	}

	upload, err := s.uploadRepo.GetByID(ctx, *attachmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("%w: upload %s", domain.ErrNotFound, attachmentID.Hex())
		}
		return "", err
	}
	return s.media.GeneratePresignedDownloadURL(ctx, upload.S3ObjectKey, storage.DefaultPresignedURLExpiry)
}

func (s *catalogService) getCatalogEntry(ctx context.Context, targetType domain.ItemType, targetID primitive.ObjectID) (interface{}, error) {
	switch targetType {
	case domain.ItemTask:
		return s.GetTask(ctx, targetID)
	case domain.ItemMeal:
		return s.GetMeal(ctx, targetID)
	}
	return nil, fmt.Errorf("%w: unknown item type %q", domain.ErrValidation, targetType)
}

func (s *catalogService) requireRole(ctx context.Context, callerID primitive.ObjectID, roles ...domain.Role) (*domain.User, error) {
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
