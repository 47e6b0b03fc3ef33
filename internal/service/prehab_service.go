package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"prehab/prehab-app/internal/domain"
	"prehab/prehab-app/internal/repository"
	"prehab/prehab-app/internal/schedule"
)

// CreatePrehabInput carries the enrollment parameters a doctor submits.
type CreatePrehabInput struct {
	PatientID   primitive.ObjectID
	TemplateID  primitive.ObjectID
	InitDate    time.Time
	SurgeryDate time.Time
}

// PrehabService covers enrollments: creating them (which expands the
// template into the patient's calendar), moving them through their
// lifecycle and reporting adherence.
type PrehabService interface {
	// CreatePrehab enrolls a patient into a template. The enrollment record
	// and its fully expanded calendar are written in one transaction; a
	// failure leaves neither behind.
	CreatePrehab(ctx context.Context, doctorID primitive.ObjectID, input CreatePrehabInput) (*domain.Prehab, error)
	// UpdateStatus applies a lifecycle transition. Terminal enrollments
	// (completed, cancelled) cannot be moved again.
	UpdateStatus(ctx context.Context, callerID, prehabID primitive.ObjectID, next domain.PrehabStatus) (*domain.Prehab, error)
	// GetStatistics builds the adherence report over the patient's current
	// enrollment as of today.
	GetStatistics(ctx context.Context, callerID, patientID primitive.ObjectID) (*schedule.Report, error)
	// GetPatientSchedule returns another patient's enrollment and calendar,
	// for doctors reviewing their patients and for admins.
	GetPatientSchedule(ctx context.Context, callerID, patientID primitive.ObjectID) (*PatientSchedule, error)
	ListByDoctor(ctx context.Context, doctorID primitive.ObjectID) ([]domain.Prehab, error)
	// ListAllItems is the admin oversight view over every calendar.
	ListAllItems(ctx context.Context, callerID primitive.ObjectID) ([]domain.ScheduledItem, error)
}

type prehabService struct {
	userRepo     repository.UserRepository
	templateRepo repository.TemplateRepository
	prehabRepo   repository.PrehabRepository
	itemRepo     repository.ScheduledItemRepository
	txManager    repository.TransactionManager
}

// NewPrehabService creates a new instance of prehabService.
func NewPrehabService(
	userRepo repository.UserRepository,
	templateRepo repository.TemplateRepository,
	prehabRepo repository.PrehabRepository,
	itemRepo repository.ScheduledItemRepository,
	txManager repository.TransactionManager,
) PrehabService {
	return &prehabService{
		userRepo:     userRepo,
		templateRepo: templateRepo,
		prehabRepo:   prehabRepo,
		itemRepo:     itemRepo,
		txManager:    txManager,
	}
}

func (s *prehabService) CreatePrehab(ctx context.Context, doctorID primitive.ObjectID, input CreatePrehabInput) (*domain.Prehab, error) {
	caller, err := s.requireRole(ctx, doctorID, domain.RoleDoctor, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	patient, err := s.getPatient(ctx, input.PatientID)
	if err != nil {
		return nil, err
	}
	if caller.IsDoctor() && !patient.ManagedBy(caller.ID) {
		return nil, fmt.Errorf("%w: patient is not followed by the calling doctor", domain.ErrPermission)
	}

	if input.InitDate.IsZero() || input.SurgeryDate.IsZero() {
		return nil, fmt.Errorf("%w: init date and surgery date are required", domain.ErrValidation)
	}
	if input.SurgeryDate.Before(input.InitDate) {
		return nil, fmt.Errorf("%w: surgery date precedes init date", domain.ErrValidation)
	}

	// One running enrollment per patient.
	current, err := s.prehabRepo.GetCurrentByPatientID(ctx, input.PatientID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if current != nil && !currentIsTerminal(current) {
		return nil, fmt.Errorf("%w: patient already has a %s enrollment", domain.ErrInvalidState, current.Status)
	}

	tmpl, err := s.templateRepo.GetByID(ctx, input.TemplateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: template %s", domain.ErrNotFound, input.TemplateID.Hex())
		}
		return nil, err
	}

	drafts, err := schedule.Expand(tmpl, input.InitDate)
	if err != nil {
		return nil, err
	}
	if len(drafts) == 0 {
		return nil, fmt.Errorf("%w: template expands to an empty calendar", domain.ErrValidation)
	}

	prehab := &domain.Prehab{
		PatientID:       input.PatientID,
		CreatedBy:       caller.ID,
		TemplateID:      tmpl.ID,
		InitDate:        input.InitDate,
		SurgeryDate:     input.SurgeryDate,
		NumberOfWeeks:   tmpl.NumberOfWeeks,
		Status:          domain.PrehabPending,
		ExpectedEndDate: input.InitDate.AddDate(0, 0, 7*tmpl.NumberOfWeeks),
	}

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		prehabID, err := s.prehabRepo.Create(txCtx, prehab)
		if err != nil {
			return err
		}
		prehab.ID = prehabID
		for i := range drafts {
			drafts[i].PrehabID = prehabID
		}
		return s.itemRepo.CreateBulk(txCtx, drafts)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("prehabId", prehab.ID.Hex()).
		Str("patientId", input.PatientID.Hex()).
		Int("weeks", tmpl.NumberOfWeeks).
		Int("items", len(drafts)).
		Msg("patient enrolled")

	return prehab, nil
}

func (s *prehabService) UpdateStatus(ctx context.Context, callerID, prehabID primitive.ObjectID, next domain.PrehabStatus) (*domain.Prehab, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, next)
	}

	caller, err := s.getCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	prehab, err := s.prehabRepo.GetByID(ctx, prehabID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: prehab %s", domain.ErrNotFound, prehabID.Hex())
		}
		return nil, err
	}

	switch {
	case caller.IsAdmin():
	case caller.IsDoctor():
		patient, err := s.getPatient(ctx, prehab.PatientID)
		if err != nil {
			return nil, err
		}
		if !patient.ManagedBy(caller.ID) {
			return nil, fmt.Errorf("%w: patient is not followed by the calling doctor", domain.ErrPermission)
		}
	case caller.IsPatient():
		// Patients may only start their own plan.
		if prehab.PatientID != caller.ID || next != domain.PrehabActive {
			return nil, fmt.Errorf("%w: patients can only activate their own enrollment", domain.ErrPermission)
		}
	}

	if !prehab.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: cannot move %s enrollment to %s", domain.ErrInvalidState, prehab.Status, next)
	}

	if err := s.prehabRepo.UpdateStatus(ctx, prehabID, prehab.Status, next); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, fmt.Errorf("%w: enrollment status changed concurrently", domain.ErrConflict)
		}
		return nil, err
	}

	prehab.Status = next
	return prehab, nil
}

func (s *prehabService) GetStatistics(ctx context.Context, callerID, patientID primitive.ObjectID) (*schedule.Report, error) {
	if err := s.authorizePatientAccess(ctx, callerID, patientID); err != nil {
		return nil, err
	}

	prehab, err := s.currentPrehab(ctx, patientID)
	if err != nil {
		return nil, err
	}
	items, err := s.itemRepo.ListByPrehabID(ctx, prehab.ID)
	if err != nil {
		return nil, err
	}

	report := schedule.BuildReport(prehab, items, time.Now())
	return &report, nil
}

func (s *prehabService) GetPatientSchedule(ctx context.Context, callerID, patientID primitive.ObjectID) (*PatientSchedule, error) {
	if err := s.authorizePatientAccess(ctx, callerID, patientID); err != nil {
		return nil, err
	}

	prehab, err := s.currentPrehab(ctx, patientID)
	if err != nil {
		return nil, err
	}
	items, err := s.itemRepo.ListByPrehabID(ctx, prehab.ID)
	if err != nil {
		return nil, err
	}
	return &PatientSchedule{Prehab: prehab, Items: items, Days: buildScheduleDays(items)}, nil
}

func (s *prehabService) ListByDoctor(ctx context.Context, doctorID primitive.ObjectID) ([]domain.Prehab, error) {
	if _, err := s.requireRole(ctx, doctorID, domain.RoleDoctor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.prehabRepo.ListByDoctorID(ctx, doctorID)
}

// ListAllItems returns every scheduled item across all enrollments, newest
// first. Admin oversight listings only.
func (s *prehabService) ListAllItems(ctx context.Context, callerID primitive.ObjectID) ([]domain.ScheduledItem, error) {
	if _, err := s.requireRole(ctx, callerID, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.itemRepo.ListAll(ctx)
}

// authorizePatientAccess enforces the read-access rules on patient data:
// admins see everyone, doctors see the patients they follow, patients see
// only themselves.
func (s *prehabService) authorizePatientAccess(ctx context.Context, callerID, patientID primitive.ObjectID) error {
	caller, err := s.getCaller(ctx, callerID)
	if err != nil {
		return err
	}
	switch {
	case caller.IsAdmin():
		return nil
	case caller.IsPatient():
		if caller.ID != patientID {
			return fmt.Errorf("%w: patients can only access their own data", domain.ErrPermission)
		}
		return nil
	case caller.IsDoctor():
		patient, err := s.getPatient(ctx, patientID)
		if err != nil {
			return err
		}
		if !patient.ManagedBy(caller.ID) {
			return fmt.Errorf("%w: patient is not followed by the calling doctor", domain.ErrPermission)
		}
		return nil
	}
	return fmt.Errorf("%w: role %s cannot perform this action", domain.ErrPermission, caller.Role)
}

func (s *prehabService) currentPrehab(ctx context.Context, patientID primitive.ObjectID) (*domain.Prehab, error) {
	prehab, err := s.prehabRepo.GetCurrentByPatientID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: no enrollment for patient %s", domain.ErrNotFound, patientID.Hex())
		}
		return nil, err
	}
	return prehab, nil
}

func currentIsTerminal(p *domain.Prehab) bool {
	return p.Status == domain.PrehabCompleted || p.Status == domain.PrehabCancelled
}

func (s *prehabService) getCaller(ctx context.Context, callerID primitive.ObjectID) (*domain.User, error) {
	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: caller %s", domain.ErrNotFound, callerID.Hex())
		}
		return nil, err
	}
	return caller, nil
}

func (s *prehabService) requireRole(ctx context.Context, callerID primitive.ObjectID, roles ...domain.Role) (*domain.User, error) {
	caller, err := s.getCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if caller.Role == r {
			return caller, nil
		}
	}
	return nil, fmt.Errorf("%w: role %s cannot perform this action", domain.ErrPermission, caller.Role)
}

func (s *prehabService) getPatient(ctx context.Context, patientID primitive.ObjectID) (*domain.User, error) {
	patient, err := s.userRepo.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: patient %s", domain.ErrNotFound, patientID.Hex())
		}
		return nil, err
	}
	if !patient.IsPatient() {
		return nil, fmt.Errorf("%w: user %s is not a patient", domain.ErrValidation, patientID.Hex())
	}
	return patient, nil
}
