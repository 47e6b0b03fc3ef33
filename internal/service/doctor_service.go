package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"prehab/prehab-app/internal/domain"
	"prehab/prehab-app/internal/repository"
)

// A patient is followed by at most this many doctors.
const maxDoctorsPerPatient = 2

// CreatePatientInput carries what a doctor submits when registering a new
// patient. The patient gets no password; they claim the account later with
// the generated activation code.
type CreatePatientInput struct {
	Name          string
	Email         string
	Profile       domain.PatientProfile
	ConstraintIDs []primitive.ObjectID
}

// DoctorService covers the doctor-facing workflows: registering patients,
// sharing them with a colleague and reviewing what patients reported.
type DoctorService interface {
	// CreatePatient registers a patient under the calling doctor and returns
	// the stored account. The returned user carries the one-time activation
	// code and generated patient tag so the doctor can hand them over.
	CreatePatient(ctx context.Context, doctorID primitive.ObjectID, input CreatePatientInput) (*domain.User, error)
	// AddDoctorToPatient grants a second doctor access to the patient. Only
	// a doctor already following the patient (or an admin) may share, and a
	// patient is never followed by more than two doctors.
	AddDoctorToPatient(ctx context.Context, callerID, patientID, newDoctorID primitive.ObjectID) error
	GetManagedPatients(ctx context.Context, doctorID primitive.ObjectID) ([]domain.User, error)
	// MarkSeen records the doctor's review of a single pending item. Only a
	// doctor following the patient may review; admins use MarkSeenBulk.
	MarkSeen(ctx context.Context, callerID, itemID primitive.ObjectID, seen bool, doctorNotes string) error
	// MarkSeenBulk flags every item of a prehab as reviewed, finished items
	// included, and returns how many documents changed.
	MarkSeenBulk(ctx context.Context, callerID, prehabID primitive.ObjectID) (int64, error)
}

type doctorService struct {
	userRepo       repository.UserRepository
	constraintRepo repository.ConstraintTypeRepository
	prehabRepo     repository.PrehabRepository
	itemRepo       repository.ScheduledItemRepository
}

// NewDoctorService creates a new instance of doctorService.
func NewDoctorService(
	userRepo repository.UserRepository,
	constraintRepo repository.ConstraintTypeRepository,
	prehabRepo repository.PrehabRepository,
	itemRepo repository.ScheduledItemRepository,
) DoctorService {
	return &doctorService{
		userRepo:       userRepo,
		constraintRepo: constraintRepo,
		prehabRepo:     prehabRepo,
		itemRepo:       itemRepo,
	}
}

func (s *doctorService) CreatePatient(ctx context.Context, doctorID primitive.ObjectID, input CreatePatientInput) (*domain.User, error) {
	caller, err := s.requireRole(ctx, doctorID, domain.RoleDoctor, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if input.Name == "" || input.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", domain.ErrValidation)
	}

	for _, cid := range input.ConstraintIDs {
		if _, err := s.constraintRepo.GetByID(ctx, cid); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: constraint %s", domain.ErrNotFound, cid.Hex())
			}
			return nil, err
		}
	}

	code, err := newActivationCode()
	if err != nil {
		return nil, err
	}
	tag, err := newPatientTag(time.Now())
	if err != nil {
		return nil, err
	}
	profile := input.Profile
	profile.PatientTag = tag

	patient := &domain.User{
		Name:           input.Name,
		Email:          input.Email,
		Role:           domain.RolePatient,
		ActivationCode: code,
		IsActive:       false,
		DoctorIDs:      []primitive.ObjectID{caller.ID},
		Profile:        &profile,
		ConstraintIDs:  input.ConstraintIDs,
	}

	patientID, err := s.userRepo.Create(ctx, patient)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	patient.ID = patientID

	if err := s.userRepo.AddPatientIDToDoctor(ctx, caller.ID, patientID); err != nil {
		return nil, err
	}

	log.Info().
		Str("doctorId", caller.ID.Hex()).
		Str("patientId", patientID.Hex()).
		Str("patientTag", tag).
		Msg("patient registered")

	return patient, nil
}

func (s *doctorService) AddDoctorToPatient(ctx context.Context, callerID, patientID, newDoctorID primitive.ObjectID) error {
	caller, err := s.requireRole(ctx, callerID, domain.RoleDoctor, domain.RoleAdmin)
	if err != nil {
		return err
	}

	patient, err := s.getPatient(ctx, patientID)
	if err != nil {
		return err
	}
	if caller.IsDoctor() && !patient.ManagedBy(caller.ID) {
		return fmt.Errorf("%w: patient is not followed by the calling doctor", domain.ErrPermission)
	}

	newDoctor, err := s.userRepo.GetByID(ctx, newDoctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: doctor %s", domain.ErrNotFound, newDoctorID.Hex())
		}
		return err
	}
	if !newDoctor.IsDoctor() {
		return fmt.Errorf("%w: user %s is not a doctor", domain.ErrValidation, newDoctorID.Hex())
	}
	if patient.ManagedBy(newDoctorID) {
		return fmt.Errorf("%w: doctor already follows this patient", domain.ErrInvalidState)
	}
	if len(patient.DoctorIDs) >= maxDoctorsPerPatient {
		return fmt.Errorf("%w: patient already has %d doctors", domain.ErrInvalidState, maxDoctorsPerPatient)
	}

	if err := s.userRepo.AddDoctorIDToPatient(ctx, patientID, newDoctorID); err != nil {
		return err
	}
	return s.userRepo.AddPatientIDToDoctor(ctx, newDoctorID, patientID)
}

func (s *doctorService) GetManagedPatients(ctx context.Context, doctorID primitive.ObjectID) ([]domain.User, error) {
	if _, err := s.requireRole(ctx, doctorID, domain.RoleDoctor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.userRepo.GetPatientsByDoctorID(ctx, doctorID)
}

func (s *doctorService) MarkSeen(ctx context.Context, callerID, itemID primitive.ObjectID, seen bool, doctorNotes string) error {
	caller, err := s.requireRole(ctx, callerID, domain.RoleDoctor)
	if err != nil {
		return err
	}

	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: scheduled item %s", domain.ErrNotFound, itemID.Hex())
		}
		return err
	}

	prehab, err := s.prehabRepo.GetByID(ctx, item.PrehabID)
	if err != nil {
		return err
	}
	patient, err := s.getPatient(ctx, prehab.PatientID)
	if err != nil {
		return err
	}
	if !patient.ManagedBy(caller.ID) {
		return fmt.Errorf("%w: patient is not followed by the calling doctor", domain.ErrPermission)
	}

	if item.Status.Terminal() {
		return fmt.Errorf("%w: item already finished", domain.ErrInvalidState)
	}

	if err := s.itemRepo.MarkSeen(ctx, itemID, seen, doctorNotes); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return fmt.Errorf("%w: item finished concurrently", domain.ErrConflict)
		}
		return err
	}
	return nil
}

// MarkSeenBulk has no per-item state or ownership guard: any doctor or admin
// flips the review flag on the whole prehab, finished items included. The
// single-item path above is the guarded one; keep the two separate.
func (s *doctorService) MarkSeenBulk(ctx context.Context, callerID, prehabID primitive.ObjectID) (int64, error) {
	if _, err := s.requireRole(ctx, callerID, domain.RoleDoctor, domain.RoleAdmin); err != nil {
		return 0, err
	}
	if _, err := s.prehabRepo.GetByID(ctx, prehabID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("%w: prehab %s", domain.ErrNotFound, prehabID.Hex())
		}
		return 0, err
	}
	return s.itemRepo.MarkSeenBulk(ctx, prehabID)
}

func (s *doctorService) requireRole(ctx context.Context, callerID primitive.ObjectID, roles ...domain.Role) (*domain.User, error) {
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

func (s *doctorService) getPatient(ctx context.Context, patientID primitive.ObjectID) (*domain.User, error) {
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

// newActivationCode generates the short one-time code a doctor hands to the
// patient. Eight hex characters keep it easy to read out over the phone.
func newActivationCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// newPatientTag generates the human-readable clinical identifier, e.g.
// "HSJ2026A41F".
func newPatientTag(now time.Time) (string, error) {
	b := make([]byte, 2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("HSJ%d%s", now.Year(), strings.ToUpper(hex.EncodeToString(b))), nil
}
