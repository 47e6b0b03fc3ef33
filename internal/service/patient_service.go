package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"prehab/prehab-app/internal/domain"
	"prehab/prehab-app/internal/repository"
)

// MarkDoneInput carries the patient's completion report for one scheduled
// item.
type MarkDoneInput struct {
	// Completed distinguishes "I did it" from "I gave up on it"; both are
	// terminal.
	Completed         bool
	WasDifficult      bool
	PatientNotes      string
	ActualRepetitions *int
}

// ScheduleDay groups the scheduled items that fall on one calendar date.
type ScheduleDay struct {
	Date  time.Time              `json:"date"`
	Items []domain.ScheduledItem `json:"items"`
}

// PatientSchedule bundles a patient's current enrollment with its calendar,
// both as a flat newest-first list and grouped by date for day views.
type PatientSchedule struct {
	Prehab *domain.Prehab         `json:"prehab"`
	Items  []domain.ScheduledItem `json:"items"`
	Days   []ScheduleDay          `json:"days"`
}

// buildScheduleDays folds a calendar into per-date buckets, earliest date
// first. Input order within a day is preserved.
func buildScheduleDays(items []domain.ScheduledItem) []ScheduleDay {
	byDate := make(map[time.Time]int)
	var days []ScheduleDay
	for _, item := range items {
		d := item.ScheduledDate
		date := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		idx, ok := byDate[date]
		if !ok {
			idx = len(days)
			byDate[date] = idx
			days = append(days, ScheduleDay{Date: date})
		}
		days[idx].Items = append(days[idx].Items, item)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}

// PatientService covers the patient-facing workflows: viewing the calendar
// and reporting on scheduled items.
type PatientService interface {
	// MarkDone finalizes a pending item exactly once. Items reported without
	// difficulty are auto-flagged as seen so the doctor's review queue only
	// holds the ones that need attention.
	MarkDone(ctx context.Context, patientID, itemID primitive.ObjectID, input MarkDoneInput) (*domain.ScheduledItem, error)
	// GetMySchedule returns the patient's most recent enrollment and its
	// items, newest first.
	GetMySchedule(ctx context.Context, patientID primitive.ObjectID) (*PatientSchedule, error)
}

type patientService struct {
	userRepo   repository.UserRepository
	prehabRepo repository.PrehabRepository
	itemRepo   repository.ScheduledItemRepository
}

// NewPatientService creates a new instance of patientService.
func NewPatientService(
	userRepo repository.UserRepository,
	prehabRepo repository.PrehabRepository,
	itemRepo repository.ScheduledItemRepository,
) PatientService {
	return &patientService{
		userRepo:   userRepo,
		prehabRepo: prehabRepo,
		itemRepo:   itemRepo,
	}
}

func (s *patientService) MarkDone(ctx context.Context, patientID, itemID primitive.ObjectID, input MarkDoneInput) (*domain.ScheduledItem, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: scheduled item %s", domain.ErrNotFound, itemID.Hex())
		}
		return nil, err
	}

	prehab, err := s.prehabRepo.GetByID(ctx, item.PrehabID)
	if err != nil {
		return nil, err
	}
	if prehab.PatientID != patientID {
		return nil, fmt.Errorf("%w: item belongs to another patient", domain.ErrPermission)
	}

	if item.Status.Terminal() {
		return nil, fmt.Errorf("%w: item already finished", domain.ErrInvalidState)
	}

	status := domain.ItemNotCompleted
	if input.Completed {
		status = domain.ItemCompleted
	}
	params := repository.MarkDoneParams{
		Status:            status,
		FinishedDate:      time.Now().UTC(),
		WasDifficult:      input.WasDifficult,
		PatientNotes:      input.PatientNotes,
		ActualRepetitions: input.ActualRepetitions,
		SeenByDoctor:      !input.WasDifficult,
	}

	if err := s.itemRepo.MarkDone(ctx, itemID, params); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, fmt.Errorf("%w: item finished concurrently", domain.ErrConflict)
		}
		return nil, err
	}

	return s.itemRepo.GetByID(ctx, itemID)
}

func (s *patientService) GetMySchedule(ctx context.Context, patientID primitive.ObjectID) (*PatientSchedule, error) {
	prehab, err := s.prehabRepo.GetCurrentByPatientID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: no enrollment for patient %s", domain.ErrNotFound, patientID.Hex())
		}
		return nil, err
	}

	items, err := s.itemRepo.ListByPrehabID(ctx, prehab.ID)
	if err != nil {
		return nil, err
	}
	return &PatientSchedule{Prehab: prehab, Items: items, Days: buildScheduleDays(items)}, nil
}
