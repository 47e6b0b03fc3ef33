package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"prehab/prehab-app/internal/domain"
	"prehab/prehab-app/internal/repository"
)

type patientFixture struct {
	svc      PatientService
	users    *mockUserRepo
	prehabs  *mockPrehabRepo
	items    *mockItemRepo
	doctor   *domain.User
	patient  *domain.User
	prehabID primitive.ObjectID
	itemID   primitive.ObjectID
}

func newPatientFixture(t *testing.T) *patientFixture {
	t.Helper()
	users := newMockUserRepo()
	prehabs := newMockPrehabRepo()
	items := newMockItemRepo()

	doctor := seedUser(users, domain.RoleDoctor)
	patient := seedPatientOf(users, doctor)

	prehabID, err := prehabs.Create(context.Background(), &domain.Prehab{
		PatientID:     patient.ID,
		CreatedBy:     doctor.ID,
		InitDate:      time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		SurgeryDate:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		NumberOfWeeks: 2,
		Status:        domain.PrehabActive,
	})
	if err != nil {
		t.Fatalf("seed prehab: %v", err)
	}

	if err := items.CreateBulk(context.Background(), []domain.ScheduledItem{
		{PrehabID: prehabID, WeekNumber: 1, DayNumber: 1, ItemType: domain.ItemTask, Seq: 0},
	}); err != nil {
		t.Fatalf("seed items: %v", err)
	}
	var itemID primitive.ObjectID
	for id := range items.items {
		itemID = id
	}

	return &patientFixture{
		svc:      NewPatientService(users, prehabs, items),
		users:    users,
		prehabs:  prehabs,
		items:    items,
		doctor:   doctor,
		patient:  patient,
		prehabID: prehabID,
		itemID:   itemID,
	}
}

func TestMarkDoneCompletedWithoutDifficulty(t *testing.T) {
	f := newPatientFixture(t)

	item, err := f.svc.MarkDone(context.Background(), f.patient.ID, f.itemID, MarkDoneInput{
		Completed:    true,
		PatientNotes: "felt fine",
	})
	if err != nil {
		t.Fatalf("MarkDone failed: %v", err)
	}
	if item.Status != domain.ItemCompleted {
		t.Errorf("status = %s, want %s", item.Status, domain.ItemCompleted)
	}
	if item.FinishedDate == nil {
		t.Error("finished date not recorded")
	}
	if !item.SeenByDoctor {
		t.Error("item without difficulty should be auto-flagged as seen")
	}
}

func TestMarkDoneWithDifficultyNeedsReview(t *testing.T) {
	f := newPatientFixture(t)

	item, err := f.svc.MarkDone(context.Background(), f.patient.ID, f.itemID, MarkDoneInput{
		Completed:    true,
		WasDifficult: true,
	})
	if err != nil {
		t.Fatalf("MarkDone failed: %v", err)
	}
	if item.SeenByDoctor {
		t.Error("difficult item must stay in the doctor's review queue")
	}
	if !item.WasDifficult {
		t.Error("difficulty flag not recorded")
	}
}

func TestMarkDoneIsOneShot(t *testing.T) {
	f := newPatientFixture(t)

	if _, err := f.svc.MarkDone(context.Background(), f.patient.ID, f.itemID, MarkDoneInput{Completed: true}); err != nil {
		t.Fatalf("first MarkDone failed: %v", err)
	}

	_, err := f.svc.MarkDone(context.Background(), f.patient.ID, f.itemID, MarkDoneInput{Completed: false})
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("second MarkDone error = %v, want ErrInvalidState", err)
	}

	item, _ := f.items.GetByID(context.Background(), f.itemID)
	if item.Status != domain.ItemCompleted {
		t.Errorf("second attempt overwrote the first report: status = %s", item.Status)
	}
}

func TestMarkDoneLostRaceMapsToConflict(t *testing.T) {
	f := newPatientFixture(t)
	f.items.markDoneErr = repository.ErrStaleState

	_, err := f.svc.MarkDone(context.Background(), f.patient.ID, f.itemID, MarkDoneInput{Completed: true})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
}

func TestMarkDoneRejectsForeignPatient(t *testing.T) {
	f := newPatientFixture(t)
	other := seedPatientOf(f.users, f.doctor)

	_, err := f.svc.MarkDone(context.Background(), other.ID, f.itemID, MarkDoneInput{Completed: true})
	if !errors.Is(err, domain.ErrPermission) {
		t.Fatalf("error = %v, want ErrPermission", err)
	}
}

func TestGetMyScheduleNewestFirst(t *testing.T) {
	f := newPatientFixture(t)
	if err := f.items.CreateBulk(context.Background(), []domain.ScheduledItem{
		{PrehabID: f.prehabID, WeekNumber: 1, DayNumber: 4, ItemType: domain.ItemTask, Seq: 1},
		{PrehabID: f.prehabID, WeekNumber: 2, DayNumber: 1, ItemType: domain.ItemMeal, Seq: 2},
	}); err != nil {
		t.Fatalf("seed items: %v", err)
	}

	sched, err := f.svc.GetMySchedule(context.Background(), f.patient.ID)
	if err != nil {
		t.Fatalf("GetMySchedule failed: %v", err)
	}
	if sched.Prehab.ID != f.prehabID {
		t.Errorf("prehab = %s, want %s", sched.Prehab.ID.Hex(), f.prehabID.Hex())
	}
	if len(sched.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(sched.Items))
	}
	for i := 1; i < len(sched.Items); i++ {
		if sched.Items[i-1].Seq < sched.Items[i].Seq {
			t.Fatalf("items not sorted newest first: seq %d before %d", sched.Items[i-1].Seq, sched.Items[i].Seq)
		}
	}
}

func TestBuildScheduleDaysGroupsByDate(t *testing.T) {
	day1 := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 3)
	items := []domain.ScheduledItem{
		{Seq: 2, ScheduledDate: day2},
		{Seq: 0, ScheduledDate: day1},
		{Seq: 1, ScheduledDate: day1.Add(10 * time.Hour)}, // same civil day
	}

	days := buildScheduleDays(items)
	if len(days) != 2 {
		t.Fatalf("days = %d, want 2", len(days))
	}
	if !days[0].Date.Equal(day1) || !days[1].Date.Equal(day2) {
		t.Errorf("dates not ascending: %v, %v", days[0].Date, days[1].Date)
	}
	if len(days[0].Items) != 2 || len(days[1].Items) != 1 {
		t.Errorf("grouping = %d/%d items, want 2/1", len(days[0].Items), len(days[1].Items))
	}
}

func TestGetMyScheduleWithoutEnrollment(t *testing.T) {
	f := newPatientFixture(t)
	other := seedPatientOf(f.users, f.doctor)

	_, err := f.svc.GetMySchedule(context.Background(), other.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
