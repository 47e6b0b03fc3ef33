package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"prehab/prehab-app/internal/domain"
)

type prehabFixture struct {
	svc       PrehabService
	users     *mockUserRepo
	templates *mockTemplateRepo
	prehabs   *mockPrehabRepo
	items     *mockItemRepo
	doctor    *domain.User
	patient   *domain.User
	tmplID    primitive.ObjectID
}

func newPrehabFixture(t *testing.T) *prehabFixture {
	t.Helper()
	users := newMockUserRepo()
	templates := newMockTemplateRepo()
	prehabs := newMockPrehabRepo()
	items := newMockItemRepo()

	doctor := seedUser(users, domain.RoleDoctor)
	patient := seedPatientOf(users, doctor)

	// Two weeks, one task three times a week and one daily meal: 20 items.
	tmplID, err := templates.Create(context.Background(), &domain.ScheduleTemplate{
		Title:         "knee replacement prep",
		NumberOfWeeks: 2,
		Weeks: []domain.TemplateWeek{
			{WeekNumber: 1, Items: []domain.TemplateItem{
				{ItemID: primitive.NewObjectID(), ItemType: domain.ItemTask, TimesPerWeek: 3},
				{ItemID: primitive.NewObjectID(), ItemType: domain.ItemMeal, TimesPerWeek: 7},
			}},
			{WeekNumber: 2, Items: []domain.TemplateItem{
				{ItemID: primitive.NewObjectID(), ItemType: domain.ItemTask, TimesPerWeek: 3},
				{ItemID: primitive.NewObjectID(), ItemType: domain.ItemMeal, TimesPerWeek: 7},
			}},
		},
	})
	if err != nil {
		t.Fatalf("seed template: %v", err)
	}

	return &prehabFixture{
		svc:       NewPrehabService(users, templates, prehabs, items, mockTxManager{}),
		users:     users,
		templates: templates,
		prehabs:   prehabs,
		items:     items,
		doctor:    doctor,
		patient:   patient,
		tmplID:    tmplID,
	}
}

func (f *prehabFixture) enroll(t *testing.T) *domain.Prehab {
	t.Helper()
	prehab, err := f.svc.CreatePrehab(context.Background(), f.doctor.ID, CreatePrehabInput{
		PatientID:   f.patient.ID,
		TemplateID:  f.tmplID,
		InitDate:    time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		SurgeryDate: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreatePrehab failed: %v", err)
	}
	return prehab
}

func TestCreatePrehabExpandsCalendar(t *testing.T) {
	f := newPrehabFixture(t)
	prehab := f.enroll(t)

	if prehab.Status != domain.PrehabPending {
		t.Errorf("status = %s, want %s", prehab.Status, domain.PrehabPending)
	}
	if prehab.NumberOfWeeks != 2 {
		t.Errorf("numberOfWeeks = %d, want 2", prehab.NumberOfWeeks)
	}
	wantEnd := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	if !prehab.ExpectedEndDate.Equal(wantEnd) {
		t.Errorf("expectedEndDate = %v, want %v", prehab.ExpectedEndDate, wantEnd)
	}

	items, err := f.items.ListByPrehabID(context.Background(), prehab.ID)
	if err != nil {
		t.Fatalf("listing calendar: %v", err)
	}
	if len(items) != 20 {
		t.Fatalf("calendar has %d items, want 20", len(items))
	}
	for _, item := range items {
		if item.Status != domain.ItemPending {
			t.Errorf("item seq %d created with status %s", item.Seq, item.Status)
		}
		if item.PrehabID != prehab.ID {
			t.Errorf("item seq %d not linked to the enrollment", item.Seq)
		}
	}
}

func TestCreatePrehabRejectsSecondRunningEnrollment(t *testing.T) {
	f := newPrehabFixture(t)
	f.enroll(t)

	_, err := f.svc.CreatePrehab(context.Background(), f.doctor.ID, CreatePrehabInput{
		PatientID:   f.patient.ID,
		TemplateID:  f.tmplID,
		InitDate:    time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		SurgeryDate: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("error = %v, want ErrInvalidState", err)
	}
}

func TestCreatePrehabAllowsReenrollmentAfterCancellation(t *testing.T) {
	f := newPrehabFixture(t)
	first := f.enroll(t)

	if _, err := f.svc.UpdateStatus(context.Background(), f.doctor.ID, first.ID, domain.PrehabCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	f.enroll(t)
}

func TestCreatePrehabRequiresFollowingDoctor(t *testing.T) {
	f := newPrehabFixture(t)
	outsider := seedUser(f.users, domain.RoleDoctor)

	_, err := f.svc.CreatePrehab(context.Background(), outsider.ID, CreatePrehabInput{
		PatientID:   f.patient.ID,
		TemplateID:  f.tmplID,
		InitDate:    time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		SurgeryDate: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, domain.ErrPermission) {
		t.Fatalf("error = %v, want ErrPermission", err)
	}
}

func TestCreatePrehabRejectsSurgeryBeforeInit(t *testing.T) {
	f := newPrehabFixture(t)

	_, err := f.svc.CreatePrehab(context.Background(), f.doctor.ID, CreatePrehabInput{
		PatientID:   f.patient.ID,
		TemplateID:  f.tmplID,
		InitDate:    time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		SurgeryDate: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestUpdateStatusLifecycle(t *testing.T) {
	f := newPrehabFixture(t)
	prehab := f.enroll(t)

	// Patients may start their own plan.
	updated, err := f.svc.UpdateStatus(context.Background(), f.patient.ID, prehab.ID, domain.PrehabActive)
	if err != nil {
		t.Fatalf("activation failed: %v", err)
	}
	if updated.Status != domain.PrehabActive {
		t.Errorf("status = %s, want %s", updated.Status, domain.PrehabActive)
	}

	// But nothing else.
	if _, err := f.svc.UpdateStatus(context.Background(), f.patient.ID, prehab.ID, domain.PrehabCompleted); !errors.Is(err, domain.ErrPermission) {
		t.Fatalf("patient completing error = %v, want ErrPermission", err)
	}

	if _, err := f.svc.UpdateStatus(context.Background(), f.doctor.ID, prehab.ID, domain.PrehabCompleted); err != nil {
		t.Fatalf("doctor completing failed: %v", err)
	}

	// Terminal states are final.
	if _, err := f.svc.UpdateStatus(context.Background(), f.doctor.ID, prehab.ID, domain.PrehabActive); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("reopening error = %v, want ErrInvalidState", err)
	}
}

func TestGetStatisticsRoleDispatch(t *testing.T) {
	f := newPrehabFixture(t)
	f.enroll(t)
	admin := seedUser(f.users, domain.RoleAdmin)
	outsider := seedUser(f.users, domain.RoleDoctor)
	otherPatient := seedPatientOf(f.users, f.doctor)

	if _, err := f.svc.GetStatistics(context.Background(), f.patient.ID, f.patient.ID); err != nil {
		t.Errorf("patient on self failed: %v", err)
	}
	if _, err := f.svc.GetStatistics(context.Background(), f.doctor.ID, f.patient.ID); err != nil {
		t.Errorf("following doctor failed: %v", err)
	}
	if _, err := f.svc.GetStatistics(context.Background(), admin.ID, f.patient.ID); err != nil {
		t.Errorf("admin failed: %v", err)
	}
	if _, err := f.svc.GetStatistics(context.Background(), outsider.ID, f.patient.ID); !errors.Is(err, domain.ErrPermission) {
		t.Errorf("outsider doctor error = %v, want ErrPermission", err)
	}
	if _, err := f.svc.GetStatistics(context.Background(), otherPatient.ID, f.patient.ID); !errors.Is(err, domain.ErrPermission) {
		t.Errorf("foreign patient error = %v, want ErrPermission", err)
	}
}

func TestGetStatisticsCountsReports(t *testing.T) {
	f := newPrehabFixture(t)
	prehab := f.enroll(t)

	// Finish two items, one of them with difficulty.
	patientSvc := NewPatientService(f.users, f.prehabs, f.items)
	items, _ := f.items.ListByPrehabID(context.Background(), prehab.ID)
	if _, err := patientSvc.MarkDone(context.Background(), f.patient.ID, items[0].ID, MarkDoneInput{Completed: true}); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if _, err := patientSvc.MarkDone(context.Background(), f.patient.ID, items[1].ID, MarkDoneInput{Completed: false, WasDifficult: true}); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}

	report, err := f.svc.GetStatistics(context.Background(), f.doctor.ID, f.patient.ID)
	if err != nil {
		t.Fatalf("GetStatistics failed: %v", err)
	}
	if report.TotalActivities != 20 {
		t.Errorf("totalActivities = %d, want 20", report.TotalActivities)
	}
	if report.PrehabID != prehab.ID {
		t.Errorf("report bound to wrong enrollment")
	}
}
