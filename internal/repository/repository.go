package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"prehab/prehab-app/internal/domain"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDuplicate    = RepositoryError("duplicate key")

	// ErrStaleState is returned by conditional updates when the guarded
	// precondition no longer holds (the document exists but its state
	// changed between read and write).
	ErrStaleState = RepositoryError("stale state")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// TransactionManager runs a function inside a storage transaction. The ctx
// handed to fn must be passed to every repository call that should join the
// transaction; multi-document writes either fully commit or roll back.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByActivationCode(ctx context.Context, code string) (*domain.User, error)
	Activate(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	AddPatientIDToDoctor(ctx context.Context, doctorID, patientID primitive.ObjectID) error
	AddDoctorIDToPatient(ctx context.Context, patientID, doctorID primitive.ObjectID) error
	GetPatientsByDoctorID(ctx context.Context, doctorID primitive.ObjectID) ([]domain.User, error)
}

// TaskRepository defines the interface for interacting with the task catalog.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Task, error)
	List(ctx context.Context) ([]domain.Task, error)
	SetAttachment(ctx context.Context, id, uploadID primitive.ObjectID) error
}

// MealRepository defines the interface for interacting with the meal catalog.
type MealRepository interface {
	Create(ctx context.Context, meal *domain.Meal) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Meal, error)
	List(ctx context.Context) ([]domain.Meal, error)
	SetAttachment(ctx context.Context, id, uploadID primitive.ObjectID) error
}

// ConstraintTypeRepository defines the interface for the constraint catalog.
type ConstraintTypeRepository interface {
	Create(ctx context.Context, ct *domain.ConstraintType) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ConstraintType, error)
	List(ctx context.Context) ([]domain.ConstraintType, error)
}

// TemplateRepository defines the interface for schedule templates.
type TemplateRepository interface {
	Create(ctx context.Context, tmpl *domain.ScheduleTemplate) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ScheduleTemplate, error)
	List(ctx context.Context) ([]domain.ScheduleTemplate, error)
}

// PrehabRepository defines the interface for prehab enrollments.
type PrehabRepository interface {
	Create(ctx context.Context, prehab *domain.Prehab) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Prehab, error)
	GetCurrentByPatientID(ctx context.Context, patientID primitive.ObjectID) (*domain.Prehab, error)
	ListByDoctorID(ctx context.Context, doctorID primitive.ObjectID) ([]domain.Prehab, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.PrehabStatus) error
}

// MarkDoneParams carries the field set applied atomically when a patient
// finishes (or gives up on) a scheduled item.
type MarkDoneParams struct {
	Status            domain.ItemStatus
	FinishedDate      time.Time
	WasDifficult      bool
	PatientNotes      string
	ActualRepetitions *int
	SeenByDoctor      bool
}

// ScheduledItemRepository defines the interface for the per-patient calendar.
// Items are inserted in bulk at enrollment and mutated only through the
// conditional transition methods; they are never deleted.
type ScheduledItemRepository interface {
	// CreateBulk inserts all drafts with a single insert. Enrollment wraps
	// it (together with the prehab insert) in a TransactionManager
	// transaction so a failure leaves no partial calendar behind.
	CreateBulk(ctx context.Context, items []domain.ScheduledItem) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ScheduledItem, error)
	// ListByPrehabID returns the prehab's items newest first (by seq).
	ListByPrehabID(ctx context.Context, prehabID primitive.ObjectID) ([]domain.ScheduledItem, error)
	ListAll(ctx context.Context) ([]domain.ScheduledItem, error)
	// MarkDone applies params only while the item is still pending and
	// returns ErrStaleState if the guard fails on a document that exists.
	MarkDone(ctx context.Context, id primitive.ObjectID, params MarkDoneParams) error
	// MarkSeen updates the review flags only while the item is still pending.
	MarkSeen(ctx context.Context, id primitive.ObjectID, seen bool, doctorNotes string) error
	// MarkSeenBulk flips seenByDoctor on every item of the prehab with no
	// state guard, finished items included.
	MarkSeenBulk(ctx context.Context, prehabID primitive.ObjectID) (int64, error)
}

// UploadRepository defines the interface for instruction-media metadata.
type UploadRepository interface {
	Create(ctx context.Context, upload *domain.Upload) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Upload, error)
}
