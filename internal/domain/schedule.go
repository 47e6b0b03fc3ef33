package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemStatus type for the scheduled-item lifecycle. Pending is the only
// non-terminal state: completed and not_completed are never left or
// re-entered.
type ItemStatus string

const (
	ItemPending      ItemStatus = "pending"
	ItemCompleted    ItemStatus = "completed"
	ItemNotCompleted ItemStatus = "not_completed"
)

// Terminal reports whether the status is final.
func (s ItemStatus) Terminal() bool {
	return s == ItemCompleted || s == ItemNotCompleted
}

// ScheduledItem is one concrete, dated occurrence of a task or meal for a
// specific patient, produced by expanding a template at enrollment time.
// Items are never deleted; they are the history the statistics are built on.
type ScheduledItem struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PrehabID primitive.ObjectID `bson:"prehabId" json:"prehabId"`

	WeekNumber int                `bson:"weekNumber" json:"weekNumber"` // 1..Prehab.NumberOfWeeks
	DayNumber  int                `bson:"dayNumber" json:"dayNumber"`   // 1..7 within the week
	ItemID     primitive.ObjectID `bson:"itemId" json:"itemId"`
	ItemType   ItemType           `bson:"itemType" json:"itemType"`

	ExpectedRepetitions *int `bson:"expectedRepetitions,omitempty" json:"expectedRepetitions,omitempty"`
	ActualRepetitions   *int `bson:"actualRepetitions,omitempty" json:"actualRepetitions,omitempty"`

	Status       ItemStatus `bson:"status" json:"status"`
	FinishedDate *time.Time `bson:"finishedDate,omitempty" json:"finishedDate,omitempty"`
	WasDifficult bool       `bson:"wasDifficult" json:"wasDifficult"`
	PatientNotes string     `bson:"patientNotes,omitempty" json:"patientNotes,omitempty"`

	// Doctor review flags, independent of the completion status.
	SeenByDoctor bool   `bson:"seenByDoctor" json:"seenByDoctor"`
	DoctorNotes  string `bson:"doctorNotes,omitempty" json:"doctorNotes,omitempty"`

	// Calendar date of the occurrence: InitDate + 7*(week-1) + (day-1) days.
	ScheduledDate time.Time `bson:"scheduledDate" json:"scheduledDate"`

	// Insertion sequence within the prehab. Listings sort on it ("newest
	// first") instead of relying on storage-assigned identity order.
	Seq int `bson:"seq" json:"seq"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
