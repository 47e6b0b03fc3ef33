package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemType tells whether a template entry (and the scheduled items expanded
// from it) refers to the task catalog or the meal catalog.
type ItemType string

const (
	ItemTask ItemType = "task"
	ItemMeal ItemType = "meal"
)

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	return t == ItemTask || t == ItemMeal
}

// TemplateItem is one entry of a template week: a task or meal to perform
// TimesPerWeek times during that week.
type TemplateItem struct {
	ItemID       primitive.ObjectID `bson:"itemId" json:"itemId"`
	ItemType     ItemType           `bson:"itemType" json:"itemType"`
	TimesPerWeek int                `bson:"timesPerWeek" json:"timesPerWeek"` // 1..7
	// Optional repetition target carried onto each expanded occurrence
	// (e.g. "10 squats"); nil for items without a count.
	RepetitionCount *int `bson:"repetitionCount,omitempty" json:"repetitionCount,omitempty"`
}

// TemplateWeek groups the items of one plan week.
type TemplateWeek struct {
	WeekNumber int            `bson:"weekNumber" json:"weekNumber"` // 1..NumberOfWeeks, unique per template
	Items      []TemplateItem `bson:"items" json:"items"`
}

// ScheduleTemplate is a reusable multi-week plan definition. Templates are
// not patient-specific; enrolling a patient expands one into a dated
// calendar of scheduled items.
type ScheduleTemplate struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedBy     primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	Title         string             `bson:"title" json:"title"`
	NumberOfWeeks int                `bson:"numberOfWeeks" json:"numberOfWeeks"`
	Weeks         []TemplateWeek     `bson:"weeks" json:"weeks"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
