package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MealType classifies when during the day a meal is taken.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealSnack     MealType = "snack"
	MealDinner    MealType = "dinner"
	MealSupper    MealType = "supper"
)

// Valid reports whether m is one of the known meal types.
func (m MealType) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealSnack, MealDinner, MealSupper:
		return true
	}
	return false
}

// Meal represents a meal definition in the nutrition catalog.
type Meal struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	MealType    MealType           `bson:"mealType" json:"mealType"`

	// Dietary constraints this meal is incompatible with.
	ConstraintIDs []primitive.ObjectID `bson:"constraintIds,omitempty" json:"constraintIds,omitempty"`

	// Optional instruction media stored in S3.
	AttachmentID *primitive.ObjectID `bson:"attachmentId,omitempty" json:"attachmentId,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ConstraintType is a dietary or physical restriction that can be attached
// to patients and meals (e.g. "diabetic", "gluten-free").
type ConstraintType struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
