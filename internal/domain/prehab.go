package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PrehabStatus type for the enrollment lifecycle.
type PrehabStatus string

const (
	PrehabPending   PrehabStatus = "pending"   // Created, patient has not started
	PrehabActive    PrehabStatus = "active"    // Patient is following the plan
	PrehabCompleted PrehabStatus = "completed" // Plan finished
	PrehabCancelled PrehabStatus = "cancelled" // Abandoned (e.g. surgery rescheduled)
)

// Valid reports whether s is one of the known prehab statuses.
func (s PrehabStatus) Valid() bool {
	switch s {
	case PrehabPending, PrehabActive, PrehabCompleted, PrehabCancelled:
		return true
	}
	return false
}

// Prehab is one patient's enrollment into a schedule template, bounded by an
// initiation date and a target surgery date. Immutable once created except
// for status transitions.
type Prehab struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID  primitive.ObjectID `bson:"patientId" json:"patientId"`
	CreatedBy  primitive.ObjectID `bson:"createdBy" json:"createdBy"` // Enrolling doctor
	TemplateID primitive.ObjectID `bson:"templateId" json:"templateId"`

	InitDate      time.Time    `bson:"initDate" json:"initDate"`
	SurgeryDate   time.Time    `bson:"surgeryDate" json:"surgeryDate"`
	NumberOfWeeks int          `bson:"numberOfWeeks" json:"numberOfWeeks"`
	Status        PrehabStatus `bson:"status" json:"status"`

	// Derived at creation time: InitDate + NumberOfWeeks*7 days.
	ExpectedEndDate time.Time `bson:"expectedEndDate" json:"expectedEndDate"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CanTransitionTo reports whether the status change from the current status
// to next is legal. Terminal states (completed, cancelled) cannot be left.
func (p *Prehab) CanTransitionTo(next PrehabStatus) bool {
	switch p.Status {
	case PrehabPending:
		return next == PrehabActive || next == PrehabCancelled
	case PrehabActive:
		return next == PrehabCompleted || next == PrehabCancelled
	}
	return false
}
