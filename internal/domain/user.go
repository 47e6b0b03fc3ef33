package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// PatientProfile holds the clinical intake data collected when a doctor
// registers a patient.
type PatientProfile struct {
	PatientTag string  `bson:"patientTag" json:"patientTag"` // Human-readable identifier, e.g. "HSJ20260012"
	Age        int     `bson:"age" json:"age"`
	Height     float64 `bson:"height" json:"height"`
	Weight     float64 `bson:"weight" json:"weight"`
	Sex        string  `bson:"sex" json:"sex"`
}

// User represents any account in the system (admin, doctor or patient).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email,omitempty" json:"email,omitempty"` // Unique when present
	PasswordHash string             `bson:"passwordHash,omitempty" json:"-"`        // Never expose via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Patient onboarding ---
	// Patients are created by their doctor without credentials; they claim
	// the account with the activation code and set a password themselves.
	ActivationCode string `bson:"activationCode,omitempty" json:"-"`
	IsActive       bool   `bson:"isActive" json:"isActive"`

	// --- Doctor-specific ---
	PatientIDs []primitive.ObjectID `bson:"patientIds,omitempty" json:"patientIds,omitempty"`

	// --- Patient-specific ---
	// A patient can be followed by at most two doctors.
	DoctorIDs     []primitive.ObjectID `bson:"doctorIds,omitempty" json:"doctorIds,omitempty"`
	Profile       *PatientProfile      `bson:"profile,omitempty" json:"profile,omitempty"`
	ConstraintIDs []primitive.ObjectID `bson:"constraintIds,omitempty" json:"constraintIds,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsDoctor() bool {
	return u.Role == RoleDoctor
}

func (u *User) IsPatient() bool {
	return u.Role == RolePatient
}

// ManagedBy reports whether doctorID is one of the patient's doctors.
func (u *User) ManagedBy(doctorID primitive.ObjectID) bool {
	for _, id := range u.DoctorIDs {
		if id == doctorID {
			return true
		}
	}
	return false
}
