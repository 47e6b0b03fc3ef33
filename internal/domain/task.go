package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task represents a single rehabilitation exercise definition in the catalog.
type Task struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"` // Admin or doctor who authored it
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	// Optional instruction media (video or image) stored in S3; the Upload
	// record carries the object key and file metadata.
	AttachmentID *primitive.ObjectID `bson:"attachmentId,omitempty" json:"attachmentId,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
