package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Upload stores metadata about an instruction-media file (exercise video,
// meal photo) attached to a catalog entry. The actual file resides in S3.
type Upload struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UploadedBy primitive.ObjectID `bson:"uploadedBy" json:"uploadedBy"` // Doctor or admin

	// The catalog entry the media belongs to.
	TargetID   primitive.ObjectID `bson:"targetId" json:"targetId"`
	TargetType ItemType           `bson:"targetType" json:"targetType"`

	S3ObjectKey string    `bson:"s3ObjectKey" json:"-"` // Internal bucket key, never exposed
	FileName    string    `bson:"fileName" json:"fileName"`
	ContentType string    `bson:"contentType" json:"contentType"`
	Size        int64     `bson:"size" json:"size"`
	UploadedAt  time.Time `bson:"uploadedAt" json:"uploadedAt"`
}
