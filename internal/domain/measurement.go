package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BodyMeasurement is one body measurement entry. Optional girths are pointers
// so an unmeasured value is distinguishable from zero.
type BodyMeasurement struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID  `bson:"userId" json:"userId"`
	Date       string              `bson:"date" json:"date"` // Schedule key
	WeightKg   *float64            `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
	BodyFatPct *float64            `bson:"bodyFatPct,omitempty" json:"bodyFatPct,omitempty"`
	WaistCm    *float64            `bson:"waistCm,omitempty" json:"waistCm,omitempty"`
	ChestCm    *float64            `bson:"chestCm,omitempty" json:"chestCm,omitempty"`
	HipsCm     *float64            `bson:"hipsCm,omitempty" json:"hipsCm,omitempty"`
	ArmCm      *float64            `bson:"armCm,omitempty" json:"armCm,omitempty"`
	ThighCm    *float64            `bson:"thighCm,omitempty" json:"thighCm,omitempty"`
	Notes      string              `bson:"notes,omitempty" json:"notes,omitempty"`
	PhotoID    *primitive.ObjectID `bson:"photoId,omitempty" json:"photoId,omitempty"` // Link to the progress Photo
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Photo stores metadata about a progress photo attached to a measurement.
// The actual file resides in S3.
type Photo struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MeasurementID primitive.ObjectID `bson:"measurementId" json:"measurementId"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	S3ObjectKey   string             `bson:"s3ObjectKey" json:"-"` // Internal use only
	FileName      string             `bson:"fileName" json:"fileName"`
	ContentType   string             `bson:"contentType" json:"contentType"` // e.g. "image/jpeg"
	Size          int64              `bson:"size" json:"size"`
	UploadedAt    time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}
