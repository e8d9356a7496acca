package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WeightUnit is the unit the user logs weights in.
type WeightUnit string

const (
	UnitKilograms WeightUnit = "kg"
	UnitPounds    WeightUnit = "lb"
)

// Default rest timer length used when a user never set one.
const DefaultRestTimerSeconds = 90

// ThemeSettings is the user's color theme input. The resolved palette is derived
// from it on demand and never stored.
type ThemeSettings struct {
	Hue        float64 `bson:"hue" json:"hue"`               // 0-360
	Saturation float64 `bson:"saturation" json:"saturation"` // 0-100
	Lightness  float64 `bson:"lightness" json:"lightness"`   // 0-100
	Softness   float64 `bson:"softness" json:"softness"`     // 0-100
	Dark       bool    `bson:"dark" json:"dark"`
}

// Settings holds per-user preferences.
type Settings struct {
	Theme            ThemeSettings `bson:"theme" json:"theme"`
	RestTimerSeconds int           `bson:"restTimerSeconds" json:"restTimerSeconds"`
	WeightUnit       WeightUnit    `bson:"weightUnit" json:"weightUnit"`
}

// DefaultSettings are assigned on registration.
func DefaultSettings() Settings {
	return Settings{
		Theme: ThemeSettings{
			Hue:        210,
			Saturation: 70,
			Lightness:  50,
			Softness:   30,
		},
		RestTimerSeconds: DefaultRestTimerSeconds,
		WeightUnit:       UnitKilograms,
	}
}

// User represents an account owning a calendar, exercises, logs and measurements.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Settings     Settings           `bson:"settings" json:"settings"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
