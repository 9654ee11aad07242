package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleCaregiver Role = "caregiver"
	RoleTherapist Role = "therapist"
)

// Profile is the declared disability profile that selects an interaction surface.
type Profile string

const (
	ProfileCognitive Profile = "cognitive"
	ProfileVisual    Profile = "visual"
	ProfileHearing   Profile = "hearing"
	ProfilePhysical  Profile = "physical"
)

// User is an AbleLink account. DisabilityType is nil until the user picks a profile.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string    `gorm:"size:255;not null;index" json:"name"`
	Email          string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Role           Role      `gorm:"size:20;not null;default:'user';index" json:"role"`
	DisabilityType *Profile  `gorm:"size:20" json:"disability_type,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsCareRole reports whether the user watches over other users.
func (u *User) IsCareRole() bool {
	return u.Role == RoleCaregiver || u.Role == RoleTherapist
}
