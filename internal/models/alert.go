package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AlertType string

const (
	AlertInfo    AlertType = "info"
	AlertWarning AlertType = "warning"
	AlertError   AlertType = "error"
	AlertSuccess AlertType = "success"
)

// Alert is never deleted; resolved alerts simply drop out of active views.
type Alert struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	Type        AlertType `gorm:"size:20;not null;default:'info'" json:"type"`
	TriggeredAt time.Time `gorm:"not null;index" json:"triggered_at"`
	Resolved    bool      `gorm:"not null;default:false;index" json:"resolved"`
}

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
