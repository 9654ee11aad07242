package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task is a scheduled activity for one user on one calendar date.
// Only Completed (and its CompletedAt stamp) changes after creation.
type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_tasks_user_date,priority:1" json:"user_id"`
	Date        string     `gorm:"size:10;not null;index:idx_tasks_user_date,priority:2" json:"date"`
	Time        string     `gorm:"size:20" json:"time"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Icon        string     `gorm:"size:16" json:"icon"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
