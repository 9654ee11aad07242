package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MoodNotLogged is the zero mood value; valid moods are 1..MoodMax.
const (
	MoodNotLogged = 0
	MoodMax       = 5
)

// Log is the daily health log. At most one exists per (user, date).
type Log struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_logs_user_date,priority:1" json:"user_id"`
	Date        string    `gorm:"size:10;not null;uniqueIndex:idx_logs_user_date,priority:2" json:"date"`
	Mood        int       `gorm:"not null;default:0" json:"mood"`
	Medications string    `gorm:"type:text" json:"medications"`
	Food        string    `gorm:"type:text" json:"food"`
	Notes       string    `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

func (l *Log) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func (l *Log) HasMood() bool {
	return l.Mood > MoodNotLogged
}
