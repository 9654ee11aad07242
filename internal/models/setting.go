package models

import (
	"time"

	"gorm.io/datatypes"
)

// Setting is one persisted key-value blob owned by a client.
type Setting struct {
	ClientID  string         `gorm:"size:64;primaryKey" json:"client_id"`
	Key       string         `gorm:"size:100;primaryKey" json:"key"`
	Value     datatypes.JSON `json:"value"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Setting) TableName() string {
	return "client_settings"
}
