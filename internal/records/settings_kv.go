package records

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsKV is a per-client key-value store over the client_settings table.
type SettingsKV struct {
	db       *gorm.DB
	clientID string
}

func NewSettingsKV(db *gorm.DB, clientID string) *SettingsKV {
	return &SettingsKV{db: db, clientID: clientID}
}

// Get returns the stored value and whether the key exists.
func (kv *SettingsKV) Get(ctx context.Context, key string) (string, bool, error) {
	var row models.Setting
	err := kv.db.WithContext(ctx).
		Where("client_id = ? AND key = ?", kv.clientID, key).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(row.Value), true, nil
}

func (kv *SettingsKV) Set(ctx context.Context, key, value string) error {
	row := models.Setting{
		ClientID:  kv.clientID,
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: time.Now().UTC(),
	}
	return kv.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}
