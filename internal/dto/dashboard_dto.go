package dto

import (
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/dashboard"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/modes"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/narration"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/records"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/settings"
)

type SurfaceResponse struct {
	View      modes.View          `json:"view"`
	Narration NarrationResponse   `json:"narration"`
	Styles    settings.StyleFlags `json:"styles"`
	Banner    *modes.Banner       `json:"banner,omitempty"`
	Notices   []dashboard.Notice  `json:"notices,omitempty"`
}

type MeDashboardResponse struct {
	dashboard.UserView
	Surface SurfaceResponse `json:"surface"`
}

type SpeakRequest struct {
	Text string `json:"text"`
}

type ReadRequest struct {
	Fragments []string `json:"fragments"`
}

type NarrationResponse struct {
	Available bool            `json:"available"`
	Enabled   bool            `json:"enabled"`
	State     narration.State `json:"state"`
}

// UpdateSettingsRequest uses the persisted blob's key names. Omitted fields
// are left unchanged.
type UpdateSettingsRequest struct {
	HighContrast *bool `json:"highContrast"`
	LargeFonts   *bool `json:"largeFonts"`
	ReduceMotion *bool `json:"reduceMotion"`
	ScreenReader *bool `json:"screenReader"`
}

func (r UpdateSettingsRequest) Patch() settings.Patch {
	return settings.Patch{
		HighContrast: r.HighContrast,
		LargeFonts:   r.LargeFonts,
		ReduceMotion: r.ReduceMotion,
		ScreenReader: r.ScreenReader,
	}
}

type SettingsResponse struct {
	Settings settings.Settings   `json:"settings"`
	Styles   settings.StyleFlags `json:"styles"`
	Classes  []string            `json:"classes"`
	Banner   *modes.Banner       `json:"banner,omitempty"`
	Notices  []dashboard.Notice  `json:"notices,omitempty"`
}

type TaskResponse struct {
	Task   *models.Task  `json:"task"`
	Banner *modes.Banner `json:"banner,omitempty"`
}

type AlertResponse struct {
	Alert  *models.Alert `json:"alert"`
	Banner *modes.Banner `json:"banner,omitempty"`
}

// SaveLogRequest is today's health log. Omitted fields keep their value.
type SaveLogRequest struct {
	Mood        *int    `json:"mood"`
	Medications *string `json:"medications"`
	Food        *string `json:"food"`
	Notes       *string `json:"notes"`
}

func (r SaveLogRequest) Fields() records.LogFields {
	return records.LogFields{
		Mood:        r.Mood,
		Medications: r.Medications,
		Food:        r.Food,
		Notes:       r.Notes,
	}
}

type LogResponse struct {
	Log *models.Log `json:"log"`
}
