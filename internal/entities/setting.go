package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Expiry report job
	SettingKeyExpiryReportEnabled     = "expiry_report_enabled"
	SettingKeyExpiryReportSchedule    = "expiry_report_schedule"
	SettingKeyExpiryReportLastAt      = "expiry_report_last_at"
	SettingKeyExpiryReportLastStatus  = "expiry_report_last_status"
	SettingKeyExpiryReportLastMessage = "expiry_report_last_message"

	// Expired mapping sweep job
	SettingKeySweepEnabled     = "sweep_enabled"
	SettingKeySweepSchedule    = "sweep_schedule"
	SettingKeySweepLastAt      = "sweep_last_at"
	SettingKeySweepLastStatus  = "sweep_last_status"
	SettingKeySweepLastMessage = "sweep_last_message"
)
