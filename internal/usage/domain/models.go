// Package domain contains the append-only ledger of metered crypt operations.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// HistoryLimit caps how many ledger entries a single read returns.
const HistoryLimit = 100

// UsageRecord stores one metered operation against a license. Records are
// written once and never updated or deleted.
type UsageRecord struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	LicenseID  snowflake.ID `json:"license_id" gorm:"not null;index"`
	FileName   string       `json:"file_name" gorm:"type:text;not null"`
	FileSize   int64        `json:"file_size" gorm:"not null"`
	Method     string       `json:"method" gorm:"type:text"`
	HardwareID string       `json:"hardware_id" gorm:"type:text"`
	ClientVer  string       `json:"client_version" gorm:"column:client_version;type:text"`
	Success    bool         `json:"success" gorm:"not null;default:true"`
	Error      string       `json:"error,omitempty" gorm:"type:text"`
	RecordedAt time.Time    `json:"recorded_at" gorm:"not null"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "usage_records" }
