// Package domain describes published client stub builds.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// StubVersion is one published client stub build.
type StubVersion struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	Version     string       `json:"version" gorm:"type:text;not null"`
	ReleaseDate time.Time    `json:"release_date" gorm:"not null"`
	Description string       `json:"description" gorm:"type:text"`
	DownloadURL string       `json:"download_url" gorm:"type:text;not null"`
	FileSize    int64        `json:"file_size" gorm:"not null"`
	Checksum    string       `json:"checksum" gorm:"type:text"`
	Active      bool         `json:"active" gorm:"not null;default:true"`
}

// TableName sets the database table name.
func (StubVersion) TableName() string { return "stub_versions" }

// StubInfo is the client-facing description of the latest build.
type StubInfo struct {
	Version     string    `json:"version"`
	ReleaseDate time.Time `json:"release_date"`
	Description string    `json:"description,omitempty"`
	DownloadURL string    `json:"download_url"`
	FileSize    int64     `json:"file_size"`
	Checksum    string    `json:"checksum,omitempty"`
}

type Service interface {
	// Latest returns the newest active stub build, or nil when none is
	// published.
	Latest(ctx context.Context) (*StubInfo, error)
}
