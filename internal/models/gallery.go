package models

import (
	"time"

	"gorm.io/datatypes"
)

type ImageStatus string

const (
	ImageStatusActive   ImageStatus = "active"
	ImageStatusInactive ImageStatus = "inactive"
	ImageStatusDraft    ImageStatus = "draft"
)

// Valid reports whether s is one of the stored status values.
func (s ImageStatus) Valid() bool {
	switch s {
	case ImageStatusActive, ImageStatusInactive, ImageStatusDraft:
		return true
	}
	return false
}

// Metadata keys written on upload.
const (
	MetaOriginalName = "originalName"
	MetaSize         = "size"
	MetaMimeType     = "mimeType"
	MetaUploadedAt   = "uploadedAt"
)

// GalleryCategory groups images. Name is a URL-safe slug.
type GalleryCategory struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:120;uniqueIndex;not null" json:"name"`
	DisplayName string `gorm:"size:255;not null" json:"display_name"`
	Description string `gorm:"type:text" json:"description"`
	SortOrder   int    `gorm:"default:0" json:"sort_order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GalleryImage is a published (or pending) gallery entry backed by one stored object.
type GalleryImage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Title        string `gorm:"size:255;not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	ImageURL     string `gorm:"size:1024" json:"image_url"`
	ThumbnailURL string `gorm:"size:1024" json:"thumbnail_url"`
	StorageKey   string `gorm:"size:512;index" json:"-"`

	CategoryID *uint            `gorm:"index" json:"category_id"`
	Category   *GalleryCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`

	Tags     datatypes.JSONSlice[string] `json:"tags"`
	Metadata datatypes.JSONMap           `json:"metadata"`

	IsFeatured bool        `gorm:"default:false;index" json:"is_featured"`
	SortOrder  int         `gorm:"default:0" json:"sort_order"`
	Status     ImageStatus `gorm:"size:16;default:active;index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
