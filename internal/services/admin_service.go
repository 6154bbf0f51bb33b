package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/galleryhub/backend/internal/models"
	"gorm.io/gorm"
)

type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// Dashboard aggregates counts for the admin landing page.
type Dashboard struct {
	TotalImages     int64           `json:"totalImages"`
	ActiveImages    int64           `json:"activeImages"`
	InactiveImages  int64           `json:"inactiveImages"`
	DraftImages     int64           `json:"draftImages"`
	FeaturedImages  int64           `json:"featuredImages"`
	TotalCategories int64           `json:"totalCategories"`
	RecentImages    []ImageResponse `json:"recentImages"`
}

// ImagePage is an admin listing window plus the unwindowed total.
type ImagePage struct {
	Images []ImageResponse `json:"images"`
	Total  int64           `json:"total"`
	Limit  *int            `json:"limit"`
	Offset int             `json:"offset"`
}

// StorageUsage is derived from each row's metadata.size, not from the
// storage backend, so it can drift from what is actually stored.
type StorageUsage struct {
	TotalBytes int64            `json:"totalBytes"`
	TotalSize  string           `json:"totalSize"`
	ImageCount int64            `json:"imageCount"`
	ByMimeType map[string]int64 `json:"byMimeType"`
	ByStatus   map[string]int64 `json:"byStatus"`
}

const recentImagesLimit = 5

func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	d := &Dashboard{}

	var rows []struct {
		Status models.ImageStatus
		Count  int64
	}
	if err := db.Model(&models.GalleryImage{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, NewBackendError("failed to count images", err)
	}
	for _, r := range rows {
		d.TotalImages += r.Count
		switch r.Status {
		case models.ImageStatusActive:
			d.ActiveImages = r.Count
		case models.ImageStatusInactive:
			d.InactiveImages = r.Count
		case models.ImageStatusDraft:
			d.DraftImages = r.Count
		}
	}

	if err := db.Model(&models.GalleryImage{}).Where("is_featured = ?", true).Count(&d.FeaturedImages).Error; err != nil {
		return nil, NewBackendError("failed to count featured images", err)
	}
	if err := db.Model(&models.GalleryCategory{}).Count(&d.TotalCategories).Error; err != nil {
		return nil, NewBackendError("failed to count categories", err)
	}

	limit := recentImagesLimit
	query, err := BuildImageQuery(ctx, s.db, ImageQueryParams{Limit: &limit}, ScopeAdmin)
	if err != nil {
		return nil, err
	}
	var recent []models.GalleryImage
	if err := query.Find(&recent).Error; err != nil {
		return nil, NewBackendError("failed to fetch recent images", err)
	}
	d.RecentImages = MapImages(recent)
	return d, nil
}

// ListImages is the admin listing: every status unless filtered, newest first.
func (s *AdminService) ListImages(ctx context.Context, params ImageQueryParams) (*ImagePage, error) {
	countQuery, err := buildImageFilter(ctx, s.db, params, ScopeAdmin)
	if err != nil {
		return nil, err
	}
	page := &ImagePage{Limit: params.Limit}
	if params.Offset != nil {
		page.Offset = *params.Offset
		if params.Limit == nil {
			window := DefaultWindowSize
			page.Limit = &window
		}
	}
	if err := countQuery.Count(&page.Total).Error; err != nil {
		return nil, NewBackendError("failed to count images", err)
	}

	query, err := BuildImageQuery(ctx, s.db, params, ScopeAdmin)
	if err != nil {
		return nil, err
	}
	var images []models.GalleryImage
	if err := query.Find(&images).Error; err != nil {
		return nil, NewBackendError("failed to fetch images", err)
	}
	page.Images = MapImages(images)
	return page, nil
}

// StorageUsage sums metadata.size across all rows.
func (s *AdminService) StorageUsage(ctx context.Context) (*StorageUsage, error) {
	var rows []models.GalleryImage
	if err := s.db.WithContext(ctx).Select("id", "status", "metadata").Find(&rows).Error; err != nil {
		return nil, NewBackendError("failed to fetch image metadata", err)
	}

	usage := &StorageUsage{
		ImageCount: int64(len(rows)),
		ByMimeType: map[string]int64{},
		ByStatus:   map[string]int64{},
	}
	for _, row := range rows {
		size := metadataSize(row.Metadata[models.MetaSize])
		usage.TotalBytes += size
		usage.ByStatus[string(row.Status)] += size
		mime, _ := row.Metadata[models.MetaMimeType].(string)
		if mime == "" {
			mime = "unknown"
		}
		usage.ByMimeType[mime] += size
	}
	usage.TotalSize = FormatBytes(usage.TotalBytes)
	return usage, nil
}

func metadataSize(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	}
	return 0
}

// FormatBytes renders a byte count with binary units, two decimals.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit && exp < 3; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(b)/float64(div), "KMGT"[exp])
}
