package services

import (
	"context"
	"errors"
	"strings"

	"github.com/galleryhub/backend/internal/models"
	"gorm.io/gorm"
)

// StatusAll disables the status filter.
const StatusAll = "all"

// DefaultWindowSize is used when an offset arrives without a limit.
const DefaultWindowSize = 50

type ImageQueryScope int

const (
	ScopePublic ImageQueryScope = iota
	ScopeAdmin
)

// ImageQueryParams are the optional listing filters. Nil pointers and empty
// strings mean "not supplied".
type ImageQueryParams struct {
	Category string
	Featured *bool
	Limit    *int
	Offset   *int
	Status   string
}

// BuildImageQuery composes the read query for gallery images. An unknown
// category slug yields an empty result rather than an error.
func BuildImageQuery(ctx context.Context, db *gorm.DB, params ImageQueryParams, scope ImageQueryScope) (*gorm.DB, error) {
	query, err := buildImageFilter(ctx, db, params, scope)
	if err != nil {
		return nil, err
	}
	query = query.Preload("Category", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "name", "display_name")
	})

	if scope == ScopeAdmin {
		query = query.Order("created_at DESC").Order("id DESC")
	} else {
		query = query.Order("sort_order ASC").Order("id ASC")
	}

	return applyWindow(query, params.Limit, params.Offset), nil
}

// buildImageFilter applies the WHERE clauses only, so it can also back a COUNT.
func buildImageFilter(ctx context.Context, db *gorm.DB, params ImageQueryParams, scope ImageQueryScope) (*gorm.DB, error) {
	query := db.WithContext(ctx).Model(&models.GalleryImage{})

	status := strings.ToLower(strings.TrimSpace(params.Status))
	if status == "" {
		status = string(models.ImageStatusActive)
		if scope == ScopeAdmin {
			status = StatusAll
		}
	}
	if status != StatusAll {
		if !models.ImageStatus(status).Valid() {
			return nil, NewValidationError("Invalid status. Must be one of: active, inactive, draft, all")
		}
		query = query.Where("status = ?", status)
	}

	if category := strings.TrimSpace(params.Category); category != "" && category != StatusAll {
		id, found, err := resolveCategoryID(ctx, db, category)
		if err != nil {
			return nil, err
		}
		if found {
			query = query.Where("category_id = ?", id)
		} else {
			query = query.Where("1 = 0")
		}
	}

	if params.Featured != nil {
		query = query.Where("is_featured = ?", *params.Featured)
	}

	return query, nil
}

func resolveCategoryID(ctx context.Context, db *gorm.DB, slug string) (uint, bool, error) {
	var category models.GalleryCategory
	err := db.WithContext(ctx).Select("id").Where("name = ?", slug).Take(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, NewBackendError("failed to resolve category", err)
	}
	return category.ID, true, nil
}

// applyWindow implements the half-open window [offset, offset+limit).
func applyWindow(query *gorm.DB, limit, offset *int) *gorm.DB {
	switch {
	case limit != nil && offset != nil:
		return query.Offset(*offset).Limit(*limit)
	case limit != nil:
		return query.Limit(*limit)
	case offset != nil:
		return query.Offset(*offset).Limit(DefaultWindowSize)
	}
	return query
}
