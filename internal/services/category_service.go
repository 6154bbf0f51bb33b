package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/galleryhub/backend/internal/models"
	"github.com/galleryhub/backend/pkg/validation"
	"gorm.io/gorm"
)

type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// CategoryInput is used for create (Name or DisplayName required) and for
// partial update (nil fields untouched).
type CategoryInput struct {
	Name        *string
	DisplayName *string
	Description *string
	SortOrder   *int
}

// List returns all categories in display order.
func (s *CategoryService) List(ctx context.Context) ([]models.GalleryCategory, error) {
	var categories []models.GalleryCategory
	if err := s.db.WithContext(ctx).Order("sort_order ASC").Order("display_name ASC").Find(&categories).Error; err != nil {
		return nil, NewBackendError("failed to fetch categories", err)
	}
	return categories, nil
}

// ListWithCounts returns the public category listing with the synthetic
// "all" entry first. Only active images are counted.
func (s *CategoryService) ListWithCounts(ctx context.Context) ([]CategoryCount, error) {
	categories, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		CategoryID uint
		Count      int64
	}
	err = s.db.WithContext(ctx).Model(&models.GalleryImage{}).
		Select("category_id, COUNT(*) AS count").
		Where("status = ? AND category_id IS NOT NULL", models.ImageStatusActive).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, NewBackendError("failed to count images per category", err)
	}

	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.CategoryID] = r.Count
	}
	return MapCategoryCounts(categories, counts), nil
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*models.GalleryCategory, error) {
	var category models.GalleryCategory
	err := s.db.WithContext(ctx).First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewNotFoundError("Category not found")
	}
	if err != nil {
		return nil, NewBackendError("failed to fetch category", err)
	}
	return &category, nil
}

// Create inserts a category. The name is slugified; when absent it is
// derived from the display name.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.GalleryCategory, error) {
	var name, displayName string
	if in.Name != nil {
		name = validation.Slugify(*in.Name)
	}
	if in.DisplayName != nil {
		displayName = validation.SanitizeString(*in.DisplayName)
	}
	if name == "" && displayName == "" {
		return nil, NewValidationError("Name and display_name are required")
	}
	if name == "" {
		name = validation.Slugify(displayName)
	}
	if displayName == "" {
		displayName = validation.SanitizeString(*in.Name)
	}
	if name == StatusAll {
		return nil, NewValidationError(`Category name "all" is reserved`)
	}

	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return nil, err
	}

	category := &models.GalleryCategory{Name: name, DisplayName: displayName}
	if in.Description != nil {
		category.Description = validation.SanitizeString(*in.Description)
	}
	if in.SortOrder != nil {
		category.SortOrder = *in.SortOrder
	}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, NewBackendError("failed to create category", err)
	}
	return category, nil
}

// Update applies a partial update; a new name is slugified and must stay unique.
func (s *CategoryService) Update(ctx context.Context, id uint, in CategoryInput) (*models.GalleryCategory, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		name := validation.Slugify(*in.Name)
		if name == "" {
			return nil, NewValidationError("Name cannot be empty")
		}
		if name == StatusAll {
			return nil, NewValidationError(`Category name "all" is reserved`)
		}
		if err := s.ensureNameFree(ctx, name, id); err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if in.DisplayName != nil {
		displayName := validation.SanitizeString(*in.DisplayName)
		if displayName == "" {
			return nil, NewValidationError("Display name cannot be empty")
		}
		updates["display_name"] = displayName
	}
	if in.Description != nil {
		updates["description"] = validation.SanitizeString(*in.Description)
	}
	if in.SortOrder != nil {
		updates["sort_order"] = *in.SortOrder
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.GalleryCategory{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, NewBackendError("failed to update category", err)
		}
	}
	return s.Get(ctx, id)
}

// Delete removes a category that no image references.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	var inUse int64
	if err := s.db.WithContext(ctx).Model(&models.GalleryImage{}).Where("category_id = ?", id).Count(&inUse).Error; err != nil {
		return NewBackendError("failed to check category usage", err)
	}
	if inUse > 0 {
		return NewValidationError(fmt.Sprintf("Cannot delete category: %d image(s) are still assigned to it", inUse))
	}

	if err := s.db.WithContext(ctx).Delete(&models.GalleryCategory{}, id).Error; err != nil {
		return NewBackendError("failed to delete category", err)
	}
	return nil
}

func (s *CategoryService) ensureNameFree(ctx context.Context, name string, exceptID uint) error {
	query := s.db.WithContext(ctx).Model(&models.GalleryCategory{}).Where("name = ?", name)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return NewBackendError("failed to check category name", err)
	}
	if count > 0 {
		return NewValidationError(fmt.Sprintf("Category %q already exists", strings.TrimSpace(name)))
	}
	return nil
}
