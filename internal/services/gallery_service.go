package services

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/galleryhub/backend/internal/config"
	"github.com/galleryhub/backend/internal/models"
	"github.com/galleryhub/backend/pkg/validation"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QualityAssurance is reported by the stats endpoint as-is.
const QualityAssurance = 100

type GalleryService struct {
	db      *gorm.DB
	cfg     *config.Config
	storage ObjectStorage
	log     *slog.Logger
}

func NewGalleryService(db *gorm.DB, cfg *config.Config, storage ObjectStorage, log *slog.Logger) *GalleryService {
	if log == nil {
		log = slog.Default()
	}
	return &GalleryService{db: db, cfg: cfg, storage: storage, log: log}
}

// CreateImageInput carries the fields of an upload request.
type CreateImageInput struct {
	Title        string
	Description  string
	CategoryID   *uint
	CategorySlug string
	Tags         []string
	IsFeatured   bool
	SortOrder    int
	File         UploadCandidate
}

// UpdateImageInput lists the mutable fields; nil means unchanged.
type UpdateImageInput struct {
	Title         *string
	Description   *string
	CategoryID    *uint
	ClearCategory bool
	Tags          *[]string
	IsFeatured    *bool
	SortOrder     *int
	Status        *string
}

// BatchUploadResult reports the outcome of one file in a batch.
type BatchUploadResult struct {
	Filename string         `json:"filename"`
	Status   string         `json:"status"`
	Image    *ImageResponse `json:"image,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Stats is the public gallery summary.
type Stats struct {
	TotalImages      int64 `json:"totalImages"`
	TotalCategories  int64 `json:"totalCategories"`
	FeaturedImages   int64 `json:"featuredImages"`
	QualityAssurance int   `json:"qualityAssurance"`
}

// ListImages returns public (active unless asked otherwise) images.
func (s *GalleryService) ListImages(ctx context.Context, params ImageQueryParams) ([]ImageResponse, error) {
	query, err := BuildImageQuery(ctx, s.db, params, ScopePublic)
	if err != nil {
		return nil, err
	}
	var images []models.GalleryImage
	if err := query.Find(&images).Error; err != nil {
		return nil, NewBackendError("failed to fetch images", err)
	}
	return MapImages(images), nil
}

// GetPublicImage returns an active image; anything else is not found.
func (s *GalleryService) GetPublicImage(ctx context.Context, id uint) (*ImageResponse, error) {
	img, err := s.findImage(ctx, id)
	if err != nil {
		return nil, err
	}
	if img.Status != models.ImageStatusActive {
		return nil, NewNotFoundError("Image not found")
	}
	out := MapImage(*img)
	return &out, nil
}

// GetImage returns an image regardless of status.
func (s *GalleryService) GetImage(ctx context.Context, id uint) (*ImageResponse, error) {
	img, err := s.findImage(ctx, id)
	if err != nil {
		return nil, err
	}
	out := MapImage(*img)
	return &out, nil
}

func (s *GalleryService) findImage(ctx context.Context, id uint) (*models.GalleryImage, error) {
	var img models.GalleryImage
	err := s.db.WithContext(ctx).
		Preload("Category", func(tx *gorm.DB) *gorm.DB {
			return tx.Select("id", "name", "display_name")
		}).
		First(&img, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewNotFoundError("Image not found")
	}
	if err != nil {
		return nil, NewBackendError("failed to fetch image", err)
	}
	return &img, nil
}

// CreateImage validates the file, stores it and inserts the row. If the
// insert fails the stored object is removed again.
func (s *GalleryService) CreateImage(ctx context.Context, in CreateImageInput) (*ImageResponse, error) {
	title := validation.SanitizeString(in.Title)
	if title == "" {
		return nil, NewValidationError("Title is required")
	}
	if len(in.File.Data) == 0 {
		return nil, NewValidationError("Image file is required")
	}
	if err := ValidateUpload(in.File, s.cfg.UploadMaxImageSize); err != nil {
		return nil, err
	}

	categoryID, err := s.resolveCategoryForWrite(ctx, in.CategoryID, in.CategorySlug)
	if err != nil {
		return nil, err
	}

	contentType := ResolveContentType(in.File.Filename)
	key := GenerateFilename(in.File.Filename, "gallery")

	stored, err := s.storage.Upload(ctx, in.File.Data, key, s.cfg.GalleryBucket, contentType)
	if err != nil {
		return nil, AsAppError(err)
	}

	size := in.File.Size
	if size <= 0 {
		size = int64(len(in.File.Data))
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	img := &models.GalleryImage{
		Title:        title,
		Description:  validation.SanitizeString(in.Description),
		ImageURL:     stored.PublicURL,
		ThumbnailURL: stored.PublicURL,
		StorageKey:   key,
		CategoryID:   categoryID,
		Tags:         datatypes.JSONSlice[string](tags),
		Metadata: datatypes.JSONMap{
			models.MetaOriginalName: in.File.Filename,
			models.MetaSize:         size,
			models.MetaMimeType:     contentType,
			models.MetaUploadedAt:   time.Now().UTC().Format(time.RFC3339),
		},
		IsFeatured: in.IsFeatured,
		SortOrder:  in.SortOrder,
		Status:     models.ImageStatusActive,
	}

	if err := s.db.WithContext(ctx).Create(img).Error; err != nil {
		if rmErr := s.storage.Remove(ctx, key, s.cfg.GalleryBucket); rmErr != nil {
			s.log.Warn("failed to remove orphaned upload", "key", key, "error", rmErr)
		}
		return nil, NewBackendError("failed to save image", err)
	}

	s.log.Info("image uploaded", "id", img.ID, "key", key, "size", size)
	return s.GetImage(ctx, img.ID)
}

// CreateImages uploads several files with bounded concurrency. A failing file
// does not abort the others.
func (s *GalleryService) CreateImages(ctx context.Context, files []UploadCandidate, shared CreateImageInput) []BatchUploadResult {
	results := make([]BatchUploadResult, len(files))

	limit := s.cfg.UploadMaxConcurrent
	if limit <= 0 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			in := shared
			in.File = file
			if strings.TrimSpace(in.Title) == "" {
				in.Title = strings.TrimSuffix(filepath.Base(file.Filename), filepath.Ext(file.Filename))
			}
			img, err := s.CreateImage(ctx, in)
			if err != nil {
				results[i] = BatchUploadResult{Filename: file.Filename, Status: "error", Error: AsAppError(err).PublicMessage()}
				return nil
			}
			results[i] = BatchUploadResult{Filename: file.Filename, Status: "success", Image: img}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// UpdateImage applies a partial update.
func (s *GalleryService) UpdateImage(ctx context.Context, id uint, in UpdateImageInput) (*ImageResponse, error) {
	if _, err := s.findImage(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Title != nil {
		title := validation.SanitizeString(*in.Title)
		if title == "" {
			return nil, NewValidationError("Title cannot be empty")
		}
		updates["title"] = title
	}
	if in.Description != nil {
		updates["description"] = validation.SanitizeString(*in.Description)
	}
	if in.ClearCategory {
		updates["category_id"] = nil
	} else if in.CategoryID != nil {
		categoryID, err := s.resolveCategoryForWrite(ctx, in.CategoryID, "")
		if err != nil {
			return nil, err
		}
		updates["category_id"] = *categoryID
	}
	if in.Tags != nil {
		tags := *in.Tags
		if tags == nil {
			tags = []string{}
		}
		updates["tags"] = datatypes.JSONSlice[string](tags)
	}
	if in.IsFeatured != nil {
		updates["is_featured"] = *in.IsFeatured
	}
	if in.SortOrder != nil {
		updates["sort_order"] = *in.SortOrder
	}
	if in.Status != nil {
		status := models.ImageStatus(strings.ToLower(strings.TrimSpace(*in.Status)))
		if !status.Valid() {
			return nil, NewValidationError("Invalid status. Must be one of: active, inactive, draft")
		}
		updates["status"] = status
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.GalleryImage{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, NewBackendError("failed to update image", err)
		}
	}
	return s.GetImage(ctx, id)
}

// SetStatus changes only the status column.
func (s *GalleryService) SetStatus(ctx context.Context, id uint, status string) (*ImageResponse, error) {
	return s.UpdateImage(ctx, id, UpdateImageInput{Status: &status})
}

// ToggleFeatured flips is_featured.
func (s *GalleryService) ToggleFeatured(ctx context.Context, id uint) (*ImageResponse, error) {
	img, err := s.findImage(ctx, id)
	if err != nil {
		return nil, err
	}
	featured := !img.IsFeatured
	return s.UpdateImage(ctx, id, UpdateImageInput{IsFeatured: &featured})
}

// DeleteImage removes the stored object first, then the row. A storage
// failure is logged and the row is still deleted.
func (s *GalleryService) DeleteImage(ctx context.Context, id uint) error {
	img, err := s.findImage(ctx, id)
	if err != nil {
		return err
	}

	if img.StorageKey != "" {
		if err := s.storage.Remove(ctx, img.StorageKey, s.cfg.GalleryBucket); err != nil {
			s.log.Warn("failed to remove stored image", "id", id, "key", img.StorageKey, "error", err)
		}
	}

	if err := s.db.WithContext(ctx).Delete(&models.GalleryImage{}, id).Error; err != nil {
		return NewBackendError("failed to delete image", err)
	}
	s.log.Info("image deleted", "id", id)
	return nil
}

// Stats summarizes the public gallery.
func (s *GalleryService) Stats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	stats := &Stats{QualityAssurance: QualityAssurance}

	if err := db.Model(&models.GalleryImage{}).Where("status = ?", models.ImageStatusActive).Count(&stats.TotalImages).Error; err != nil {
		return nil, NewBackendError("failed to count images", err)
	}
	if err := db.Model(&models.GalleryCategory{}).Count(&stats.TotalCategories).Error; err != nil {
		return nil, NewBackendError("failed to count categories", err)
	}
	if err := db.Model(&models.GalleryImage{}).
		Where("status = ? AND is_featured = ?", models.ImageStatusActive, true).
		Count(&stats.FeaturedImages).Error; err != nil {
		return nil, NewBackendError("failed to count featured images", err)
	}
	return stats, nil
}

// resolveCategoryForWrite checks an explicit id or slug. Unlike the read
// path, an unknown category on write is a user error.
func (s *GalleryService) resolveCategoryForWrite(ctx context.Context, id *uint, slug string) (*uint, error) {
	if id != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.GalleryCategory{}).Where("id = ?", *id).Count(&count).Error; err != nil {
			return nil, NewBackendError("failed to check category", err)
		}
		if count == 0 {
			return nil, NewValidationError("Category not found")
		}
		v := *id
		return &v, nil
	}

	slug = strings.TrimSpace(slug)
	if slug == "" || slug == StatusAll {
		return nil, nil
	}
	resolved, found, err := resolveCategoryID(ctx, s.db, validation.Slugify(slug))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, NewValidationError("Category not found")
	}
	return &resolved, nil
}
