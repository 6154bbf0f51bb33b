package services

import (
	"time"

	"github.com/galleryhub/backend/internal/models"
)

// CategoryRef is the nested category shape on an image.
type CategoryRef struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// ImageResponse is the external contract for a gallery image.
type ImageResponse struct {
	ID           uint           `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	ImageURL     string         `json:"image_url"`
	ThumbnailURL string         `json:"thumbnail_url"`
	CategoryID   *uint          `json:"category_id"`
	Category     *CategoryRef   `json:"category"`
	Tags         []string       `json:"tags"`
	Metadata     map[string]any `json:"metadata"`
	IsFeatured   bool           `json:"is_featured"`
	SortOrder    int            `json:"sort_order"`
	Status       string         `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// CategoryCount is one entry of the public category listing.
type CategoryCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

const (
	allCategoryID   = "all"
	allCategoryName = "All Projects"
)

func MapImage(img models.GalleryImage) ImageResponse {
	out := ImageResponse{
		ID:           img.ID,
		Title:        img.Title,
		Description:  img.Description,
		ImageURL:     img.ImageURL,
		ThumbnailURL: img.ThumbnailURL,
		CategoryID:   img.CategoryID,
		Tags:         []string(img.Tags),
		Metadata:     map[string]any(img.Metadata),
		IsFeatured:   img.IsFeatured,
		SortOrder:    img.SortOrder,
		Status:       string(img.Status),
		CreatedAt:    img.CreatedAt,
		UpdatedAt:    img.UpdatedAt,
	}
	if img.Category != nil && img.Category.ID != 0 {
		out.Category = &CategoryRef{
			ID:          img.Category.ID,
			Name:        img.Category.Name,
			DisplayName: img.Category.DisplayName,
		}
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if out.Metadata == nil {
		out.Metadata = map[string]any{}
	}
	return out
}

func MapImages(images []models.GalleryImage) []ImageResponse {
	out := make([]ImageResponse, 0, len(images))
	for _, img := range images {
		out = append(out, MapImage(img))
	}
	return out
}

// MapCategoryCounts emits the synthetic "all" entry (sum of every category
// count) followed by one entry per category in the given order. Categories
// missing from counts get 0.
func MapCategoryCounts(categories []models.GalleryCategory, counts map[uint]int64) []CategoryCount {
	out := make([]CategoryCount, 0, len(categories)+1)
	out = append(out, CategoryCount{ID: allCategoryID, Name: allCategoryName})

	var total int64
	for _, c := range categories {
		n := counts[c.ID]
		if n < 0 {
			n = 0
		}
		total += n
		out = append(out, CategoryCount{ID: c.Name, Name: c.DisplayName, Count: n})
	}
	out[0].Count = total
	return out
}
