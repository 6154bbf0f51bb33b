package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/galleryhub/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminService    *services.AdminService
	galleryService  *services.GalleryService
	categoryService *services.CategoryService
}

func NewAdminHandler(adminService *services.AdminService, galleryService *services.GalleryService, categoryService *services.CategoryService) *AdminHandler {
	return &AdminHandler{
		adminService:    adminService,
		galleryService:  galleryService,
		categoryService: categoryService,
	}
}

// GetDashboard returns image/category counters and the latest uploads
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.adminService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, dashboard)
}

// GetImages lists images in any status with pagination
// GET /admin/images?status=&category=&featured=&limit=&offset=
func (h *AdminHandler) GetImages(c *gin.Context) {
	params, err := listParams(c)
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.adminService.ListImages(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    page.Images,
		"count":   len(page.Images),
		"pagination": gin.H{
			"total":  page.Total,
			"limit":  page.Limit,
			"offset": page.Offset,
		},
	})
}

// GetImage returns an image regardless of status
func (h *AdminHandler) GetImage(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	image, err := h.galleryService.GetImage(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, image)
}

// UpdateImageStatus sets active/inactive/draft
// PATCH /admin/images/:id/status {"status": "..."}
func (h *AdminHandler) UpdateImageStatus(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, services.NewValidationError("Status is required"))
		return
	}

	image, err := h.galleryService.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    image,
		"message": "Image status updated",
	})
}

// ToggleFeatured flips is_featured, or sets it when the body carries a value
// PATCH /admin/images/:id/featured
func (h *AdminHandler) ToggleFeatured(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		IsFeatured *bool `json:"is_featured"`
	}
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(c, services.NewValidationError("Invalid request body"))
			return
		}
	}

	var image *services.ImageResponse
	if req.IsFeatured != nil {
		image, err = h.galleryService.UpdateImage(c.Request.Context(), id, services.UpdateImageInput{IsFeatured: req.IsFeatured})
	} else {
		image, err = h.galleryService.ToggleFeatured(c.Request.Context(), id)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    image,
		"message": "Image featured flag updated",
	})
}

// GetCategories lists the full category records for management
func (h *AdminHandler) GetCategories(c *gin.Context) {
	categories, err := h.categoryService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    categories,
		"count":   len(categories),
	})
}

type categoryRequest struct {
	Name        *string `json:"name"`
	DisplayName *string `json:"display_name"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sort_order"`
}

func (r categoryRequest) input() services.CategoryInput {
	return services.CategoryInput{
		Name:        r.Name,
		DisplayName: r.DisplayName,
		Description: r.Description,
		SortOrder:   r.SortOrder,
	}
}

// CreateCategory adds a category
// POST /admin/categories
func (h *AdminHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, services.NewValidationError("Invalid request body"))
		return
	}
	category, err := h.categoryService.Create(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    category,
		"message": "Category created successfully",
	})
}

// UpdateCategory applies a partial update
// PUT /admin/categories/:id
func (h *AdminHandler) UpdateCategory(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, services.NewValidationError("Invalid request body"))
		return
	}
	category, err := h.categoryService.Update(c.Request.Context(), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    category,
		"message": "Category updated successfully",
	})
}

// DeleteCategory removes a category no image is assigned to
// DELETE /admin/categories/:id
func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.categoryService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Category deleted successfully"})
}

// GetStorageUsage sums recorded file sizes across all images
func (h *AdminHandler) GetStorageUsage(c *gin.Context) {
	usage, err := h.adminService.StorageUsage(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, usage)
}
