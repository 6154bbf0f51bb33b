package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/galleryhub/backend/internal/config"
	"github.com/galleryhub/backend/internal/services"
	"github.com/galleryhub/backend/pkg/validation"
	"github.com/gin-gonic/gin"
)

// multipart overhead allowed on top of the per-file size limit
const formOverhead = 1 << 20

type GalleryHandler struct {
	galleryService  *services.GalleryService
	categoryService *services.CategoryService
	cfg             *config.Config
}

func NewGalleryHandler(galleryService *services.GalleryService, categoryService *services.CategoryService, cfg *config.Config) *GalleryHandler {
	return &GalleryHandler{
		galleryService:  galleryService,
		categoryService: categoryService,
		cfg:             cfg,
	}
}

// GetImages lists active images
// GET /gallery/images?category=&featured=&limit=&offset=
func (h *GalleryHandler) GetImages(c *gin.Context) {
	params, err := listParams(c)
	if err != nil {
		respondError(c, err)
		return
	}
	// public listing always shows active images only
	params.Status = ""

	images, err := h.galleryService.ListImages(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    images,
		"count":   len(images),
	})
}

// GetImage returns one active image
// GET /gallery/images/:id
func (h *GalleryHandler) GetImage(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	image, err := h.galleryService.GetPublicImage(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, image)
}

// GetCategories lists categories with active image counts, "all" first
// GET /gallery/categories
func (h *GalleryHandler) GetCategories(c *gin.Context) {
	categories, err := h.categoryService.ListWithCounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, categories)
}

// GetStats returns public gallery counters
// GET /gallery/stats
func (h *GalleryHandler) GetStats(c *gin.Context) {
	stats, err := h.galleryService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, stats)
}

// UploadImage handles a single image upload
// POST /gallery/images
// Multipart form: image (or file), title (required), description, category or
// category_id, tags, is_featured, sort_order
func (h *GalleryHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.UploadMaxImageSize+formOverhead)

	header, err := formFile(c, "image", "file")
	if err != nil {
		respondError(c, err)
		return
	}

	in, err := h.imageFormInput(c)
	if err != nil {
		respondError(c, err)
		return
	}
	// a missing file is reported by the service after the title check
	if header != nil {
		if in.File, err = readCandidate(header); err != nil {
			respondError(c, err)
			return
		}
	}

	image, err := h.galleryService.CreateImage(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    image,
		"message": "Image uploaded successfully",
	})
}

// UploadImages handles a batch upload; each file gets its own result
// POST /gallery/images/batch
// Multipart form: images (multiple files) plus the shared fields of UploadImage
func (h *GalleryHandler) UploadImages(c *gin.Context) {
	maxFiles := h.cfg.UploadMaxBatchFiles
	if maxFiles <= 0 {
		maxFiles = 10
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(maxFiles)*(h.cfg.UploadMaxImageSize+formOverhead))

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, formError(err))
		return
	}
	headers := form.File["images"]
	if len(headers) == 0 {
		headers = form.File["images[]"]
	}
	if len(headers) == 0 {
		respondError(c, services.NewValidationError("At least one image file is required"))
		return
	}
	if len(headers) > maxFiles {
		respondError(c, services.NewValidationError(fmt.Sprintf("Maximum %d files per batch", maxFiles)))
		return
	}

	shared, err := h.imageFormInput(c)
	if err != nil {
		respondError(c, err)
		return
	}

	files := make([]services.UploadCandidate, 0, len(headers))
	for _, fh := range headers {
		candidate, err := readCandidate(fh)
		if err != nil {
			respondError(c, err)
			return
		}
		files = append(files, candidate)
	}

	results := h.galleryService.CreateImages(c.Request.Context(), files, shared)
	succeeded := 0
	for _, r := range results {
		if r.Status == "success" {
			succeeded++
		}
	}

	body := gin.H{
		"success": succeeded > 0,
		"data":    results,
		"message": fmt.Sprintf("%d of %d images uploaded", succeeded, len(results)),
	}
	if succeeded == 0 {
		body["error"] = "No images uploaded: " + results[0].Error
		c.JSON(http.StatusBadRequest, body)
		return
	}
	c.JSON(http.StatusCreated, body)
}

type updateImageRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	CategoryID  json.RawMessage `json:"category_id"`
	Tags        *[]string       `json:"tags"`
	IsFeatured  *bool           `json:"is_featured"`
	SortOrder   *int            `json:"sort_order"`
	Status      *string         `json:"status"`
}

// UpdateImage applies a partial update; "category_id": null clears the category
// PUT /gallery/images/:id
func (h *GalleryHandler) UpdateImage(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req updateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, services.NewValidationError("Invalid request body"))
		return
	}

	in := services.UpdateImageInput{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		IsFeatured:  req.IsFeatured,
		SortOrder:   req.SortOrder,
		Status:      req.Status,
	}
	if len(req.CategoryID) > 0 {
		if string(bytes.TrimSpace(req.CategoryID)) == "null" {
			in.ClearCategory = true
		} else {
			var categoryID uint
			if err := json.Unmarshal(req.CategoryID, &categoryID); err != nil || categoryID == 0 {
				respondError(c, services.NewValidationError("Invalid category_id"))
				return
			}
			in.CategoryID = &categoryID
		}
	}

	image, err := h.galleryService.UpdateImage(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    image,
		"message": "Image updated successfully",
	})
}

// DeleteImage removes the stored object and the row
// DELETE /gallery/images/:id
func (h *GalleryHandler) DeleteImage(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.galleryService.DeleteImage(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Image deleted successfully"})
}

// imageFormInput reads the non-file multipart fields shared by single and
// batch uploads.
func (h *GalleryHandler) imageFormInput(c *gin.Context) (services.CreateImageInput, error) {
	in := services.CreateImageInput{
		Title:        c.PostForm("title"),
		Description:  c.PostForm("description"),
		CategorySlug: c.PostForm("category"),
		Tags:         validation.ParseTags(c.PostForm("tags")),
	}

	if raw := strings.TrimSpace(c.PostForm("category_id")); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || v == 0 {
			return in, services.NewValidationError("Invalid category_id")
		}
		categoryID := uint(v)
		in.CategoryID = &categoryID
	}
	if raw := strings.TrimSpace(c.PostForm("is_featured")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return in, services.NewValidationError("Invalid is_featured")
		}
		in.IsFeatured = v
	}
	if raw := strings.TrimSpace(c.PostForm("sort_order")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return in, services.NewValidationError("Invalid sort_order")
		}
		in.SortOrder = v
	}
	return in, nil
}

// formFile returns the first present file field, or nil when none is sent.
func formFile(c *gin.Context, fields ...string) (*multipart.FileHeader, error) {
	for _, field := range fields {
		header, err := c.FormFile(field)
		if err == nil {
			return header, nil
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return nil, formError(err)
		}
	}
	return nil, nil
}

func formError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return services.NewValidationErrorf(services.ErrTooLarge, "File too large. Request exceeds %d bytes", maxErr.Limit)
	}
	return services.NewValidationError("Invalid multipart form")
}

func readCandidate(fh *multipart.FileHeader) (services.UploadCandidate, error) {
	file, err := fh.Open()
	if err != nil {
		return services.UploadCandidate{}, services.NewValidationError("Failed to read uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return services.UploadCandidate{}, services.NewValidationError("Failed to read uploaded file")
	}
	return services.UploadCandidate{
		Data:        data,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	}, nil
}
