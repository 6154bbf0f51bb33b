package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxImageSize is the upload ceiling (10 MiB).
const MaxImageSize int64 = 10 * 1024 * 1024

const defaultContentType = "image/jpeg"

var extensionContentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
	"svg":  "image/svg+xml",
}

var allowedContentTypes = map[string]bool{
	"image/jpeg":    true,
	"image/jpg":     true,
	"image/png":     true,
	"image/webp":    true,
	"image/gif":     true,
	"image/bmp":     true,
	"image/tiff":    true,
	"image/svg+xml": true,
}

// tif resolves to a content type but is not in the upload allow-list.
var allowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
	"gif":  true,
	"bmp":  true,
	"tiff": true,
	"svg":  true,
}

// UploadCandidate is a request-scoped file awaiting validation.
type UploadCandidate struct {
	Data        []byte
	Filename    string
	ContentType string
	Size        int64
}

// FileExtension returns the lower-cased text after the last dot, or "" when
// the name has none.
func FileExtension(filename string) string {
	name := strings.ToLower(filename)
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return name[idx+1:]
}

// ResolveContentType maps a filename to its canonical image content type.
// Unknown or missing extensions resolve to image/jpeg.
func ResolveContentType(filename string) string {
	if ct, ok := extensionContentTypes[FileExtension(filename)]; ok {
		return ct
	}
	return defaultContentType
}

// ValidateUpload accepts the candidate if either the declared content type or
// the filename extension is allowed, and its size does not exceed maxSize
// (MaxImageSize when maxSize <= 0).
func ValidateUpload(c UploadCandidate, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = MaxImageSize
	}

	declared := strings.ToLower(strings.TrimSpace(c.ContentType))
	if i := strings.Index(declared, ";"); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	ext := FileExtension(c.Filename)

	if !allowedContentTypes[declared] && !allowedExtensions[ext] {
		return NewValidationErrorf(ErrInvalidType,
			"Invalid file type. Detected type %q with extension %q; allowed types: JPEG, PNG, WebP, GIF, BMP, TIFF, SVG",
			c.ContentType, ext)
	}

	size := c.Size
	if size <= 0 {
		size = int64(len(c.Data))
	}
	if size > maxSize {
		return NewValidationErrorf(ErrTooLarge,
			"File too large: %d bytes exceeds the %d byte (%dMB) limit",
			size, maxSize, maxSize/(1024*1024))
	}
	return nil
}

// GenerateFilename builds a storage key of the form
// {prefix}_{unixMillis}_{13 random alphanumerics}.{ext}.
// No uniqueness check against storage is performed.
func GenerateFilename(original, prefix string) string {
	if prefix == "" {
		prefix = "gallery"
	}
	ext := FileExtension(original)
	if ext == "" {
		ext = "jpg"
	}
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	// skip the fixed version nibble at index 12
	random := hex[:12] + hex[13:14]
	return fmt.Sprintf("%s_%d_%s.%s", prefix, time.Now().UnixMilli(), random, ext)
}
