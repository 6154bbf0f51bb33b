package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/galleryhub/backend/internal/config"
	"github.com/galleryhub/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:services-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "failed to open test db")
	require.NoError(t, models.Migrate(gdb), "failed to migrate test db")

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                 "test",
		GalleryBucket:       "gallery-test",
		UploadMaxImageSize:  MaxImageSize,
		UploadMaxBatchFiles: 10,
		UploadMaxConcurrent: 1,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryStorage is an in-process ObjectStorage.
type memoryStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
	removeErr error
	removed   []string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}}
}

func (m *memoryStorage) Upload(_ context.Context, data []byte, key, bucket, _ string) (UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return UploadResult{}, NewStorageError("upload", m.uploadErr)
	}
	m.objects[bucket+"/"+key] = append([]byte(nil), data...)
	return UploadResult{StoredPath: bucket + "/" + key, PublicURL: m.PublicURL(bucket, key)}, nil
}

func (m *memoryStorage) Remove(_ context.Context, key, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, key)
	if m.removeErr != nil {
		return NewStorageError("remove", m.removeErr)
	}
	delete(m.objects, bucket+"/"+key)
	return nil
}

func (m *memoryStorage) PublicURL(bucket, key string) string {
	return "https://storage.test/" + bucket + "/" + key
}

func (m *memoryStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

var errBackendDown = errors.New("backend unavailable")

// onePixelPNG is a valid 1x1 transparent PNG.
var onePixelPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func pngCandidate(name string) UploadCandidate {
	return UploadCandidate{Data: onePixelPNG, Filename: name, ContentType: "image/png", Size: int64(len(onePixelPNG))}
}

func seedCategory(t *testing.T, db *gorm.DB, name, display string, sort int) models.GalleryCategory {
	t.Helper()
	c := models.GalleryCategory{Name: name, DisplayName: display, SortOrder: sort}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func seedImage(t *testing.T, db *gorm.DB, img models.GalleryImage) models.GalleryImage {
	t.Helper()
	if img.Title == "" {
		img.Title = "seeded"
	}
	if img.Status == "" {
		img.Status = models.ImageStatusActive
	}
	require.NoError(t, db.Create(&img).Error)
	return img
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
func strPtr(v string) *string {
	return &v
}
