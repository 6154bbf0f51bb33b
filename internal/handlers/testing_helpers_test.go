package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/galleryhub/backend/internal/config"
	"github.com/galleryhub/backend/internal/models"
	"github.com/galleryhub/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testAdminKey = "test-admin-key"

// 1x1 transparent PNG
var onePixelPNG, _ = base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryStorage) Upload(_ context.Context, data []byte, key, bucket, _ string) (services.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = data
	return services.UploadResult{StoredPath: bucket + "/" + key, PublicURL: m.PublicURL(bucket, key)}, nil
}

func (m *memoryStorage) Remove(_ context.Context, key, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
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

type testServer struct {
	router  *gin.Engine
	db      *gorm.DB
	storage *memoryStorage
	cfg     *config.Config
}

func testConfig(env string) *config.Config {
	return &config.Config{
		Env:                 env,
		APIBasePath:         "/api/v1",
		GalleryBucket:       "gallery-test",
		UploadMaxImageSize:  services.MaxImageSize,
		UploadMaxBatchFiles: 5,
		UploadMaxConcurrent: 1,
		AdminAPIKey:         testAdminKey,
		AdminHeader:         "X-Admin-Key",
		RateLimitBackend:    "memory",
		RateLimitRequests:   1000,
		RateLimitDuration:   time.Minute,
		RateLimitBurst:      1000,
		AllowedOrigins:      []string{"http://localhost:3000"},
		AllowedMethods:      []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:      []string{"Origin", "Content-Type"},
		MetricsEnabled:      true,
	}
}

func newTestServer(t *testing.T, env string) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:handlers-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := testConfig(env)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	storage := &memoryStorage{objects: map[string][]byte{}}

	router, err := NewRouter(RouterDeps{
		Config:          cfg,
		Logger:          log,
		Registry:        prometheus.NewRegistry(),
		GalleryService:  services.NewGalleryService(db, cfg, storage, log),
		CategoryService: services.NewCategoryService(db),
		AdminService:    services.NewAdminService(db),
	})
	require.NoError(t, err)

	return &testServer{router: router, db: db, storage: storage, cfg: cfg}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (s *testServer) sendJSON(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

type uploadPart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...uploadPart) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func pngFile(field, name string) uploadPart {
	return uploadPart{field: field, filename: name, contentType: "image/png", data: onePixelPNG}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
	Stack   *string         `json:"stack"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func seedCategory(t *testing.T, db *gorm.DB, name, display string) models.GalleryCategory {
	t.Helper()
	c := models.GalleryCategory{Name: name, DisplayName: display}
	require.NoError(t, db.Create(&c).Error)
	return c
}
