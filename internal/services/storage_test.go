package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/galleryhub/backend/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// s3Endpoint is a path-style S3 stand-in that records every request.
type s3Endpoint struct {
	mu     sync.Mutex
	status int
	hits   []string
}

func (e *s3Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	e.hits = append(e.hits, r.Method+" "+r.URL.EscapedPath())
	status := e.status
	e.mu.Unlock()

	if status >= http.StatusBadRequest {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`<Error><Code>InternalError</Code><Message>backend down</Message></Error>`))
		return
	}
	if r.Method == http.MethodPut {
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	}
	w.WriteHeader(status)
}

func (e *s3Endpoint) requests() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.hits...)
}

func newTestS3Storage(t *testing.T, status int, publicURL string) (*S3Storage, *s3Endpoint, *prometheus.Registry) {
	t.Helper()

	endpoint := &s3Endpoint{status: status}
	server := httptest.NewServer(endpoint)
	t.Cleanup(server.Close)

	reg := prometheus.NewRegistry()
	observer, err := NewStorageObserver(reg)
	require.NoError(t, err)

	storage, err := NewS3Storage(&config.Config{
		StorageS3Endpoint:        server.URL,
		StorageS3Region:          "us-east-1",
		StorageS3AccessKeyID:     "test",
		StorageS3SecretAccessKey: "test",
		StorageS3UsePathStyle:    true,
		StoragePublicURL:         publicURL,
	}, observer)
	require.NoError(t, err)
	return storage, endpoint, reg
}

// metricValue reads a counter from the registry; label matches any label
// value, or the unlabelled series when empty.
func metricValue(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label == "" && len(m.GetLabel()) == 0 {
				return m.GetCounter().GetValue()
			}
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestS3StorageUpload(t *testing.T) {
	storage, endpoint, reg := newTestS3Storage(t, http.StatusOK, "")
	data := []byte("\x89PNG\r\n\x1a\nimage")

	result, err := storage.Upload(context.Background(), data, "gallery/a.png", "media", "image/png")
	require.NoError(t, err)

	assert.Equal(t, "media/gallery/a.png", result.StoredPath)
	assert.Equal(t, storage.endpoint+"/media/gallery/a.png", result.PublicURL)
	assert.Equal(t, []string{"PUT /media/gallery/a.png"}, endpoint.requests())
	assert.Equal(t, float64(len(data)), metricValue(t, reg, "gallery_storage_uploaded_bytes_total", ""))
	assert.Zero(t, metricValue(t, reg, "gallery_storage_operation_errors_total", "upload"))
}

func TestS3StorageFailuresAreSingleAttempt(t *testing.T) {
	storage, endpoint, reg := newTestS3Storage(t, http.StatusInternalServerError, "")

	_, err := storage.Upload(context.Background(), []byte("data"), "a.png", "media", "image/png")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindBackend))
	assert.Contains(t, err.Error(), "storage upload failed")
	assert.Len(t, endpoint.requests(), 1)
	assert.Equal(t, float64(1), metricValue(t, reg, "gallery_storage_operation_errors_total", "upload"))

	err = storage.Remove(context.Background(), "a.png", "media")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindBackend))
	assert.Contains(t, err.Error(), "storage remove failed")
	assert.Len(t, endpoint.requests(), 2)
	assert.Equal(t, "DELETE /media/a.png", endpoint.requests()[1])
	assert.Equal(t, float64(1), metricValue(t, reg, "gallery_storage_operation_errors_total", "remove"))

	// nothing was stored
	assert.Zero(t, metricValue(t, reg, "gallery_storage_uploaded_bytes_total", ""))
}

func TestS3StorageRemove(t *testing.T) {
	storage, endpoint, reg := newTestS3Storage(t, http.StatusNoContent, "")

	require.NoError(t, storage.Remove(context.Background(), "gallery/a.png", "media"))
	assert.Equal(t, []string{"DELETE /media/gallery/a.png"}, endpoint.requests())
	assert.Zero(t, metricValue(t, reg, "gallery_storage_operation_errors_total", "remove"))
}

func TestS3StoragePublicURL(t *testing.T) {
	tests := []struct {
		name      string
		publicURL string
		endpoint  string
		region    string
		key       string
		want      string
	}{
		{
			name:      "public base wins over endpoint",
			publicURL: "https://cdn.example.com",
			endpoint:  "https://api.example.com/storage/v1/s3",
			key:       "a.png",
			want:      "https://cdn.example.com/media/a.png",
		},
		{
			name:     "endpoint when no public base",
			endpoint: "https://api.example.com/storage/v1/s3",
			key:      "a.png",
			want:     "https://api.example.com/storage/v1/s3/media/a.png",
		},
		{
			name:      "key is escaped",
			publicURL: "https://cdn.example.com",
			key:       "2024/summer trip #1.png",
			want:      "https://cdn.example.com/media/2024/summer%20trip%20%231.png",
		},
		{
			name:   "virtual-hosted fallback",
			region: "eu-central-1",
			key:    "a.png",
			want:   "https://media.s3.eu-central-1.amazonaws.com/a.png",
		},
		{
			name: "fallback region",
			key:  "a.png",
			want: "https://media.s3.us-east-1.amazonaws.com/a.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := &S3Storage{publicURL: tt.publicURL, endpoint: tt.endpoint, region: tt.region}
			assert.Equal(t, tt.want, storage.PublicURL("media", tt.key))
		})
	}
}

func TestNilStorageObserver(t *testing.T) {
	var o *StorageObserver
	assert.NotPanics(t, func() {
		o.RecordUpload(0, 10, nil)
		o.RecordRemove(0, assert.AnError)
	})
}
