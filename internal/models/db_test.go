package models

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGormLoggerWritesThroughSlog(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	NewGormLogger(log, false).Info(context.Background(), "opened %s", "gallery")

	out := buf.String()
	assert.Contains(t, out, `"component":"gorm"`)
	assert.Contains(t, out, "opened gallery")
}

func TestGormLoggerProductionOnlyErrors(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	gormLog := NewGormLogger(log, true)

	gormLog.Info(context.Background(), "opened %s", "gallery")
	assert.Empty(t, buf.String())

	gormLog.Error(context.Background(), "query failed: %s", "timeout")
	assert.Contains(t, buf.String(), "query failed: timeout")
}
