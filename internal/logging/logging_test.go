package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/course-platform/internal/config"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/models"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/testkit"
)

func TestMultiHandler_FansOutByLevel(t *testing.T) {
	var info, errs bytes.Buffer
	multi := NewMultiHandler(
		slog.NewJSONHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(multi).With("request_id", "req-1")

	assert.False(t, multi.Enabled(context.Background(), slog.LevelDebug))
	logger.Info("hello")
	logger.Error("boom", "error", "bad thing")

	assert.Contains(t, info.String(), `"msg":"hello"`)
	assert.Contains(t, info.String(), `"msg":"boom"`)
	assert.NotContains(t, errs.String(), "hello")
	assert.Contains(t, errs.String(), `"request_id":"req-1"`)
}

func TestPGHandler_StoresErrorRecords(t *testing.T) {
	db := testkit.NewDB(t)
	h := NewPGHandler(db)
	logger := slog.New(h).With("request_id", "req-42")

	assert.False(t, h.Enabled(context.Background(), slog.LevelWarn))
	logger.Info("not stored")
	logger.Error("exchange failed",
		"user_id", "u-1", "provider", "kakao", "method", "GET", "path", "/api/auth/kakao/callback",
		"error", "upstream 500", "attempt", 2)
	h.Stop()

	var logs []models.SystemLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)

	got := logs[0]
	assert.Equal(t, "ERROR", got.Level)
	assert.Equal(t, "exchange failed", got.Message)
	assert.Equal(t, "req-42", got.RequestID)
	require.NotNil(t, got.UserID)
	assert.Equal(t, "u-1", *got.UserID)
	assert.Equal(t, "kakao", got.Provider)
	assert.Equal(t, "GET", got.Method)
	assert.Equal(t, "/api/auth/kakao/callback", got.Path)
	assert.Equal(t, "upstream 500", got.Error)

	var extra map[string]interface{}
	require.NoError(t, json.Unmarshal(got.Extra, &extra))
	assert.EqualValues(t, 2, extra["attempt"])
}

// failingHandler accepts every record and fails to write it.
type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestMultiHandler_FailingHandlerDoesNotSuppressOthers(t *testing.T) {
	var out bytes.Buffer
	multi := NewMultiHandler(
		failingHandler{},
		slog.NewJSONHandler(&out, nil),
		failingHandler{},
	)

	record := slog.NewRecord(time.Now(), slog.LevelError, "still delivered", 0)
	err := multi.Handle(context.Background(), record)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink down")
	assert.Len(t, err.(interface{ Unwrap() []error }).Unwrap(), 2)
	assert.Contains(t, out.String(), `"msg":"still delivered"`)
}

func TestPGHandler_DropsRecordsAfterStop(t *testing.T) {
	db := testkit.NewDB(t)
	h := NewPGHandler(db)
	h.Stop()

	assert.False(t, h.Enabled(context.Background(), slog.LevelError))
	record := slog.NewRecord(time.Now(), slog.LevelError, "database close error", 0)
	require.NoError(t, h.Handle(context.Background(), record))

	h.mu.Lock()
	buffered := len(h.buffer)
	h.mu.Unlock()
	assert.Zero(t, buffered)

	var n int64
	require.NoError(t, db.Model(&models.SystemLog{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestPGHandler_StopIsIdempotent(t *testing.T) {
	h := NewPGHandler(testkit.NewDB(t))
	h.Stop()
	h.Stop()
}

func TestPurgeBefore(t *testing.T) {
	db := testkit.NewDB(t)
	now := time.Now().UTC()
	old := models.SystemLog{ID: uuid.New(), Timestamp: now.Add(-40 * 24 * time.Hour), Level: "ERROR", Message: "old"}
	fresh := models.SystemLog{ID: uuid.New(), Timestamp: now.Add(-time.Hour), Level: "ERROR", Message: "fresh"}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&fresh).Error)

	deleted, err := purgeBefore(db, now.Add(-logRetention))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var left []models.SystemLog
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "fresh", left[0].Message)
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, levelFor(config.EnvDevelopment))
	assert.Equal(t, slog.LevelInfo, levelFor(config.EnvProduction))
}
