package bootstrap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, 900*time.Second, cfg.UploadPresignTTL)
	assert.Equal(t, 30, cfg.TombstoneRetentionDays)
	assert.Equal(t, 24, cfg.GcRetentionGraceHours)
	assert.Equal(t, 200, cfg.GcBatchSize)
	assert.Equal(t, 100, cfg.WorkerBatchSize)
	assert.Equal(t, 5, cfg.SearchJobMaxAttempts)
}

func TestLoadConfigClampsOutOfRangeValues(t *testing.T) {
	t.Setenv("UPLOAD_PRESIGN_TTL_SECONDS", "10")
	t.Setenv("TOMBSTONE_RETENTION_DAYS", "99999")
	t.Setenv("GC_BATCH_SIZE", "0")

	cfg := LoadConfig()

	assert.Equal(t, 60*time.Second, cfg.UploadPresignTTL, "below the 60s floor clamps up")
	assert.Equal(t, 3650, cfg.TombstoneRetentionDays, "above the 3650-day ceiling clamps down")
	assert.Equal(t, 1, cfg.GcBatchSize, "below the 1-item floor clamps up")
}

func TestLoadConfigFallsBackOnUnparsableValues(t *testing.T) {
	t.Setenv("GC_BATCH_SIZE", "not-a-number")
	t.Setenv("ENABLE_TELEMETRY", "not-a-bool")

	cfg := LoadConfig()

	assert.Equal(t, 200, cfg.GcBatchSize)
	assert.False(t, cfg.EnableTelemetry)
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 5, clampInt(5, 1, 10))
	assert.Equal(t, 1, clampInt(-3, 1, 10))
	assert.Equal(t, 10, clampInt(99, 1, 10))
}
