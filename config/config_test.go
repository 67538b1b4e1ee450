package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	unsetEnv(t, "LOG_LEVEL", "FRAME_SKIP_RATE", "FRAME_INTERVAL", "GPS_INTERVAL", "GPS_READ_TIMEOUT",
		"DETECTION_THRESHOLD", "WORKING_WIDTH", "WORKING_HEIGHT", "THUMBNAIL_SIZE",
		"LOG_DIR", "LOG_FILE", "STREAM_ADDR", "TELEGRAM_TOKEN", "SERIAL_PORT")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.Equal(t, 10, cfg.FrameSkipRate)
	require.Equal(t, 500*time.Millisecond, cfg.FrameInterval)
	require.Equal(t, time.Second, cfg.GpsInterval)
	require.Equal(t, 0.5, cfg.DetectionThreshold)
	require.Equal(t, 640, cfg.WorkingWidth)
	require.Equal(t, 360, cfg.WorkingHeight)
	require.Equal(t, 100, cfg.ThumbnailSize)
	require.Equal(t, filepath.Join("temp_logs", "detection_log.xlsx"), cfg.LogPath())
	require.Equal(t, ":5000", cfg.StreamAddr)
	require.Empty(t, cfg.TelegramToken)
}

func TestLoad_Overrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("FRAME_SKIP_RATE", "5")
	t.Setenv("FRAME_INTERVAL", "40ms")
	t.Setenv("DETECTION_THRESHOLD", "0.35")
	t.Setenv("SERIAL_PORT", "/dev/ttyUSB0")
	t.Setenv("SERIAL_BAUD", "115200")
	t.Setenv("STREAM_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.Equal(t, 5, cfg.FrameSkipRate)
	require.Equal(t, 40*time.Millisecond, cfg.FrameInterval)
	require.Equal(t, 0.35, cfg.DetectionThreshold)
	require.Equal(t, "/dev/ttyUSB0", cfg.SerialPort)
	require.Equal(t, 115200, cfg.SerialBaud)
	require.Empty(t, cfg.StreamAddr)
}

func TestLoad_InvalidValues(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("FRAME_SKIP_RATE", "ten")
	_, err := Load()
	require.ErrorContains(t, err, "FRAME_SKIP_RATE")

	t.Setenv("FRAME_SKIP_RATE", "0")
	_, err = Load()
	require.ErrorContains(t, err, "FRAME_SKIP_RATE")

	t.Setenv("FRAME_SKIP_RATE", "10")
	t.Setenv("GPS_READ_TIMEOUT", "2s")
	_, err = Load()
	require.ErrorContains(t, err, "GPS_READ_TIMEOUT")
}

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
