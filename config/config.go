package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel slog.Level

	ModelPath      string
	ModelNames     string
	ModelInputSize int
	NMSThreshold   float64

	DetectionThreshold float64
	FrameSkipRate      int
	FrameInterval      time.Duration
	GpsInterval        time.Duration
	GpsReadTimeout     time.Duration
	WorkingWidth       int
	WorkingHeight      int

	LogDir        string
	LogFile       string
	ThumbnailSize int
	ImageScale    float64

	CameraIndex int
	SerialPort  string
	SerialBaud  int

	StreamAddr    string
	TelegramToken string
}

// LogPath полный путь к таблице журнала.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogDir, c.LogFile)
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	p := &parser{}
	cfg := &Config{
		LogLevel: p.level("LOG_LEVEL", slog.LevelInfo),

		ModelPath:      p.str("MODEL_PATH", "models/best.onnx"),
		ModelNames:     p.str("MODEL_NAMES", "models/names.txt"),
		ModelInputSize: p.integer("MODEL_INPUT_SIZE", 640),
		NMSThreshold:   p.float("NMS_THRESHOLD", 0.45),

		DetectionThreshold: p.float("DETECTION_THRESHOLD", 0.5),
		FrameSkipRate:      p.integer("FRAME_SKIP_RATE", 10),
		FrameInterval:      p.duration("FRAME_INTERVAL", 500*time.Millisecond),
		GpsInterval:        p.duration("GPS_INTERVAL", time.Second),
		GpsReadTimeout:     p.duration("GPS_READ_TIMEOUT", 100*time.Millisecond),
		WorkingWidth:       p.integer("WORKING_WIDTH", 640),
		WorkingHeight:      p.integer("WORKING_HEIGHT", 360),

		LogDir:        p.str("LOG_DIR", "temp_logs"),
		LogFile:       p.str("LOG_FILE", "detection_log.xlsx"),
		ThumbnailSize: p.integer("THUMBNAIL_SIZE", 100),
		ImageScale:    p.float("IMAGE_SCALE", 1),

		CameraIndex: p.integer("CAMERA_INDEX", 0),
		SerialPort:  p.str("SERIAL_PORT", ""),
		SerialBaud:  p.integer("SERIAL_BAUD", 9600),

		StreamAddr:    p.str("STREAM_ADDR", ":5000"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.FrameSkipRate < 1:
		return fmt.Errorf("FRAME_SKIP_RATE must be positive, got %d", c.FrameSkipRate)
	case c.FrameInterval <= 0 || c.GpsInterval <= 0:
		return fmt.Errorf("FRAME_INTERVAL and GPS_INTERVAL must be positive")
	case c.GpsReadTimeout <= 0 || c.GpsReadTimeout >= c.GpsInterval:
		return fmt.Errorf("GPS_READ_TIMEOUT must be positive and shorter than GPS_INTERVAL")
	case c.WorkingWidth <= 0 || c.WorkingHeight <= 0:
		return fmt.Errorf("working resolution must be positive, got %dx%d", c.WorkingWidth, c.WorkingHeight)
	case c.ThumbnailSize <= 0:
		return fmt.Errorf("THUMBNAIL_SIZE must be positive, got %d", c.ThumbnailSize)
	case c.LogFile == "":
		return fmt.Errorf("LOG_FILE is required")
	}
	return nil
}

// parser запоминает первую ошибку разбора переменных окружения.
type parser struct {
	err error
}

func (p *parser) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) float(key string, def float64) float64 {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) level(key string, def slog.Level) slog.Level {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		p.fail(key, raw, err)
		return def
	}
	return lvl
}

func (p *parser) fail(key, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
}
