package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"road-inspector/internal/domain/entity"
	"road-inspector/internal/domain/port"
)

// DefaultGpsReadTimeout ограничение одного чтения строки из порта
const DefaultGpsReadTimeout = 100 * time.Millisecond

var ErrNotConnected = errors.New("gps device is not connected")

// GpsProvider хранит последнее валидное показание внешнего устройства.
type GpsProvider struct {
	opener      port.FeedOpener
	feed        port.GpsFeed
	readTimeout time.Duration
	latest      entity.GpsReading
	observer    port.Observer
	log         *slog.Logger
}

// NewGpsProvider создаёт провайдера без подключённого устройства.
func NewGpsProvider(opener port.FeedOpener, readTimeout time.Duration, observer port.Observer, log *slog.Logger) *GpsProvider {
	if readTimeout <= 0 {
		readTimeout = DefaultGpsReadTimeout
	}
	if observer == nil {
		observer = port.NopObserver{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &GpsProvider{
		opener:      opener,
		readTimeout: readTimeout,
		latest:      entity.GpsNotAvailable,
		observer:    observer,
		log:         log.With("component", "gps"),
	}
}

// Connect открывает порт; уже открытое устройство сначала закрывается.
func (p *GpsProvider) Connect(portName string, baud int) error {
	if p.opener == nil {
		return errors.New("gps feed opener is not configured")
	}
	p.Disconnect()

	feed, err := p.opener.Open(portName, baud)
	if err != nil {
		return fmt.Errorf("open %s at %d baud: %w", portName, baud, err)
	}
	p.feed = feed
	p.log.Info("serial port connected", "port", portName, "baud", baud)
	return nil
}

// Disconnect закрывает устройство и сбрасывает показание в "N/A".
func (p *GpsProvider) Disconnect() {
	if p.feed == nil {
		return
	}
	if err := p.feed.Close(); err != nil {
		p.log.Warn("close serial port", "err", err)
	}
	p.feed = nil
	p.set(entity.GpsNotAvailable)
	p.log.Info("serial port disconnected")
}

func (p *GpsProvider) Connected() bool {
	return p.feed != nil
}

// Poll читает одну строку не дольше readTimeout.
// Таймаут оставляет прежнее показание, строки без '<' игнорируются,
// обрезанная строка в скобках или ошибка устройства сбрасывают показание в "N/A".
func (p *GpsProvider) Poll() {
	if p.feed == nil {
		return
	}

	line, err := p.feed.ReadLine(p.readTimeout)
	switch {
	case errors.Is(err, port.ErrNoLine):
		return
	case err != nil:
		p.log.Warn("read gps line", "err", err)
		p.set(entity.GpsNotAvailable)
		return
	}

	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "<") {
		return
	}
	reading, ok := entity.ParseGpsReading(line)
	if !ok {
		p.log.Warn("malformed gps reading", "line", line)
	}
	p.set(reading)
}

// Latest возвращает последнее известное показание.
func (p *GpsProvider) Latest() entity.GpsReading {
	return p.latest
}

// Ports перечисляет доступные последовательные порты.
func (p *GpsProvider) Ports() ([]string, error) {
	if p.opener == nil {
		return nil, nil
	}
	return p.opener.Ports()
}

func (p *GpsProvider) set(reading entity.GpsReading) {
	if reading == p.latest {
		return
	}
	p.latest = reading
	p.observer.OnGpsUpdated(reading)
}
