package serialgps

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"go.bug.st/serial"

	"road-inspector/internal/domain/port"
)

const maxBuffered = 4096

// TimeoutPort минимальный интерфейс порта; serial.Port ему соответствует.
type TimeoutPort interface {
	io.ReadCloser
	SetReadTimeout(t time.Duration) error
}

// Feed построчный поток GPS-модуля поверх последовательного порта.
type Feed struct {
	port  TimeoutPort
	buf   []byte
	chunk []byte
}

func NewFeed(p TimeoutPort) *Feed {
	return &Feed{port: p, chunk: make([]byte, 256)}
}

// ReadLine возвращает самую свежую полную строку, ожидая не дольше timeout.
// Неполный хвост сохраняется до следующего вызова.
func (f *Feed) ReadLine(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		if line, ok := f.latestLine(); ok {
			return line, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", port.ErrNoLine
		}
		if err := f.port.SetReadTimeout(remaining); err != nil {
			return "", fmt.Errorf("set read timeout: %w", err)
		}

		n, err := f.port.Read(f.chunk)
		if n > 0 {
			f.buf = append(f.buf, f.chunk[:n]...)
			if len(f.buf) > maxBuffered {
				f.buf = append([]byte(nil), f.buf[len(f.buf)-maxBuffered:]...)
			}
		}
		if err != nil {
			return "", err
		}
		if n == 0 {
			if line, ok := f.latestLine(); ok {
				return line, nil
			}
			return "", port.ErrNoLine
		}
	}
}

func (f *Feed) latestLine() (string, bool) {
	end := bytes.LastIndexByte(f.buf, '\n')
	if end < 0 {
		return "", false
	}
	complete := f.buf[:end]
	f.buf = append([]byte(nil), f.buf[end+1:]...)

	lines := strings.Split(string(complete), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(strings.ToValidUTF8(lines[i], ""))
		if line != "" {
			return line, true
		}
	}
	return "", false
}

func (f *Feed) Close() error {
	return f.port.Close()
}

// Opener открывает настоящие последовательные порты.
type Opener struct {
	Options PortOptions
}

func (o Opener) Open(name string, baud int) (port.GpsFeed, error) {
	opts := o.Options
	if baud > 0 {
		opts.BaudRate = baud
	}
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}
	return NewFeed(p), nil
}

// Ports перечисляет доступные последовательные порты.
func (o Opener) Ports() ([]string, error) {
	return serial.GetPortsList()
}

var (
	_ port.GpsFeed    = (*Feed)(nil)
	_ port.FeedOpener = Opener{}
)
