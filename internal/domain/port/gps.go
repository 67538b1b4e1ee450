package port

import (
	"errors"
	"time"
)

// ErrNoLine за отведённое время полная строка не пришла
var ErrNoLine = errors.New("no complete line within timeout")

// GpsFeed построчный поток внешнего устройства
type GpsFeed interface {
	// ReadLine читает одну строку, ожидая не дольше timeout
	ReadLine(timeout time.Duration) (string, error)

	// Close закрывает устройство
	Close() error
}

// FeedOpener подключает устройство по имени порта и скорости
type FeedOpener interface {
	Open(port string, baud int) (GpsFeed, error)
	Ports() ([]string, error)
}
