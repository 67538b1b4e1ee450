package port

import (
	"errors"

	"road-inspector/internal/domain/entity"
)

// ErrEndOfStream кадры закончились или устройство перестало их отдавать
var ErrEndOfStream = errors.New("end of stream")

// FrameSource активный источник кадров
type FrameSource interface {
	// Read возвращает следующий кадр или ErrEndOfStream
	Read() (entity.Frame, error)

	// Kind сообщает тип источника
	Kind() entity.SourceKind

	// Close освобождает устройство или файл
	Close() error
}

// SourceOpener открывает источники кадров
type SourceOpener interface {
	OpenImage(path string) (FrameSource, error)
	OpenVideo(path string) (FrameSource, error)
	OpenCamera(index int) (FrameSource, error)
}
