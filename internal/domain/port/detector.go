package port

import (
	"context"

	"road-inspector/internal/domain/entity"
)

// ObjectDetector интерфейс внешнего детектора дефектов
type ObjectDetector interface {
	// Detect возвращает все найденные на кадре объекты без фильтрации по порогу
	Detect(ctx context.Context, frame entity.Frame) ([]entity.Detection, error)
}

// Annotator рисует рамки и подписи на копии кадра
type Annotator interface {
	// Annotate возвращает новый кадр, входной кадр не изменяется
	Annotate(frame entity.Frame, detections []entity.Detection) entity.Frame
}

// Resizer приводит кадр к рабочему разрешению
type Resizer interface {
	Resize(frame entity.Frame, width, height int) entity.Frame
}
