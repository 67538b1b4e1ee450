package port

import (
	"context"

	"road-inspector/internal/domain/entity"
)

// LogStore журнал событий, допускающий только добавление строк
type LogStore interface {
	// Append добавляет строку, создавая таблицу с заголовком при необходимости
	Append(ctx context.Context, event entity.DetectionEvent) error

	// FinalizeThumbnails встраивает миниатюры в таблицу; повторный вызов не дублирует строки
	FinalizeThumbnails(ctx context.Context) error

	// Rows перечитывает сохранённые строки
	Rows(ctx context.Context) ([]entity.LogRow, error)
}

// ThumbnailWriter сохраняет миниатюру кадра на диск
type ThumbnailWriter interface {
	// Write сохраняет миниатюру кадра по указанному пути
	Write(frame entity.Frame, path string) error

	// PathFor детерминированно выводит путь из отметки времени
	PathFor(timestamp string) string
}
