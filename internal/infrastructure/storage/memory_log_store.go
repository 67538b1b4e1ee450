package storage

import (
	"context"
	"sync"

	"road-inspector/internal/domain/entity"
	"road-inspector/internal/domain/port"
)

// MemoryLogStore журнал в памяти, используется без файловой таблицы
type MemoryLogStore struct {
	mu   sync.RWMutex
	rows []entity.LogRow
}

func NewMemoryLogStore() *MemoryLogStore {
	return &MemoryLogStore{}
}

// Append добавляет строку в конец журнала
func (s *MemoryLogStore) Append(ctx context.Context, event entity.DetectionEvent) error {
	s.mu.Lock()
	s.rows = append(s.rows, event.Row())
	s.mu.Unlock()
	return nil
}

// FinalizeThumbnails ничего не делает: встраивать изображения некуда
func (s *MemoryLogStore) FinalizeThumbnails(ctx context.Context) error {
	return nil
}

// Rows возвращает копию всех строк
func (s *MemoryLogStore) Rows(ctx context.Context) ([]entity.LogRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.LogRow(nil), s.rows...), nil
}

var _ port.LogStore = (*MemoryLogStore)(nil)
