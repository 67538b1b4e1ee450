package storage

import (
	"context"
	"sort"
	"sync"

	"road-inspector/internal/domain/entity"
	"road-inspector/internal/domain/port"
)

// MemorySubscriberRepository in-memory хранилище подписчиков
type MemorySubscriberRepository struct {
	mu   sync.RWMutex
	subs map[int64]*entity.Subscriber
}

// NewMemorySubscriberRepository создаёт новое in-memory хранилище
func NewMemorySubscriberRepository() *MemorySubscriberRepository {
	return &MemorySubscriberRepository{
		subs: make(map[int64]*entity.Subscriber),
	}
}

// Get возвращает подписчика по чату, создаёт нового если не найден
func (r *MemorySubscriberRepository) Get(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub, exists := r.subs[chatID]; exists {
		cp := *sub
		return &cp, nil
	}

	sub := entity.NewSubscriber(userID, chatID)
	r.subs[chatID] = sub
	cp := *sub
	return &cp, nil
}

// Save сохраняет подписчика
func (r *MemorySubscriberRepository) Save(ctx context.Context, sub *entity.Subscriber) error {
	cp := *sub
	r.mu.Lock()
	r.subs[sub.ChatID] = &cp
	r.mu.Unlock()

	return nil
}

// List возвращает подписчиков с включёнными уведомлениями, упорядоченных по чату
func (r *MemorySubscriberRepository) List(ctx context.Context) ([]entity.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.Subscriber, 0, len(r.subs))
	for _, sub := range r.subs {
		if sub.Notify {
			out = append(out, *sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out, nil
}

// Проверка реализации интерфейса
var _ port.SubscriberRepository = (*MemorySubscriberRepository)(nil)
