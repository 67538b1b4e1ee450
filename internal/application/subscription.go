package app

import (
	"context"

	"road-inspector/internal/domain/entity"
	"road-inspector/internal/domain/port"
)

type SubscriptionService struct {
	repo port.SubscriberRepository
}

func NewSubscriptionService(repo port.SubscriberRepository) *SubscriptionService {
	return &SubscriptionService{repo: repo}
}

func (s *SubscriptionService) Subscribe(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error) {
	return s.setNotify(ctx, userID, chatID, true)
}

func (s *SubscriptionService) Mute(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error) {
	return s.setNotify(ctx, userID, chatID, false)
}

// Recipients возвращает чаты, которым отправляются уведомления.
func (s *SubscriptionService) Recipients(ctx context.Context) ([]int64, error) {
	subs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	chats := make([]int64, 0, len(subs))
	for _, sub := range subs {
		chats = append(chats, sub.ChatID)
	}
	return chats, nil
}

func (s *SubscriptionService) setNotify(ctx context.Context, userID, chatID int64, notify bool) (*entity.Subscriber, error) {
	sub, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	if notify {
		sub.Unmute()
	} else {
		sub.Mute()
	}
	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, err
	}

	return sub, nil
}
