package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"road-inspector/internal/infrastructure/storage"
)

func TestSubscriptionService_SubscribeAndMute(t *testing.T) {
	repo := storage.NewMemorySubscriberRepository()
	svc := NewSubscriptionService(repo)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, 1, 10)
	require.NoError(t, err)
	require.True(t, sub.Notify)

	_, err = svc.Subscribe(ctx, 2, 20)
	require.NoError(t, err)

	chats, err := svc.Recipients(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{10, 20}, chats)

	sub, err = svc.Mute(ctx, 1, 10)
	require.NoError(t, err)
	require.False(t, sub.Notify)

	chats, err = svc.Recipients(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{20}, chats)
}
