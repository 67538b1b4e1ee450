package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"road-inspector/internal/domain/entity"
)

func TestMemorySubscriberRepository_GetCreatesAndSaves(t *testing.T) {
	repo := NewMemorySubscriberRepository()
	ctx := context.Background()

	sub, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.True(t, sub.Notify)

	sub.Mute()
	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1, "changes are not visible until saved")

	require.NoError(t, repo.Save(ctx, sub))
	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	again, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.False(t, again.Notify)
}

func TestMemoryLogStore_AppendRows(t *testing.T) {
	store := NewMemoryLogStore()
	ctx := context.Background()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)

	require.NoError(t, store.Append(ctx, entity.DetectionEvent{Timestamp: ts, DefectType: "Pothole", Gps: entity.GpsNotAvailable}))
	require.NoError(t, store.FinalizeThumbnails(ctx))

	rows, err := store.Rows(ctx)
	require.NoError(t, err)
	require.Equal(t, []entity.LogRow{{Timestamp: "2024-01-02 03:04:05", DefectType: "Pothole", GpsData: "N/A"}}, rows)
}
