package storage

import (
	"context"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"road-inspector/internal/domain/entity"
)

func newTestEvents(t *testing.T, thumbs *ThumbnailStore, withFiles []bool) []entity.DetectionEvent {
	t.Helper()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	classes := []string{"Pothole", "Longitudinal Crack", "Alligator Crack", "Transverse Crack"}

	events := make([]entity.DetectionEvent, 0, len(withFiles))
	for i, write := range withFiles {
		ev := entity.DetectionEvent{
			Timestamp:  base.Add(time.Duration(i) * time.Second),
			DefectType: classes[i%len(classes)],
			Gps:        entity.GpsReading("<12.97,77.59>"),
		}
		ev.ThumbnailPath = thumbs.PathFor(ev.FormattedTimestamp())
		if write {
			require.NoError(t, thumbs.Write(solidFrame(64, 36, color.RGBA{G: 255, A: 255}), ev.ThumbnailPath))
		}
		events = append(events, ev)
	}
	return events
}

func TestXLSXLogStore_CreatesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp_logs", "detection_log.xlsx")
	store := NewXLSXLogStore(path, 1, nil)
	require.NoError(t, store.Init())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	require.NoError(t, err)
	require.Equal(t, [][]string{LogHeader}, rows)

	got, err := store.Rows(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestXLSXLogStore_AppendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	thumbs := NewThumbnailStore(filepath.Join(dir, "temp_logs"), 100)
	store := NewXLSXLogStore(filepath.Join(dir, "temp_logs", "detection_log.xlsx"), 1, nil)
	ctx := context.Background()

	events := newTestEvents(t, thumbs, []bool{true, false, true, true})
	events[1].Gps = entity.GpsNotAvailable
	events[1].ThumbnailPath = ""
	for _, ev := range events {
		require.NoError(t, store.Append(ctx, ev))
	}

	// Новый экземпляр читает то, что записал предыдущий.
	reloaded := NewXLSXLogStore(store.Path(), 1, nil)
	rows, err := reloaded.Rows(ctx)
	require.NoError(t, err)
	want := make([]entity.LogRow, 0, len(events))
	for _, ev := range events {
		row := ev.Row()
		row.ImagePath = filepath.ToSlash(row.ImagePath)
		want = append(want, row)
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestXLSXLogStore_FinalizeIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	thumbs := NewThumbnailStore(filepath.Join(dir, "temp_logs"), 100)
	store := NewXLSXLogStore(filepath.Join(dir, "temp_logs", "detection_log.xlsx"), 1, nil)
	ctx := context.Background()

	for _, ev := range newTestEvents(t, thumbs, []bool{true, false, true}) {
		require.NoError(t, store.Append(ctx, ev))
	}

	require.NoError(t, store.FinalizeThumbnails(ctx))
	first, err := store.Pictures()
	require.NoError(t, err)
	require.Equal(t, []int{1, 0, 1}, first, "missing thumbnail is skipped")

	require.NoError(t, store.FinalizeThumbnails(ctx))
	second, err := store.Pictures()
	require.NoError(t, err)
	require.Equal(t, first, second)

	rows, err := store.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	f, err := excelize.OpenFile(store.Path())
	require.NoError(t, err)
	defer f.Close()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	widths := make(map[string]float64)
	for _, col := range []string{"A", "B", "C", "D", "E"} {
		widths[col], err = f.GetColWidth(sheet, col)
		require.NoError(t, err)
	}
	require.Equal(t, map[string]float64{"A": 20, "B": 20, "C": 30, "D": 18, "E": 40}, widths)

	for row, want := range map[int]bool{2: true, 3: false, 4: true} {
		height, err := f.GetRowHeight(sheet, row)
		require.NoError(t, err)
		if want {
			require.Equal(t, 80.0, height, "row %d", row)
		} else {
			require.NotEqual(t, 80.0, height, "row %d has no thumbnail", row)
		}
	}
}

func TestXLSXLogStore_CanceledContext(t *testing.T) {
	store := NewXLSXLogStore(filepath.Join(t.TempDir(), "detection_log.xlsx"), 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, store.Append(ctx, entity.DetectionEvent{DefectType: "Pothole"}), context.Canceled)
	_, err := store.Rows(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NoFileExists(t, store.Path())
}

func TestXLSXLogStore_AppendAfterFinalize(t *testing.T) {
	dir := t.TempDir()
	thumbs := NewThumbnailStore(filepath.Join(dir, "temp_logs"), 100)
	store := NewXLSXLogStore(filepath.Join(dir, "temp_logs", "detection_log.xlsx"), 1, nil)
	ctx := context.Background()

	events := newTestEvents(t, thumbs, []bool{true, true})
	require.NoError(t, store.Append(ctx, events[0]))
	require.NoError(t, store.FinalizeThumbnails(ctx))
	require.NoError(t, store.Append(ctx, events[1]))
	require.NoError(t, store.FinalizeThumbnails(ctx))

	pics, err := store.Pictures()
	require.NoError(t, err)
	require.Equal(t, []int{1, 1}, pics)
}
