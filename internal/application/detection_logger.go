package app

import (
	"context"
	"log/slog"
	"time"

	"road-inspector/internal/domain/entity"
	"road-inspector/internal/domain/port"
)

// GpsSource источник последнего GPS-показания
type GpsSource interface {
	Latest() entity.GpsReading
}

// DetectionLogger создаёт не более одного события на класс дефекта в пределах кадра.
type DetectionLogger struct {
	store      port.LogStore
	thumbnails port.ThumbnailWriter
	gps        GpsSource
	observer   port.Observer
	now        func() time.Time
	log        *slog.Logger
}

// NewDetectionLogger собирает логгер событий.
func NewDetectionLogger(store port.LogStore, thumbnails port.ThumbnailWriter, gps GpsSource, observer port.Observer, log *slog.Logger) *DetectionLogger {
	if observer == nil {
		observer = port.NopObserver{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &DetectionLogger{
		store:      store,
		thumbnails: thumbnails,
		gps:        gps,
		observer:   observer,
		now:        time.Now,
		log:        log.With("component", "detection_logger"),
	}
}

// WithClock подменяет источник времени.
func (l *DetectionLogger) WithClock(now func() time.Time) *DetectionLogger {
	l.now = now
	return l
}

// Process пишет события для новых классов на аннотированном кадре в порядке детекций.
// Ошибка записи миниатюры или строки журнала не прерывает обработку.
func (l *DetectionLogger) Process(ctx context.Context, annotated entity.Frame, detections []entity.Detection) []entity.DetectionEvent {
	seen := make(map[string]struct{}, len(detections))
	events := make([]entity.DetectionEvent, 0, len(detections))

	for _, d := range detections {
		if _, ok := seen[d.ClassName]; ok {
			continue
		}
		seen[d.ClassName] = struct{}{}

		ts := l.now().Truncate(time.Second)
		event := entity.DetectionEvent{
			Timestamp:  ts,
			DefectType: d.ClassName,
			Gps:        l.latestGps(),
		}

		if l.thumbnails != nil {
			path := l.thumbnails.PathFor(event.FormattedTimestamp())
			if err := l.thumbnails.Write(annotated, path); err != nil {
				l.log.Warn("thumbnail not written", "path", path, "defect", d.ClassName, "err", err)
			} else {
				event.ThumbnailPath = path
			}
		}

		if l.store != nil {
			if err := l.store.Append(ctx, event); err != nil {
				l.log.Warn("append log row", "defect", d.ClassName, "err", err)
			}
		}

		l.log.Info("defect logged", "defect", event.DefectType, "gps", event.Gps.String(), "thumbnail", event.ThumbnailPath)
		l.observer.OnDefectLogged(event)
		events = append(events, event)
	}

	return events
}

func (l *DetectionLogger) latestGps() entity.GpsReading {
	if l.gps == nil {
		return entity.GpsNotAvailable
	}
	return l.gps.Latest()
}
