package container

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"road-inspector/config"
	app "road-inspector/internal/application"
	"road-inspector/internal/domain/port"
	"road-inspector/internal/infrastructure/storage"
	"road-inspector/internal/infrastructure/vision"
)

type Container struct {
	Observers     *port.Hub
	Scheduler     *app.Scheduler
	Session       *app.SessionController
	Gps           *app.GpsProvider
	Controls      *app.ControlService
	Subscriptions *app.SubscriptionService
	Store         *storage.XLSXLogStore
}

// New собирает конвейер; наблюдатели добавляются в Observers до запуска Scheduler.
func New(cfg *config.Config, detector port.ObjectDetector, sources port.SourceOpener, feeds port.FeedOpener, log *slog.Logger) (*Container, error) {
	if log == nil {
		log = slog.Default()
	}

	store := storage.NewXLSXLogStore(cfg.LogPath(), cfg.ImageScale, log)
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("init log table: %w", err)
	}
	thumbnails := storage.NewThumbnailStore(cfg.LogDir, cfg.ThumbnailSize)

	hub := &port.Hub{}
	gps := app.NewGpsProvider(feeds, cfg.GpsReadTimeout, hub, log)
	logger := app.NewDetectionLogger(store, thumbnails, gps, hub, log)

	session := app.NewSessionController(app.SessionDeps{
		Opener:    sources,
		Engine:    app.NewDetectionEngine(detector, cfg.DetectionThreshold),
		Throttler: app.NewFrameThrottler(cfg.FrameSkipRate),
		Annotator: vision.NewAnnotator(),
		Resizer:   vision.Resizer{},
		Logger:    logger,
		Store:     store,
		Observer:  hub,
		Log:       log,
	}, app.SessionOptions{
		WorkingSize: image.Pt(cfg.WorkingWidth, cfg.WorkingHeight),
		CameraIndex: cfg.CameraIndex,
	})

	// Кадры и GPS опрашиваются независимо, каждый со своим интервалом.
	sched := app.NewScheduler()
	sched.Every("frames", cfg.FrameInterval, session.Tick)
	sched.Every("gps", cfg.GpsInterval, func(context.Context) { gps.Poll() })

	return &Container{
		Observers:     hub,
		Scheduler:     sched,
		Session:       session,
		Gps:           gps,
		Controls:      app.NewControlService(sched, session, gps),
		Subscriptions: app.NewSubscriptionService(storage.NewMemorySubscriberRepository()),
		Store:         store,
	}, nil
}

// Shutdown останавливает сессию и освобождает порт; вызывать после остановки Scheduler.
func (c *Container) Shutdown(ctx context.Context) {
	c.Session.Stop(ctx)
	c.Gps.Disconnect()
}
