package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"road-inspector/config"
	telegram "road-inspector/internal/api"
	"road-inspector/internal/container"
	"road-inspector/internal/infrastructure/serialgps"
	"road-inspector/internal/infrastructure/stream"
	"road-inspector/internal/infrastructure/vision"
)

func main() {
	imagePath := flag.String("image", "", "process a single image and exit")
	videoPath := flag.String("video", "", "start processing a video file")
	camera := flag.Bool("camera", false, "start processing the camera feed")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	names, err := vision.LoadClassNames(cfg.ModelNames)
	if err != nil {
		logger.Warn("class names unavailable, using numeric ids", "path", cfg.ModelNames, "err", err)
	}

	detector, err := vision.NewYOLODetector(cfg.ModelPath, names, cfg.ModelInputSize, cfg.NMSThreshold)
	if err != nil {
		logger.Error("failed to load detection model", "path", cfg.ModelPath, "err", err)
		os.Exit(1)
	}
	defer detector.Close()

	c, err := container.New(cfg, detector, vision.Sources{}, serialgps.Opener{}, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.StreamAddr != "" {
		display := stream.NewDisplay(logger)
		c.Observers.Add(display)
		go func() {
			if err := display.Serve(ctx, cfg.StreamAddr); err != nil {
				logger.Error("display server stopped", "err", err)
			}
		}()
	}

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, c.Controls, c.Subscriptions, filepath.Join(cfg.LogDir, "incoming"), logger)
		if err != nil {
			logger.Error("failed to create bot", "err", err)
			os.Exit(1)
		}
		c.Observers.Add(bot)
		go func() {
			if err := bot.Run(ctx); err != nil {
				logger.Error("bot stopped", "err", err)
			}
		}()
	}

	done := make(chan error, 1)
	go func() { done <- c.Scheduler.Run(ctx) }()

	if cfg.SerialPort != "" {
		if err := c.Controls.Connect(ctx, cfg.SerialPort, cfg.SerialBaud); err != nil {
			logger.Warn("gps not connected", "port", cfg.SerialPort, "err", err)
		}
	}

	switch {
	case *imagePath != "":
		if err := c.Controls.OpenImage(ctx, *imagePath); err != nil {
			logger.Error("failed to process image", "path", *imagePath, "err", err)
		}
		stop()
	case *videoPath != "":
		if err := c.Controls.OpenVideo(ctx, *videoPath); err != nil {
			logger.Error("failed to open video", "path", *videoPath, "err", err)
		}
	case *camera:
		if err := c.Controls.StartCamera(ctx); err != nil {
			logger.Error("failed to open camera", "index", cfg.CameraIndex, "err", err)
		}
	}

	logger.Info("road inspector is running", "log", c.Store.Path())
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler stopped", "err", err)
	}

	c.Shutdown(context.Background())
	logger.Info("stopped")
}
