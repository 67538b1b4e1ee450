package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/google/uuid"

	"road-inspector/internal/domain/entity"
	"road-inspector/internal/domain/port"
)

// SessionOptions параметры сессии обработки
type SessionOptions struct {
	WorkingSize image.Point // рабочее разрешение кадра, по умолчанию 640x360
	CameraIndex int
}

// SessionController управляет источником кадров и связывает шаги конвейера.
// Все методы вызываются из одной горутины планировщика.
type SessionController struct {
	opener    port.SourceOpener
	engine    *DetectionEngine
	throttler *FrameThrottler
	annotator port.Annotator
	resizer   port.Resizer
	logger    *DetectionLogger
	store     port.LogStore
	observer  port.Observer
	opts      SessionOptions
	log       *slog.Logger

	state         entity.SessionState
	id            string
	source        port.FrameSource
	seq           int64
	lastAnnotated *entity.Frame
}

// SessionDeps зависимости контроллера сессии
type SessionDeps struct {
	Opener    port.SourceOpener
	Engine    *DetectionEngine
	Throttler *FrameThrottler
	Annotator port.Annotator
	Resizer   port.Resizer
	Logger    *DetectionLogger
	Store     port.LogStore
	Observer  port.Observer
	Log       *slog.Logger
}

func NewSessionController(deps SessionDeps, opts SessionOptions) *SessionController {
	if opts.WorkingSize == (image.Point{}) {
		opts.WorkingSize = image.Pt(640, 360)
	}
	if deps.Throttler == nil {
		deps.Throttler = NewFrameThrottler(DefaultSkipRate)
	}
	if deps.Observer == nil {
		deps.Observer = port.NopObserver{}
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	return &SessionController{
		opener:    deps.Opener,
		engine:    deps.Engine,
		throttler: deps.Throttler,
		annotator: deps.Annotator,
		resizer:   deps.Resizer,
		logger:    deps.Logger,
		store:     deps.Store,
		observer:  deps.Observer,
		opts:      opts,
		log:       deps.Log.With("component", "session"),
		state:     entity.SessionIdle,
	}
}

func (c *SessionController) State() entity.SessionState {
	return c.state
}

// SessionID идентификатор последней запущенной сессии; пусто до первого запуска.
func (c *SessionController) SessionID() string {
	return c.id
}

// OpenImage обрабатывает одиночное изображение без пропуска кадров и завершает сессию.
func (c *SessionController) OpenImage(ctx context.Context, path string) error {
	if err := c.start(ctx, func() (port.FrameSource, error) { return c.opener.OpenImage(path) }); err != nil {
		return err
	}
	c.step(ctx, true)
	c.Stop(ctx)
	return nil
}

// OpenVideo запускает обработку видеофайла.
func (c *SessionController) OpenVideo(ctx context.Context, path string) error {
	return c.start(ctx, func() (port.FrameSource, error) { return c.opener.OpenVideo(path) })
}

// StartCamera запускает обработку камеры.
func (c *SessionController) StartCamera(ctx context.Context) error {
	return c.start(ctx, func() (port.FrameSource, error) { return c.opener.OpenCamera(c.opts.CameraIndex) })
}

func (c *SessionController) start(ctx context.Context, open func() (port.FrameSource, error)) error {
	if c.opener == nil {
		return errors.New("source opener is not configured")
	}
	// Одновременно активен только один источник.
	c.Stop(ctx)

	src, err := open()
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}

	c.source = src
	c.id = uuid.NewString()
	c.seq = 0
	c.lastAnnotated = nil
	c.throttler.Reset()
	c.log.Info("session started", "session", c.id, "source", src.Kind())
	c.setState(entity.SessionRunning)
	return nil
}

// Tick обрабатывает один кадр активного источника.
func (c *SessionController) Tick(ctx context.Context) {
	if c.state != entity.SessionRunning || c.source == nil {
		return
	}
	c.step(ctx, false)
}

func (c *SessionController) step(ctx context.Context, force bool) {
	frame, err := c.source.Read()
	if err != nil {
		if errors.Is(err, port.ErrEndOfStream) {
			c.log.Info("source finished", "session", c.id, "frames", c.seq)
		} else {
			c.log.Warn("frame read failed, stopping session", "session", c.id, "err", err)
		}
		c.Stop(ctx)
		return
	}

	c.seq++
	frame.Seq = c.seq
	// Одиночное изображение обрабатывается и показывается в исходном размере.
	if c.resizer != nil && c.source.Kind() != entity.SourceImage {
		frame = c.resizer.Resize(frame, c.opts.WorkingSize.X, c.opts.WorkingSize.Y)
	}

	if force || c.throttler.ShouldRunInference() {
		c.process(ctx, frame)
	}

	display := frame
	if c.lastAnnotated != nil {
		display = *c.lastAnnotated
	}
	c.observer.OnFrameReady(display)
}

func (c *SessionController) process(ctx context.Context, frame entity.Frame) {
	detections, err := c.engine.Infer(ctx, frame)
	if err != nil {
		c.log.Warn("inference failed", "frame", frame.Seq, "err", err)
		return
	}

	annotated := frame
	if c.annotator != nil {
		annotated = c.annotator.Annotate(frame, detections)
	}
	c.lastAnnotated = &annotated
	c.observer.OnDefectsUpdated(entity.Labels(detections))

	if c.logger != nil {
		c.logger.Process(ctx, annotated, detections)
	}
}

// Stop закрывает источник и финализирует журнал; в состоянии Idle ничего не делает.
func (c *SessionController) Stop(ctx context.Context) {
	if c.state != entity.SessionRunning {
		return
	}
	c.setState(entity.SessionStopping)

	if c.source != nil {
		if err := c.source.Close(); err != nil {
			c.log.Warn("close source", "err", err)
		}
		c.source = nil
	}

	if err := c.SaveToLog(ctx); err != nil {
		c.log.Warn("finalize thumbnails", "err", err)
	}
	c.setState(entity.SessionIdle)
}

// SaveToLog встраивает сохранённые миниатюры в таблицу журнала.
func (c *SessionController) SaveToLog(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	return c.store.FinalizeThumbnails(ctx)
}

// SetThreshold ограничивает значение допустимой сеткой и передаёт движку.
func (c *SessionController) SetThreshold(v float64) float64 {
	v = ClampThreshold(v)
	c.engine.SetThreshold(v)
	return v
}

func (c *SessionController) Threshold() float64 {
	return c.engine.Threshold()
}

// LastAnnotated возвращает последний аннотированный кадр, если он есть.
func (c *SessionController) LastAnnotated() (entity.Frame, bool) {
	if c.lastAnnotated == nil {
		return entity.Frame{}, false
	}
	return *c.lastAnnotated, true
}

func (c *SessionController) setState(state entity.SessionState) {
	if c.state == state {
		return
	}
	c.state = state
	c.observer.OnStateChanged(state)
}
