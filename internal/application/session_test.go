package app

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"road-inspector/internal/domain/entity"
	"road-inspector/internal/domain/port"
	"road-inspector/internal/infrastructure/storage"
)

type fakeSource struct {
	kind   entity.SourceKind
	frames int
	read   int
	err    error
	closed bool
}

func (s *fakeSource) Read() (entity.Frame, error) {
	if s.read >= s.frames {
		if s.err != nil {
			return entity.Frame{}, s.err
		}
		return entity.Frame{}, port.ErrEndOfStream
	}
	s.read++
	return entity.NewFrame(image.NewRGBA(image.Rect(0, 0, 8, 8)), 0), nil
}

func (s *fakeSource) Kind() entity.SourceKind { return s.kind }

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeSourceOpener struct {
	sources []*fakeSource
	err     error
}

func (o *fakeSourceOpener) next(kind entity.SourceKind) (port.FrameSource, error) {
	if o.err != nil {
		return nil, o.err
	}
	src := o.sources[0]
	o.sources = o.sources[1:]
	src.kind = kind
	return src, nil
}

func (o *fakeSourceOpener) OpenImage(string) (port.FrameSource, error) {
	return o.next(entity.SourceImage)
}
func (o *fakeSourceOpener) OpenVideo(string) (port.FrameSource, error) {
	return o.next(entity.SourceVideo)
}
func (o *fakeSourceOpener) OpenCamera(int) (port.FrameSource, error) {
	return o.next(entity.SourceCamera)
}

type labelAnnotator struct {
	labels [][]string
}

func (a *labelAnnotator) Annotate(frame entity.Frame, detections []entity.Detection) entity.Frame {
	a.labels = append(a.labels, entity.Labels(detections))
	return frame.Clone()
}

type sizeRecorder struct {
	sizes []image.Point
}

func (r *sizeRecorder) Resize(frame entity.Frame, width, height int) entity.Frame {
	r.sizes = append(r.sizes, image.Pt(width, height))
	return frame
}

type sessionRecorder struct {
	port.NopObserver
	frames  int
	defects [][]string
	states  []entity.SessionState
	lastSeq int64
}

func (r *sessionRecorder) OnFrameReady(frame entity.Frame) {
	r.frames++
	r.lastSeq = frame.Seq
}

func (r *sessionRecorder) OnDefectsUpdated(lines []string) {
	r.defects = append(r.defects, lines)
}

func (r *sessionRecorder) OnStateChanged(state entity.SessionState) {
	r.states = append(r.states, state)
}

type countingStore struct {
	*storage.MemoryLogStore
	finalized int
}

func (s *countingStore) FinalizeThumbnails(ctx context.Context) error {
	s.finalized++
	return s.MemoryLogStore.FinalizeThumbnails(ctx)
}

type sessionFixture struct {
	ctrl      *SessionController
	detector  *fakeDetector
	opener    *fakeSourceOpener
	annotator *labelAnnotator
	resizer   *sizeRecorder
	store     *countingStore
	observer  *sessionRecorder
}

func newSessionFixture(detector *fakeDetector, sources ...*fakeSource) *sessionFixture {
	f := &sessionFixture{
		detector:  detector,
		opener:    &fakeSourceOpener{sources: sources},
		annotator: &labelAnnotator{},
		resizer:   &sizeRecorder{},
		store:     &countingStore{MemoryLogStore: storage.NewMemoryLogStore()},
		observer:  &sessionRecorder{},
	}
	logger := NewDetectionLogger(f.store, &fakeThumbnails{}, staticGps("<1,2>"), f.observer, nil).WithClock(fixedClock())
	f.ctrl = NewSessionController(SessionDeps{
		Opener:    f.opener,
		Engine:    NewDetectionEngine(detector, 0.5),
		Throttler: NewFrameThrottler(10),
		Annotator: f.annotator,
		Resizer:   f.resizer,
		Logger:    logger,
		Store:     f.store,
		Observer:  f.observer,
	}, SessionOptions{})
	return f
}

func TestSessionController_OpenImageLogsSingleDefect(t *testing.T) {
	detector := &fakeDetector{results: [][]entity.Detection{{det("Pothole", 0.82)}}}
	f := newSessionFixture(detector, &fakeSource{frames: 1})
	ctx := context.Background()

	require.NoError(t, f.ctrl.OpenImage(ctx, "road.jpg"))

	require.Equal(t, 1, detector.calls)
	require.Equal(t, [][]string{{"Pothole (0.82)"}}, f.annotator.labels)
	rows, err := f.store.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Pothole", rows[0].DefectType)
	require.Equal(t, "<1,2>", rows[0].GpsData)

	require.Equal(t, entity.SessionIdle, f.ctrl.State())
	require.Equal(t, []entity.SessionState{entity.SessionRunning, entity.SessionStopping, entity.SessionIdle}, f.observer.states)
	require.Equal(t, 1, f.store.finalized)
	require.Equal(t, 1, f.observer.frames)
	require.Empty(t, f.resizer.sizes, "still image keeps its native size")
}

func TestSessionController_VideoThrottlesInference(t *testing.T) {
	results := make([][]entity.Detection, 10)
	for i := range results {
		results[i] = []entity.Detection{det("Pothole", 0.9)}
	}
	// Пятый запуск детектора (кадр 50) находит новый класс.
	results[4] = []entity.Detection{det("Pothole", 0.9), det("Alligator Crack", 0.7)}
	detector := &fakeDetector{results: results}
	src := &fakeSource{frames: 100}
	f := newSessionFixture(detector, src)
	ctx := context.Background()

	require.NoError(t, f.ctrl.OpenVideo(ctx, "drive.mp4"))
	require.Equal(t, entity.SessionRunning, f.ctrl.State())

	rowsAfter := make(map[int]int)
	for i := 1; i <= 100; i++ {
		f.ctrl.Tick(ctx)
		rows, err := f.store.Rows(ctx)
		require.NoError(t, err)
		rowsAfter[i] = len(rows)
	}

	require.Equal(t, 10, detector.calls)
	require.Equal(t, 100, f.observer.frames)
	require.Len(t, f.resizer.sizes, 100)
	require.Equal(t, image.Pt(640, 360), f.resizer.sizes[0])
	require.Len(t, f.observer.defects, 10)
	require.Equal(t, 4, rowsAfter[49])
	require.Equal(t, 6, rowsAfter[50], "new class appears when its inference runs")
	require.Equal(t, 11, rowsAfter[100])

	// Следующий тик читает конец потока и завершает сессию.
	f.ctrl.Tick(ctx)
	require.Equal(t, entity.SessionIdle, f.ctrl.State())
	require.True(t, src.closed)
	require.Equal(t, 1, f.store.finalized)

	// После остановки тики ничего не делают.
	f.ctrl.Tick(ctx)
	require.Equal(t, 10, detector.calls)
}

func TestSessionController_ReusesLastAnnotatedFrame(t *testing.T) {
	detector := &fakeDetector{results: [][]entity.Detection{{det("Pothole", 0.9)}}}
	f := newSessionFixture(detector, &fakeSource{frames: 25})
	ctx := context.Background()
	require.NoError(t, f.ctrl.StartCamera(ctx))

	for i := 0; i < 9; i++ {
		f.ctrl.Tick(ctx)
		require.Equal(t, int64(i+1), f.observer.lastSeq, "raw frame shown before first inference")
	}
	_, ok := f.ctrl.LastAnnotated()
	require.False(t, ok)

	f.ctrl.Tick(ctx)
	require.Equal(t, int64(10), f.observer.lastSeq)
	for i := 0; i < 5; i++ {
		f.ctrl.Tick(ctx)
		require.Equal(t, int64(10), f.observer.lastSeq, "annotated frame reused between inferences")
	}
	last, ok := f.ctrl.LastAnnotated()
	require.True(t, ok)
	require.Equal(t, int64(10), last.Seq)
}

func TestSessionController_NewSourceStopsPrevious(t *testing.T) {
	first := &fakeSource{frames: 50}
	second := &fakeSource{frames: 50}
	f := newSessionFixture(&fakeDetector{}, first, second)
	ctx := context.Background()

	require.Empty(t, f.ctrl.SessionID())
	require.NoError(t, f.ctrl.OpenVideo(ctx, "a.mp4"))
	firstID := f.ctrl.SessionID()
	f.ctrl.Tick(ctx)
	require.NoError(t, f.ctrl.StartCamera(ctx))

	require.NotEmpty(t, firstID)
	require.NotEqual(t, firstID, f.ctrl.SessionID())

	require.True(t, first.closed)
	require.False(t, second.closed)
	require.Equal(t, entity.SessionRunning, f.ctrl.State())
	require.Equal(t, 1, f.store.finalized)
}

func TestSessionController_OpenFailureStaysIdle(t *testing.T) {
	f := newSessionFixture(&fakeDetector{})
	f.opener.err = errors.New("camera busy")

	err := f.ctrl.StartCamera(context.Background())
	require.Error(t, err)
	require.Equal(t, entity.SessionIdle, f.ctrl.State())
	require.Empty(t, f.observer.states)
}

func TestSessionController_ReadErrorStopsWithoutFailing(t *testing.T) {
	src := &fakeSource{frames: 3, err: errors.New("device lost")}
	f := newSessionFixture(&fakeDetector{}, src)
	ctx := context.Background()
	require.NoError(t, f.ctrl.StartCamera(ctx))

	for i := 0; i < 4; i++ {
		f.ctrl.Tick(ctx)
	}
	require.Equal(t, entity.SessionIdle, f.ctrl.State())
	require.True(t, src.closed)
	require.Equal(t, 3, f.observer.frames)
}

func TestSessionController_StopWhenIdleIsNoop(t *testing.T) {
	f := newSessionFixture(&fakeDetector{})
	f.ctrl.Stop(context.Background())
	require.Equal(t, 0, f.store.finalized)
	require.Empty(t, f.observer.states)

	require.NoError(t, f.ctrl.SaveToLog(context.Background()))
	require.Equal(t, 1, f.store.finalized)
}

func TestSessionController_SetThresholdClamps(t *testing.T) {
	f := newSessionFixture(&fakeDetector{})
	require.Equal(t, 0.1, f.ctrl.SetThreshold(0.01))
	require.Equal(t, 0.1, f.ctrl.Threshold())
	require.Equal(t, 0.65, f.ctrl.SetThreshold(0.66))
}
