package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hybridgroup/mjpeg"

	"road-inspector/internal/domain/entity"
	"road-inspector/internal/domain/port"
)

const streamQuality = 80

// Display отдаёт аннотированные кадры как MJPEG и текущий список дефектов как текст.
type Display struct {
	stream *mjpeg.Stream
	events *Events
	log    *slog.Logger

	mu      sync.RWMutex
	defects []string
	gps     entity.GpsReading
	state   entity.SessionState
	frames  int64
}

func NewDisplay(log *slog.Logger) *Display {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "display")
	return &Display{
		stream: mjpeg.NewStream(),
		events: NewEvents(log),
		log:    log,
		gps:    entity.GpsNotAvailable,
		state:  entity.SessionIdle,
	}
}

func (d *Display) OnFrameReady(frame entity.Frame) {
	if frame.Empty() {
		return
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame.Image, &jpeg.Options{Quality: streamQuality}); err != nil {
		d.log.Warn("encode frame", "err", err)
		return
	}
	d.stream.UpdateJPEG(buf.Bytes())

	d.mu.Lock()
	d.frames++
	d.mu.Unlock()
}

func (d *Display) OnDefectsUpdated(lines []string) {
	d.mu.Lock()
	d.defects = append([]string(nil), lines...)
	d.mu.Unlock()
	d.events.Publish(Update{Type: "defects", Defects: lines})
}

func (d *Display) OnGpsUpdated(reading entity.GpsReading) {
	d.mu.Lock()
	d.gps = reading
	d.mu.Unlock()
	d.events.Publish(Update{Type: "gps", Gps: reading.String()})
}

func (d *Display) OnDefectLogged(event entity.DetectionEvent) {
	d.events.Publish(Update{
		Type:   "logged",
		Defect: event.DefectType,
		Gps:    event.Gps.String(),
		Time:   event.FormattedTimestamp(),
	})
}

func (d *Display) OnStateChanged(state entity.SessionState) {
	d.mu.Lock()
	d.state = state
	d.mu.Unlock()
	d.events.Publish(Update{Type: "state", State: string(state)})
}

// Text повторяет текстовую панель: состояние, GPS и список дефектов последнего кадра.
func (d *Display) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "State: %s\n", d.state)
	fmt.Fprintf(&b, "Frames: %d\n", d.frames)
	fmt.Fprintf(&b, "GPS: %s\n", d.gps)
	b.WriteString("Detected Defects:\n")
	for _, line := range d.defects {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// Handler маршруты: "/" страница, "/video_feed" MJPEG, "/defects" текст, "/ws" обновления.
func (d *Display) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<h2>Road Inspector</h2><img src="/video_feed"><pre id="defects"></pre>`+
			`<script>setInterval(()=>fetch('/defects').then(r=>r.text()).then(t=>defects.textContent=t),1000)</script>`)
	})
	mux.Handle("/video_feed", d.stream)
	mux.HandleFunc("/defects", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, d.Text())
	})
	mux.Handle("/ws", d.events)
	return mux
}

// Serve запускает HTTP-сервер и останавливает его при отмене ctx.
func (d *Display) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           d.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		d.log.Info("display stream listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

var _ port.Observer = (*Display)(nil)
