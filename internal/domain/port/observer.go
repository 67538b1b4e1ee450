package port

import "road-inspector/internal/domain/entity"

// Observer получает результаты конвейера; ядро не знает о способе отображения.
// Методы вызываются из цикла обработки и не должны блокироваться.
type Observer interface {
	OnFrameReady(frame entity.Frame)
	OnDefectsUpdated(lines []string)
	OnGpsUpdated(reading entity.GpsReading)
	OnDefectLogged(event entity.DetectionEvent)
	OnStateChanged(state entity.SessionState)
}

// NopObserver пустая реализация для встраивания
type NopObserver struct{}

func (NopObserver) OnFrameReady(entity.Frame)            {}
func (NopObserver) OnDefectsUpdated([]string)            {}
func (NopObserver) OnGpsUpdated(entity.GpsReading)       {}
func (NopObserver) OnDefectLogged(entity.DetectionEvent) {}
func (NopObserver) OnStateChanged(entity.SessionState)   {}

// Observers рассылает события всем наблюдателям по порядку
type Observers []Observer

func (o Observers) OnFrameReady(frame entity.Frame) {
	for _, obs := range o {
		obs.OnFrameReady(frame)
	}
}

func (o Observers) OnDefectsUpdated(lines []string) {
	for _, obs := range o {
		obs.OnDefectsUpdated(lines)
	}
}

func (o Observers) OnGpsUpdated(reading entity.GpsReading) {
	for _, obs := range o {
		obs.OnGpsUpdated(reading)
	}
}

func (o Observers) OnDefectLogged(event entity.DetectionEvent) {
	for _, obs := range o {
		obs.OnDefectLogged(event)
	}
}

func (o Observers) OnStateChanged(state entity.SessionState) {
	for _, obs := range o {
		obs.OnStateChanged(state)
	}
}

// Hub набор наблюдателей, который пополняется до запуска цикла обработки
type Hub struct {
	observers Observers
}

// Add регистрирует наблюдателя; вызывать до запуска планировщика
func (h *Hub) Add(o Observer) {
	h.observers = append(h.observers, o)
}

func (h *Hub) OnFrameReady(frame entity.Frame)            { h.observers.OnFrameReady(frame) }
func (h *Hub) OnDefectsUpdated(lines []string)            { h.observers.OnDefectsUpdated(lines) }
func (h *Hub) OnGpsUpdated(reading entity.GpsReading)     { h.observers.OnGpsUpdated(reading) }
func (h *Hub) OnDefectLogged(event entity.DetectionEvent) { h.observers.OnDefectLogged(event) }
func (h *Hub) OnStateChanged(state entity.SessionState)   { h.observers.OnStateChanged(state) }
