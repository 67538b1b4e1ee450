package entity

// SessionState состояние сессии обработки
type SessionState string

const (
	SessionIdle     SessionState = "idle"     // Источник не открыт
	SessionRunning  SessionState = "running"  // Кадры обрабатываются
	SessionStopping SessionState = "stopping" // Источник закрывается, журнал финализируется
)

// SourceKind тип источника кадров
type SourceKind string

const (
	SourceImage  SourceKind = "image"
	SourceVideo  SourceKind = "video"
	SourceCamera SourceKind = "camera"
)
