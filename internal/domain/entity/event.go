package entity

import (
	"strings"
	"time"
)

// TimestampLayout формат времени в журнале: "YYYY-MM-DD HH:MM:SS"
const TimestampLayout = "2006-01-02 15:04:05"

// GpsNotAvailable значение GPS, когда достоверных данных нет
const GpsNotAvailable GpsReading = "N/A"

// GpsReading строка GPS в угловых скобках либо "N/A"
type GpsReading string

// ParseGpsReading проверяет строку устройства: она должна начинаться с '<' и заканчиваться '>'.
func ParseGpsReading(line string) (GpsReading, bool) {
	line = strings.TrimSpace(line)
	if len(line) < 2 || !strings.HasPrefix(line, "<") || !strings.HasSuffix(line, ">") {
		return GpsNotAvailable, false
	}
	return GpsReading(line), true
}

func (g GpsReading) String() string {
	return string(g)
}

// DetectionEvent запись журнала о новом классе дефекта на обработанном кадре.
type DetectionEvent struct {
	Timestamp     time.Time
	DefectType    string
	Gps           GpsReading
	ThumbnailPath string // пусто, если миниатюру записать не удалось
}

// FormattedTimestamp возвращает время события в формате журнала.
func (e DetectionEvent) FormattedTimestamp() string {
	return e.Timestamp.Format(TimestampLayout)
}

// LogRow строка таблицы журнала в том виде, в котором она сохранена.
type LogRow struct {
	Timestamp  string
	DefectType string
	GpsData    string
	ImagePath  string
}

// Row проецирует событие в строку журнала.
func (e DetectionEvent) Row() LogRow {
	return LogRow{
		Timestamp:  e.FormattedTimestamp(),
		DefectType: e.DefectType,
		GpsData:    e.Gps.String(),
		ImagePath:  e.ThumbnailPath,
	}
}
