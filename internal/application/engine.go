package app

import (
	"context"
	"errors"
	"fmt"
	"math"

	"road-inspector/internal/domain/entity"
	"road-inspector/internal/domain/port"
)

const (
	MinThreshold     = 0.1
	MaxThreshold     = 1.0
	ThresholdStep    = 0.05
	DefaultThreshold = 0.5
)

// DetectionEngine оборачивает внешний детектор и отбрасывает детекции ниже порога.
type DetectionEngine struct {
	detector  port.ObjectDetector
	threshold float64
}

// NewDetectionEngine создаёт движок; порог приводится к допустимой сетке.
func NewDetectionEngine(detector port.ObjectDetector, threshold float64) *DetectionEngine {
	return &DetectionEngine{
		detector:  detector,
		threshold: ClampThreshold(threshold),
	}
}

// Infer запускает детектор и фильтрует результат по текущему порогу.
// Порог считается предусловием и здесь не проверяется.
func (e *DetectionEngine) Infer(ctx context.Context, frame entity.Frame) ([]entity.Detection, error) {
	if e.detector == nil {
		return nil, errors.New("detector is not configured")
	}

	raw, err := e.detector.Detect(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	detections := make([]entity.Detection, 0, len(raw))
	for _, d := range raw {
		if d.Confidence < e.threshold {
			continue
		}
		detections = append(detections, d)
	}
	return detections, nil
}

// SetThreshold меняет порог; действует со следующего вызова Infer.
func (e *DetectionEngine) SetThreshold(v float64) {
	e.threshold = v
}

func (e *DetectionEngine) Threshold() float64 {
	return e.threshold
}

// ClampThreshold ограничивает значение диапазоном [0.1, 1.0] и округляет до шага 0.05.
func ClampThreshold(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultThreshold
	}
	v = math.Max(MinThreshold, math.Min(MaxThreshold, v))
	steps := math.Round(v / ThresholdStep)
	return math.Round(steps*ThresholdStep*100) / 100
}
