//go:build !gocv
// +build !gocv

package vision

import (
	"context"

	"road-inspector/internal/domain/entity"
)

type YOLODetector struct {
	InputSize    int
	ScoreFloor   float32
	NMSThreshold float32
}

// NewYOLODetector возвращает ошибку, если сборка без тега gocv.
func NewYOLODetector(modelPath string, names []string, inputSize int, nmsThreshold float64) (*YOLODetector, error) {
	_ = modelPath
	_ = names
	_ = inputSize
	_ = nmsThreshold
	return nil, ErrGoCVDisabled
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *YOLODetector) Detect(ctx context.Context, frame entity.Frame) ([]entity.Detection, error) {
	_ = ctx
	_ = frame
	return nil, ErrGoCVDisabled
}

func (d *YOLODetector) Close() error {
	return nil
}
