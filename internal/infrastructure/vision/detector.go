//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"road-inspector/internal/domain/entity"
	"road-inspector/internal/domain/port"
)

// YOLODetector запускает ONNX-модель YOLOv8 через модуль dnn OpenCV.
type YOLODetector struct {
	net          gocv.Net
	names        []string
	InputSize    int
	ScoreFloor   float32 // кандидаты ниже отбрасываются до NMS
	NMSThreshold float32
}

// NewYOLODetector загружает модель; ошибка означает, что детектор недоступен.
func NewYOLODetector(modelPath string, names []string, inputSize int, nmsThreshold float64) (*YOLODetector, error) {
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", modelPath)
	}
	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, errors.New("failed to set preferable backend or target")
	}

	if inputSize <= 0 {
		inputSize = 640
	}
	return &YOLODetector{
		net:          net,
		names:        names,
		InputSize:    inputSize,
		ScoreFloor:   0.1,
		NMSThreshold: float32(nmsThreshold),
	}, nil
}

// Detect возвращает детекции после NMS; порог уверенности применяет DetectionEngine.
func (d *YOLODetector) Detect(ctx context.Context, frame entity.Frame) ([]entity.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if frame.Empty() {
		return nil, errors.New("empty image")
	}

	mat, err := gocv.ImageToMatRGB(frame.Image)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(d.InputSize, d.InputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	// Выход YOLOv8: [1, 4+classes, candidates].
	sizes := output.Size()
	if len(sizes) != 3 || sizes[1] <= 4 {
		return nil, fmt.Errorf("unexpected output shape %v", sizes)
	}
	attrs, candidates := sizes[1], sizes[2]

	rows := output.Reshape(1, attrs)
	defer rows.Close()
	preds := gocv.NewMat()
	defer preds.Close()
	gocv.Transpose(rows, &preds)

	xScale := float32(frame.Width()) / float32(d.InputSize)
	yScale := float32(frame.Height()) / float32(d.InputSize)

	boxes := make([]image.Rectangle, 0)
	scores := make([]float32, 0)
	classes := make([]int, 0)
	for i := 0; i < candidates; i++ {
		classID, score := -1, float32(0)
		for c := 4; c < attrs; c++ {
			if s := preds.GetFloatAt(i, c); s > score {
				classID, score = c-4, s
			}
		}
		if classID < 0 || score < d.ScoreFloor {
			continue
		}

		cx, cy := preds.GetFloatAt(i, 0), preds.GetFloatAt(i, 1)
		w, h := preds.GetFloatAt(i, 2), preds.GetFloatAt(i, 3)
		boxes = append(boxes, image.Rect(
			int((cx-w/2)*xScale), int((cy-h/2)*yScale),
			int((cx+w/2)*xScale), int((cy+h/2)*yScale),
		))
		scores = append(scores, score)
		classes = append(classes, classID)
	}
	if len(boxes) == 0 {
		return nil, nil
	}

	keep := gocv.NMSBoxes(boxes, scores, d.ScoreFloor, d.NMSThreshold)
	detections := make([]entity.Detection, 0, len(keep))
	for _, idx := range keep {
		r := boxes[idx]
		detections = append(detections, entity.Detection{
			ClassID:    classes[idx],
			ClassName:  ClassName(d.names, classes[idx]),
			Confidence: clamp01(float64(scores[idx])),
			Box:        entity.BBox{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y},
		})
	}
	return detections, nil
}

func (d *YOLODetector) Close() error {
	return d.net.Close()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var _ port.ObjectDetector = (*YOLODetector)(nil)
