package entity

import "fmt"

// BBox ограничивающая рамка дефекта в координатах кадра
type BBox struct {
	X1 int // левый верхний угол, X
	Y1 int // левый верхний угол, Y
	X2 int // правый нижний угол, X
	Y2 int // правый нижний угол, Y
}

// Width возвращает ширину рамки
func (b BBox) Width() int {
	return b.X2 - b.X1
}

// Height возвращает высоту рамки
func (b BBox) Height() int {
	return b.Y2 - b.Y1
}

// Center возвращает координаты центра рамки
func (b BBox) Center() (x, y int) {
	return b.X1 + b.Width()/2, b.Y1 + b.Height()/2
}

// Detection представляет один найденный дефект на кадре
type Detection struct {
	ClassID    int     // индекс класса модели
	ClassName  string  // имя класса, например "Pothole"
	Confidence float64 // уверенность в диапазоне [0, 1]
	Box        BBox    // рамка дефекта
}

// Label возвращает подпись в формате "Pothole (0.82)".
func (d Detection) Label() string {
	return fmt.Sprintf("%s (%.2f)", d.ClassName, d.Confidence)
}

// Labels собирает подписи всех детекций в порядке их следования.
func Labels(detections []Detection) []string {
	lines := make([]string, 0, len(detections))
	for _, d := range detections {
		lines = append(lines, d.Label())
	}
	return lines
}
