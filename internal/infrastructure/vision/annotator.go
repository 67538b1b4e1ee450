package vision

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"road-inspector/internal/domain/entity"
	"road-inspector/internal/domain/port"
)

var (
	BoxColor   = color.RGBA{R: 20, G: 255, B: 57, A: 255}
	LabelColor = color.RGBA{R: 255, G: 255, A: 255}
)

// Annotator рисует рамки дефектов и подписи "Pothole (0.82)".
type Annotator struct {
	Thickness   int
	LabelOffset int // на сколько пикселей подпись выше рамки
	face        font.Face
}

func NewAnnotator() *Annotator {
	return &Annotator{
		Thickness:   2,
		LabelOffset: 10,
		face:        basicfont.Face7x13,
	}
}

// Annotate рисует на копии кадра; исходный кадр не меняется.
func (a *Annotator) Annotate(frame entity.Frame, detections []entity.Detection) entity.Frame {
	out := frame.Clone()
	if out.Empty() {
		return out
	}

	for _, d := range detections {
		rect := image.Rect(d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2)
		drawRect(out.Image, rect, BoxColor, a.Thickness)
		a.drawLabel(out.Image, d.Label(), d.Box.X1, d.Box.Y1-a.LabelOffset)
	}
	return out
}

func (a *Annotator) drawLabel(img *image.RGBA, text string, x, y int) {
	// Подпись у верхнего края кадра опускается, чтобы её было видно.
	if ascent := a.face.Metrics().Ascent.Ceil(); y < ascent {
		y = ascent
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(LabelColor),
		Face: a.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func drawRect(img *image.RGBA, r image.Rectangle, c color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y),
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		e = e.Intersect(img.Bounds())
		if e.Empty() {
			continue
		}
		draw.Draw(img, e, src, image.Point{}, draw.Src)
	}
}

var _ port.Annotator = (*Annotator)(nil)
