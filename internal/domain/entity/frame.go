package entity

import (
	"image"
	"image/draw"
)

// Frame кадр, который проходит через конвейер за один тик.
type Frame struct {
	Image *image.RGBA
	Seq   int64 // порядковый номер кадра в сессии
}

// NewFrame копирует произвольное изображение в RGBA-кадр.
func NewFrame(img image.Image, seq int64) Frame {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return Frame{Image: rgba, Seq: seq}
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return Frame{Image: rgba, Seq: seq}
}

// Empty сообщает, что в кадре нет пикселей.
func (f Frame) Empty() bool {
	return f.Image == nil || f.Image.Rect.Empty()
}

func (f Frame) Width() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Rect.Dx()
}

func (f Frame) Height() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Rect.Dy()
}

// Clone возвращает независимую копию кадра.
func (f Frame) Clone() Frame {
	if f.Image == nil {
		return f
	}
	cp := image.NewRGBA(f.Image.Rect)
	copy(cp.Pix, f.Image.Pix)
	return Frame{Image: cp, Seq: f.Seq}
}
