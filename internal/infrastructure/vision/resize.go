package vision

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"road-inspector/internal/domain/entity"
	"road-inspector/internal/domain/port"
)

// Resizer масштабирует кадр до рабочего разрешения.
type Resizer struct{}

func (Resizer) Resize(frame entity.Frame, width, height int) entity.Frame {
	if frame.Empty() || width <= 0 || height <= 0 {
		return frame
	}
	if frame.Width() == width && frame.Height() == height {
		return frame
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), frame.Image, frame.Image.Bounds(), xdraw.Src, nil)
	return entity.Frame{Image: dst, Seq: frame.Seq}
}

var _ port.Resizer = Resizer{}
