package vision

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"road-inspector/internal/domain/entity"
	"road-inspector/internal/domain/port"
)

// ErrGoCVDisabled сборка без тега gocv не умеет работать с видео и моделью
var ErrGoCVDisabled = errors.New("gocv build tag is not enabled")

// ImageSource отдаёт единственный кадр из файла изображения.
type ImageSource struct {
	frame entity.Frame
	done  bool
}

// OpenImageFile декодирует jpeg, png, bmp или webp.
func OpenImageFile(path string) (*ImageSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &ImageSource{frame: entity.NewFrame(img, 0)}, nil
}

func (s *ImageSource) Read() (entity.Frame, error) {
	if s.done {
		return entity.Frame{}, port.ErrEndOfStream
	}
	s.done = true
	return s.frame, nil
}

func (s *ImageSource) Kind() entity.SourceKind {
	return entity.SourceImage
}

func (s *ImageSource) Close() error {
	s.done = true
	return nil
}

// Sources открывает изображения, видеофайлы и камеры.
type Sources struct{}

func (Sources) OpenImage(path string) (port.FrameSource, error) {
	src, err := OpenImageFile(path)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func (Sources) OpenVideo(path string) (port.FrameSource, error) {
	return openVideo(path)
}

func (Sources) OpenCamera(index int) (port.FrameSource, error) {
	return openCamera(index)
}

var _ port.SourceOpener = Sources{}
