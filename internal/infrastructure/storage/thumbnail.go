package storage

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"

	"road-inspector/internal/domain/entity"
	"road-inspector/internal/domain/port"
)

const (
	DefaultThumbnailSize = 100
	thumbnailQuality     = 90
)

// ThumbnailStore пишет JPEG-миниатюры фиксированного размера в каталог журнала.
type ThumbnailStore struct {
	dir  string
	size int
}

func NewThumbnailStore(dir string, size int) *ThumbnailStore {
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	return &ThumbnailStore{dir: dir, size: size}
}

// PathFor заменяет двоеточия отметки времени на дефисы: "temp_logs/2024-05-01 10-00-01.jpg".
// Два события в одну секунду получают один путь, последняя запись побеждает.
func (s *ThumbnailStore) PathFor(timestamp string) string {
	return filepath.Join(s.dir, strings.ReplaceAll(timestamp, ":", "-")+".jpg")
}

// Write масштабирует кадр до size x size и сохраняет его в path.
func (s *ThumbnailStore) Write(frame entity.Frame, path string) error {
	if frame.Empty() {
		return fmt.Errorf("empty frame %d", frame.Seq)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create thumbnail dir: %w", err)
	}

	thumb := image.NewRGBA(image.Rect(0, 0, s.size, s.size))
	xdraw.CatmullRom.Scale(thumb, thumb.Bounds(), frame.Image, frame.Image.Bounds(), xdraw.Src, nil)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create thumbnail: %w", err)
	}
	if err := jpeg.Encode(f, thumb, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		f.Close()
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	return f.Close()
}

var _ port.ThumbnailWriter = (*ThumbnailStore)(nil)
