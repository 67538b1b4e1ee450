//go:build gocv
// +build gocv

package vision

import (
	"fmt"

	"gocv.io/x/gocv"

	"road-inspector/internal/domain/entity"
	"road-inspector/internal/domain/port"
)

// CaptureSource читает кадры из видеофайла или камеры через OpenCV.
type CaptureSource struct {
	cap  *gocv.VideoCapture
	mat  gocv.Mat
	kind entity.SourceKind
}

func openVideo(path string) (port.FrameSource, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %w", path, err)
	}
	src, err := newCaptureSource(vc, entity.SourceVideo)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func openCamera(index int) (port.FrameSource, error) {
	vc, err := gocv.VideoCaptureDevice(index)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", index, err)
	}
	src, err := newCaptureSource(vc, entity.SourceCamera)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func newCaptureSource(vc *gocv.VideoCapture, kind entity.SourceKind) (*CaptureSource, error) {
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("cannot open %s source", kind)
	}
	return &CaptureSource{cap: vc, mat: gocv.NewMat(), kind: kind}, nil
}

// Read возвращает ErrEndOfStream, когда OpenCV не отдал кадр.
func (s *CaptureSource) Read() (entity.Frame, error) {
	if ok := s.cap.Read(&s.mat); !ok || s.mat.Empty() {
		return entity.Frame{}, port.ErrEndOfStream
	}
	img, err := s.mat.ToImage()
	if err != nil {
		return entity.Frame{}, fmt.Errorf("convert frame: %w", err)
	}
	return entity.NewFrame(img, 0), nil
}

func (s *CaptureSource) Kind() entity.SourceKind {
	return s.kind
}

func (s *CaptureSource) Close() error {
	if err := s.mat.Close(); err != nil {
		return err
	}
	return s.cap.Close()
}
