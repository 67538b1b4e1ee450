//go:build !gocv
// +build !gocv

package vision

import "road-inspector/internal/domain/port"

// openVideo возвращает ошибку, если сборка без тега gocv.
func openVideo(path string) (port.FrameSource, error) {
	_ = path
	return nil, ErrGoCVDisabled
}

// openCamera возвращает ошибку, если сборка без тега gocv.
func openCamera(index int) (port.FrameSource, error) {
	_ = index
	return nil, ErrGoCVDisabled
}
