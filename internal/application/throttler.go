package app

// DefaultSkipRate инференс запускается на каждом десятом кадре
const DefaultSkipRate = 10

// FrameThrottler решает, на каком кадре запускать детектор.
type FrameThrottler struct {
	skipRate int
	counter  int
}

// NewFrameThrottler создаёт счётчик пропуска кадров; rate < 1 заменяется значением по умолчанию.
func NewFrameThrottler(rate int) *FrameThrottler {
	if rate < 1 {
		rate = DefaultSkipRate
	}
	return &FrameThrottler{skipRate: rate}
}

// ShouldRunInference увеличивает счётчик и возвращает true, когда он достиг skipRate.
func (t *FrameThrottler) ShouldRunInference() bool {
	t.counter++
	if t.counter >= t.skipRate {
		t.counter = 0
		return true
	}
	return false
}

// Reset обнуляет счётчик при смене источника.
func (t *FrameThrottler) Reset() {
	t.counter = 0
}

func (t *FrameThrottler) SkipRate() int {
	return t.skipRate
}
