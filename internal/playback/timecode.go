package playback

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRange is returned for frame ranges and time offsets that cannot
// be rendered.
var ErrInvalidRange = errors.New("invalid frame range")

// FrameAt returns the frame on screen seconds into a sequence playing at fps.
// Partial frames round down.
func FrameAt(seconds float64, fps int) (int, error) {
	if fps <= 0 {
		return 0, fmt.Errorf("%w: fps %d", ErrInvalidRange, fps)
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("%w: time %v", ErrInvalidRange, seconds)
	}
	f := math.Floor(seconds * float64(fps))
	if f < math.MinInt || f >= math.MaxInt {
		return 0, fmt.Errorf("%w: time %v is out of range", ErrInvalidRange, seconds)
	}
	return int(f), nil
}

// Seconds returns the time offset of frame at fps.
func Seconds(frame, fps int) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(frame) / float64(fps)
}

// Timecode formats frame as MM:SS:FF. Negative frames get a leading minus.
func Timecode(frame, fps int) string {
	if fps <= 0 {
		return "00:00:00"
	}
	sign := ""
	if frame < 0 {
		sign = "-"
		frame = -frame
	}
	secs := frame / fps
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, secs/60, secs%60, frame%fps)
}

// FrameRange is the inclusive range From..To sampled every Step frames.
// A zero Step means every frame.
type FrameRange struct {
	From int `json:"from"`
	To   int `json:"to"`
	Step int `json:"step"`
}

// Validate reports whether r can be rendered. Ranges holding more frames
// than an int can count are rejected.
func (r FrameRange) Validate() error {
	switch {
	case r.Step < 0:
		return fmt.Errorf("%w: step %d", ErrInvalidRange, r.Step)
	case r.To < r.From:
		return fmt.Errorf("%w: to %d is before from %d", ErrInvalidRange, r.To, r.From)
	case r.steps() >= math.MaxInt:
		return fmt.Errorf("%w: %d..%d step %d has too many frames", ErrInvalidRange, r.From, r.To, r.Step)
	}
	return nil
}

// Len returns the number of frames in r. r must be valid.
func (r FrameRange) Len() int {
	return int(r.steps()) + 1
}

// Frames lists the frames of r in ascending order. r must be valid.
func (r FrameRange) Frames() []int {
	n := r.Len()
	out := make([]int, 0, n)
	for i := range n {
		// unsigned arithmetic wraps back into range for negative From
		out = append(out, int(uint64(r.From)+uint64(i)*uint64(r.step())))
	}
	return out
}

// steps is the number of whole steps from From to To. The span is taken in
// uint64 so that To-From cannot overflow.
func (r FrameRange) steps() uint64 {
	span := uint64(r.To) - uint64(r.From)
	return span / uint64(r.step())
}

func (r FrameRange) step() int {
	return max(r.Step, 1)
}
