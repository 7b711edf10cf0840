// Package player keeps the bookkeeping of how long a source is driven:
// wall-clock budget, frame budget and loop budget, plus the cooperative
// stop flag set from signal context.
package player

import (
	"image"
	"sync/atomic"
	"time"

	"github.com/HenryGetz/timg/internal/timing"
)

// Stop is the process-wide cancellation flag. The signal handler only
// ever sets it; everybody else only reads it.
type Stop struct {
	flag atomic.Bool
}

func (s *Stop) Set() {
	s.flag.Store(true)
}

func (s *Stop) Requested() bool {
	return s.flag.Load()
}

// FrameSink delivers one finished frame to the renderer. offsetX is the
// horizontal pixel indent, rewind the number of pixel rows to move back
// up before drawing (animation frames overwrite their predecessor).
type FrameSink func(frame *image.RGBA, offsetX, rewind int)

// Forever is the loop count meaning "repeat until stopped".
const Forever = -1

// Budget tracks the remaining allowance of one SendFrames run.
type Budget struct {
	deadline   time.Time
	framesLeft int
	loopsLeft  int
}

// NewBudget resolves the user-facing limits into a concrete budget.
// defaultLoops is the per-variant behavior when --loops was not given:
// видео проигрывается один раз, анимация повторяется бесконечно.
func NewBudget(maxDuration timing.Duration, maxFrames, loops, defaultLoops int) *Budget {
	b := &Budget{
		deadline: maxDuration.Deadline(time.Now()),
	}

	if maxFrames == timing.NotInitialized {
		b.framesLeft = -1
	} else {
		b.framesLeft = maxFrames
	}

	if loops == timing.NotInitialized {
		loops = defaultLoops
	}
	if loops == Forever {
		b.loopsLeft = -1
	} else {
		b.loopsLeft = loops
	}

	return b
}

// NextFrame consumes one frame from the budget and reports whether the
// frame may still be emitted.
func (b *Budget) NextFrame(stop *Stop) bool {
	if stop.Requested() {
		return false
	}
	if timing.Expired(b.deadline, time.Now()) {
		return false
	}
	if b.framesLeft == 0 {
		return false
	}
	if b.framesLeft > 0 {
		b.framesLeft--
	}
	return true
}

// NextLoop consumes one full traversal of the frame sequence.
func (b *Budget) NextLoop(stop *Stop) bool {
	if stop.Requested() {
		return false
	}
	if timing.Expired(b.deadline, time.Now()) {
		return false
	}
	if b.loopsLeft == 0 {
		return false
	}
	if b.loopsLeft > 0 {
		b.loopsLeft--
	}
	return true
}

const sleepSlice = 50 * time.Millisecond

// Sleep waits out an inter-frame delay in small slices so the stop flag
// is honored within bounded latency.
func Sleep(d timing.Duration, stop *Stop) {
	if d.IsInfinite() {
		return
	}
	remaining := d.Std()
	for remaining > 0 && !stop.Requested() {
		slice := remaining
		if slice > sleepSlice {
			slice = sleepSlice
		}
		time.Sleep(slice)
		remaining -= slice
	}
}
