package fxyt

import (
	"errors"
	"image"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// scanlineResult is what one rendered scanline contributes beyond its
// pixels: the last F interval reported along it, and the first error.
type scanlineResult struct {
	interval    time.Duration
	hasInterval bool
	err         error
}

// renderFrame evaluates every pixel of one frame at time value t.
// Scanlines are distributed across the worker pool; each pixel is a
// pure function of (commands, x, y, t) so no synchronization is needed
// beyond collecting results.
func (in *Interpreter) renderFrame(commands []Command, t int) (*Frame, error) {
	frame := &Frame{Interval: in.config.FrameInterval}

	workers := in.config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > CanvasSize {
		workers = CanvasSize
	}

	var results [CanvasSize]scanlineResult
	var failed atomic.Bool

	rows := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rows {
				results[y] = in.renderScanline(commands, frame, y, t)
				if results[y].err != nil {
					failed.Store(true)
				}
			}
		}()
	}

	for y := 0; y < CanvasSize; y++ {
		// Once a scanline has failed under the strict policy the rest
		// of the frame is unused, but keep feeding rows so the error
		// reported is deterministic: the lowest failing y wins below.
		rows <- y
	}
	close(rows)
	wg.Wait()

	if failed.Load() {
		for y := 0; y < CanvasSize; y++ {
			if results[y].err != nil {
				return nil, results[y].err
			}
		}
	}

	// The frame adopts the interval from the evaluation latest in scan
	// order, so a program that computes different intervals per pixel
	// still yields one deterministic hint per frame.
	for y := CanvasSize - 1; y >= 0; y-- {
		if results[y].hasInterval {
			frame.Interval = results[y].interval
			break
		}
	}

	return frame, nil
}

// renderScanline fills one scanline of the frame. Scanline y lands in
// row 255-y: the evaluation space has y growing upward, images have row
// 0 at the top.
func (in *Interpreter) renderScanline(commands []Command, frame *Frame, y, t int) scanlineResult {
	var out scanlineResult

	for x := 0; x < CanvasSize; x++ {
		ev := newEvaluator(x, y, t, in.logger)
		color, err := ev.evaluate(commands)
		if err != nil {
			// Debug halts exist to stop the run, so they abort even
			// under the lenient policy.
			if in.config.Lenient && !errors.Is(err, ErrDebugHalt) {
				in.logger.DebugCat(CatEval, "lenient: %v at x=%d y=%d t=%d", err, x, y, t)
				frame.Pix[CanvasSize-1-y][x] = SentinelColor
				continue
			}
			if out.err == nil {
				out.err = &PixelError{X: x, Y: y, T: t, Err: err}
			}
			return out
		}
		frame.Pix[CanvasSize-1-y][x] = color
		if ev.hasInterval {
			out.interval = ev.interval
			out.hasInterval = true
		}
	}

	return out
}

// renderFrames runs the full render: one frame for time-independent
// programs, 256 frames (t from 0 through 255) when the program
// references the T axis anywhere.
func (in *Interpreter) renderFrames(commands []Command) ([]Frame, error) {
	count := 1
	if UsesTime(commands) {
		count = CanvasSize
	}
	in.logger.DebugCat(CatRender, "rendering %d frame(s)", count)

	frames := make([]Frame, 0, count)
	for t := 0; t < count; t++ {
		frame, err := in.renderFrame(commands, t)
		if err != nil {
			return nil, err
		}
		frames = append(frames, *frame)
	}
	return frames, nil
}

// Image converts the frame to an NRGBA image for encoders and display
// widgets. The pixel buffer is already in image orientation.
func (f *Frame) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, CanvasSize, CanvasSize))
	for row := 0; row < CanvasSize; row++ {
		for x := 0; x < CanvasSize; x++ {
			c := f.Pix[row][x]
			o := img.PixOffset(x, row)
			img.Pix[o] = c.R
			img.Pix[o+1] = c.G
			img.Pix[o+2] = c.B
			img.Pix[o+3] = 0xff
		}
	}
	return img
}
