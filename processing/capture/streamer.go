package capture

import (
	"image"
)

// VideoStreamer decodes one clip. FrameChan is closed when the clip ends or
// the streamer is stopped; end of clip is not reported on ErrorChan.
type VideoStreamer interface {
	Start() error
	Stop()
	FrameChan() <-chan image.Image
	ErrorChan() <-chan error
}

// Options describe the frames a streamer should produce.
type Options struct {
	FPS    uint
	Width  int
	Height int
}

const standartFps uint = 30

func (o Options) fps() uint {
	if o.FPS == 0 {
		return standartFps
	}
	return o.FPS
}

// FitSize scales src to fit inside maxW x maxH keeping its aspect ratio.
// Results are rounded down to even numbers for the decoders' sake.
func FitSize(srcW, srcH, maxW, maxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return even(maxW), even(maxH)
	}

	w, h := maxW, srcH*maxW/srcW
	if h > maxH {
		w, h = srcW*maxH/srcH, maxH
	}

	return even(w), even(h)
}

func even(v int) int {
	v -= v % 2
	if v < 2 {
		return 2
	}
	return v
}
