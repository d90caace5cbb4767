package capture

import (
	"fmt"
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// OpenCVStreamer decodes a video file in-process with OpenCV.
type OpenCVStreamer struct {
	stopOnce  sync.Once
	startOnce sync.Once

	path      string
	targetFPS uint
	width     int
	height    int

	capture   *gocv.VideoCapture
	frameChan chan image.Image
	errChan   chan error
	stopChan  chan struct{}
}

func NewOpenCVStreamer(path string, opts Options) (*OpenCVStreamer, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("failed to open video %s", path)
	}

	fps := opts.FPS
	if fps == 0 {
		if native := vc.Get(gocv.VideoCaptureFPS); native > 0 {
			fps = uint(native)
		}
	}

	w, h := FitSize(
		int(vc.Get(gocv.VideoCaptureFrameWidth)),
		int(vc.Get(gocv.VideoCaptureFrameHeight)),
		opts.Width, opts.Height,
	)

	return &OpenCVStreamer{
		path:      path,
		targetFPS: Options{FPS: fps}.fps(),
		width:     w,
		height:    h,
		capture:   vc,
		frameChan: make(chan image.Image, 10),
		errChan:   make(chan error, 1),
		stopChan:  make(chan struct{}),
	}, nil
}

func (cs *OpenCVStreamer) Start() error {
	started := false
	cs.startOnce.Do(func() {
		started = true
		go cs.readFrames()
	})
	if !started {
		return fmt.Errorf("streamer for %s already started", cs.path)
	}
	return nil
}

func (cs *OpenCVStreamer) readFrames() {
	defer close(cs.frameChan)
	defer close(cs.errChan)
	defer cs.capture.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	scaled := gocv.NewMat()
	defer scaled.Close()
	rgba := gocv.NewMat()
	defer rgba.Close()

	ticker := time.NewTicker(time.Second / time.Duration(cs.targetFPS))
	defer ticker.Stop()

	size := image.Pt(cs.width, cs.height)

	for {
		select {
		case <-cs.stopChan:
			return

		case <-ticker.C:
			if ok := cs.capture.Read(&frame); !ok || frame.Empty() {
				return
			}

			gocv.Resize(frame, &scaled, size, 0, 0, gocv.InterpolationLinear)
			gocv.CvtColor(scaled, &rgba, gocv.ColorBGRToRGBA)

			img, err := rgba.ToImage()
			if err != nil {
				cs.errChan <- fmt.Errorf("frame conversion error: %w", err)
				return
			}

			select {
			case cs.frameChan <- img:
			case <-cs.stopChan:
				return
			}
		}
	}
}

// Stop ends decoding. A streamer that was never started releases its
// capture handle here.
func (cs *OpenCVStreamer) Stop() {
	cs.stopOnce.Do(func() {
		close(cs.stopChan)
		cs.startOnce.Do(func() {
			cs.capture.Close()
			close(cs.frameChan)
			close(cs.errChan)
		})
	})
}

func (cs *OpenCVStreamer) FrameChan() <-chan image.Image {
	return cs.frameChan
}

func (cs *OpenCVStreamer) ErrorChan() <-chan error {
	return cs.errChan
}
