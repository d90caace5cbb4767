package capture

import (
	"fmt"

	"casevue/internal/config"
)

func NewStreamer(v config.VideoConfig, path string) (VideoStreamer, error) {
	opts := Options{FPS: v.FPS, Width: v.Width, Height: v.Height}

	switch v.Backend {
	case config.BackendFFmpeg:
		return NewLocalStreamer(path, opts)
	case config.BackendOpenCV:
		return NewOpenCVStreamer(path, opts)
	default:
		return nil, fmt.Errorf("unknown video backend: %s", v.Backend)
	}
}
