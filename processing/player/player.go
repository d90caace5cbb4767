// Package player is the single video playback handle of the viewer.
package player

import (
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"casevue/internal/config"
	"casevue/internal/logging"
	"casevue/processing/capture"
)

// FrameSink receives decoded frames on the playback goroutine, tagged with
// the clip they belong to. Compare clip with Player.Clip to drop frames that
// arrive after a Stop.
type FrameSink func(clip uint64, frame image.Image)

type StreamerFactory func(path string) (capture.VideoStreamer, error)

type Option func(*Player)

// WithStreamerFactory replaces the configured decoder backend.
func WithStreamerFactory(f StreamerFactory) Option {
	return func(p *Player) { p.newStreamer = f }
}

// Player plays at most one clip at a time. Load, Play and Stop are meant
// for the UI goroutine; Stop returns only after the decoder is released.
type Player struct {
	mu sync.Mutex

	newStreamer StreamerFactory
	loop        bool
	sink        FrameSink
	log         *logrus.Entry

	path     string
	loaded   capture.VideoStreamer
	stopChan chan struct{}
	done     chan struct{}

	clip   atomic.Uint64
	frames atomic.Uint64
	fps    atomic.Uint32
}

func New(v config.VideoConfig, sink FrameSink, logger logrus.FieldLogger, opts ...Option) *Player {
	p := &Player{
		loop: v.Loop,
		sink: sink,
		log:  logging.Component(logger, "player"),
		newStreamer: func(path string) (capture.VideoStreamer, error) {
			return capture.NewStreamer(v, path)
		},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Load stops whatever is playing and opens path. Nothing is decoded until
// Play.
func (p *Player) Load(path string) error {
	p.Stop()

	s, err := p.newStreamer(path)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.path = path
	p.loaded = s
	p.frames.Store(0)
	p.fps.Store(0)

	p.log.WithField("path", path).Debug("video loaded")
	return nil
}

func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loaded == nil {
		return
	}
	if p.done != nil {
		return
	}

	s := p.loaded
	p.loaded = nil

	if err := s.Start(); err != nil {
		p.log.WithError(err).WithField("path", p.path).Error("failed to start video")
		s.Stop()
		return
	}

	p.stopChan = make(chan struct{})
	p.done = make(chan struct{})

	go p.run(s, p.path, p.clip.Load(), p.stopChan, p.done)
}

// Stop ends playback and releases the decoder. Nothing but the clip
// counter changes when nothing is loaded.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clip.Add(1)

	if p.loaded != nil {
		p.loaded.Stop()
		drain(p.loaded)
		p.loaded = nil
	}

	if p.done != nil {
		close(p.stopChan)
		<-p.done
		p.stopChan = nil
		p.done = nil
		p.log.WithField("path", p.path).Debug("video stopped")
	}
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Clip identifies the current clip. It changes on every Stop.
func (p *Player) Clip() uint64 { return p.clip.Load() }

// Frames is the number of frames delivered since the last Load.
func (p *Player) Frames() uint64 { return p.frames.Load() }

// FPS is the delivery rate measured over the last full second.
func (p *Player) FPS() uint { return uint(p.fps.Load()) }

var errStopped = errors.New("stopped")

func (p *Player) run(s capture.VideoStreamer, path string, clip uint64, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		n, err := p.consume(s, clip, stop)
		if errors.Is(err, errStopped) {
			return
		}
		if err != nil {
			p.log.WithError(err).WithField("path", path).Error("video playback failed")
			return
		}
		// a pass without frames would restart forever
		if !p.loop || n == 0 {
			p.log.WithFields(logrus.Fields{
				"path":   path,
				"frames": n,
			}).Debug("video finished")
			return
		}

		next, err := p.newStreamer(path)
		if err == nil {
			err = next.Start()
		}
		if err != nil {
			p.log.WithError(err).WithField("path", path).Error("failed to restart video")
			return
		}
		s = next
	}
}

// consume forwards frames until the clip ends, fails or stop is closed, and
// reports how many it delivered. The streamer is fully drained before it
// returns.
func (p *Player) consume(s capture.VideoStreamer, clip uint64, stop <-chan struct{}) (uint64, error) {
	defer drain(s)
	defer s.Stop()

	frameCh := s.FrameChan()
	errCh := s.ErrorChan()

	var (
		delivered uint64
		count     uint32
	)
	last := time.Now()

	for {
		select {
		case <-stop:
			return delivered, errStopped

		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return delivered, err
			}

		case frame, ok := <-frameCh:
			if !ok {
				if errCh != nil {
					if err, ok := <-errCh; ok && err != nil {
						return delivered, err
					}
				}
				return delivered, nil
			}
			if frame == nil {
				continue
			}

			if p.sink != nil {
				p.sink(clip, frame)
			}
			p.frames.Add(1)
			delivered++

			count++
			if time.Since(last) >= time.Second {
				p.fps.Store(count)
				count = 0
				last = time.Now()
			}
		}
	}
}

func drain(s capture.VideoStreamer) {
	for range s.FrameChan() {
	}
}
