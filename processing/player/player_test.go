package player

import (
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casevue/internal/config"
	"casevue/internal/logging"
	"casevue/processing/capture"
)

// fakeStreamer emits a fixed number of frames, then ends.
type fakeStreamer struct {
	frames int
	fail   error

	mu       sync.Mutex
	started  bool
	stopped  bool
	stopOnce sync.Once
	stopChan chan struct{}
	frameCh  chan image.Image
	errCh    chan error
}

func newFake(frames int) *fakeStreamer {
	return &fakeStreamer{
		frames:   frames,
		stopChan: make(chan struct{}),
		frameCh:  make(chan image.Image),
		errCh:    make(chan error, 1),
	}
}

func (f *fakeStreamer) Start() error {
	f.mu.Lock()
	f.started = true
	f.mu.Unlock()

	go func() {
		defer close(f.frameCh)
		defer close(f.errCh)
		for i := 0; f.frames < 0 || i < f.frames; i++ {
			select {
			case f.frameCh <- image.NewRGBA(image.Rect(0, 0, 2, 2)):
			case <-f.stopChan:
				return
			}
		}
		if f.fail != nil {
			f.errCh <- f.fail
		}
	}()
	return nil
}

func (f *fakeStreamer) Stop() {
	f.stopOnce.Do(func() {
		f.mu.Lock()
		f.stopped = true
		wasStarted := f.started
		f.mu.Unlock()

		close(f.stopChan)
		if !wasStarted {
			close(f.frameCh)
			close(f.errCh)
		}
	})
}

func (f *fakeStreamer) FrameChan() <-chan image.Image { return f.frameCh }
func (f *fakeStreamer) ErrorChan() <-chan error { return f.errCh }

func (f *fakeStreamer) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type factory struct {
	mu      sync.Mutex
	frames  int
	created []*fakeStreamer
	paths   []string
	openErr error
}

func (fa *factory) New(path string) (capture.VideoStreamer, error) {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	if fa.openErr != nil {
		return nil, fa.openErr
	}
	s := newFake(fa.frames)
	fa.created = append(fa.created, s)
	fa.paths = append(fa.paths, path)
	return s, nil
}

func (fa *factory) count() int {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	return len(fa.created)
}

func newPlayer(loop bool, fa *factory, sink FrameSink) *Player {
	v := config.NewDefaultConfig().GetVideo()
	v.Loop = loop
	return New(v, sink, logging.Discard(), WithStreamerFactory(fa.New))
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestPlay_DeliversAllFramesThenFinishes(t *testing.T) {
	fa := &factory{frames: 5}

	var mu sync.Mutex
	got := 0
	var clips []uint64
	p := newPlayer(false, fa, func(clip uint64, _ image.Image) {
		mu.Lock()
		got++
		clips = append(clips, clip)
		mu.Unlock()
	})

	require.NoError(t, p.Load("E001.MOV"))
	p.Play()

	waitUntil(t, func() bool { return !p.IsPlaying() })

	mu.Lock()
	assert.Equal(t, 5, got)
	for _, c := range clips {
		assert.Equal(t, p.Clip(), c)
	}
	mu.Unlock()
	assert.Equal(t, uint64(5), p.Frames())
	assert.True(t, fa.created[0].isStopped())
}

func TestStop_ReleasesBeforeNextLoad(t *testing.T) {
	fa := &factory{frames: -1}
	p := newPlayer(false, fa, nil)

	require.NoError(t, p.Load("E001.MOV"))
	p.Play()
	waitUntil(t, func() bool { return p.Frames() > 0 })

	oldClip := p.Clip()
	require.NoError(t, p.Load("E002.MOV"))
	assert.NotEqual(t, oldClip, p.Clip(), "frames still queued from the first clip must be recognisable")

	require.Equal(t, 2, fa.count())
	first := fa.created[0]
	assert.True(t, first.isStopped(), "first clip must be stopped before the second is opened")
	_, open := <-first.frameCh
	assert.False(t, open)
	assert.False(t, p.IsPlaying())

	p.Play()
	assert.True(t, p.IsPlaying())
	p.Stop()
	assert.False(t, p.IsPlaying())
	assert.Equal(t, []string{"E001.MOV", "E002.MOV"}, fa.paths)
}

func TestStop_LoadedButNotPlayed(t *testing.T) {
	fa := &factory{frames: 3}
	p := newPlayer(false, fa, nil)

	require.NoError(t, p.Load("E001.MOV"))
	p.Stop()

	assert.True(t, fa.created[0].isStopped())
	p.Play()
	assert.False(t, p.IsPlaying())
}

func TestStop_Idle(t *testing.T) {
	p := newPlayer(false, &factory{}, nil)
	assert.NotPanics(t, p.Stop)
	assert.NotPanics(t, p.Play)
}

func TestLoad_OpenError(t *testing.T) {
	fa := &factory{openErr: errors.New("no such clip")}
	p := newPlayer(false, fa, nil)

	assert.ErrorContains(t, p.Load("E009.MOV"), "no such clip")
	p.Play()
	assert.False(t, p.IsPlaying())
}

func TestPlay_LoopsUntilStopped(t *testing.T) {
	fa := &factory{frames: 2}
	p := newPlayer(true, fa, nil)

	require.NoError(t, p.Load("E001.MOV"))
	p.Play()

	waitUntil(t, func() bool { return fa.count() >= 3 })
	p.Stop()

	assert.False(t, p.IsPlaying())
	for _, s := range fa.created[:fa.count()-1] {
		assert.True(t, s.isStopped())
	}
}

func TestPlay_EmptyClipIsNotLooped(t *testing.T) {
	fa := &factory{frames: 0}
	p := newPlayer(true, fa, nil)

	require.NoError(t, p.Load("E001.MOV"))
	p.Play()

	waitUntil(t, func() bool { return !p.IsPlaying() })
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, fa.count(), "a clip that yields no frames is not restarted")
	assert.Equal(t, uint64(0), p.Frames())
}

func TestPlay_StreamErrorEndsPlayback(t *testing.T) {
	fa := &factory{frames: 1}
	p := newPlayer(true, fa, nil)

	require.NoError(t, p.Load("E001.MOV"))
	fa.created[0].fail = errors.New("decode error")
	p.Play()

	waitUntil(t, func() bool { return !p.IsPlaying() })
	assert.Equal(t, 1, fa.count(), "a failing clip is not restarted")
}
