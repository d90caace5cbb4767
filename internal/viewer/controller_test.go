package viewer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casevue/internal/artifact"
	"casevue/internal/catalog"
	"casevue/internal/logging"
	"casevue/internal/models"
	"casevue/internal/report"
)

// recordingPlayer logs every call in order.
type recordingPlayer struct {
	events  []string
	loadErr error
}

func (p *recordingPlayer) Stop() { p.events = append(p.events, "stop") }
func (p *recordingPlayer) Play() { p.events = append(p.events, "play") }
func (p *recordingPlayer) Load(path string) error {
	p.events = append(p.events, "load "+filepath.Base(path))
	return p.loadErr
}

func touch(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newController(t *testing.T, root string, keys ...string) (*Controller, *recordingPlayer) {
	t.Helper()
	cat, err := catalog.FromKeys(keys)
	require.NoError(t, err)

	p := &recordingPlayer{}
	c, err := New(cat, root, p, logging.Discard())
	require.NoError(t, err)
	return c, p
}

func TestNew_RejectsEmptyCatalog(t *testing.T) {
	_, err := New(nil, "/r", &recordingPlayer{}, nil)
	assert.ErrorIs(t, err, catalog.ErrEmptyCatalog)
}

func TestNew_RejectsNilPlayer(t *testing.T) {
	cat, err := catalog.FromKeys([]string{"a"})
	require.NoError(t, err)

	_, err = New(cat, "/r", nil, nil)
	assert.Error(t, err)
}

func TestNavigation_Clamps(t *testing.T) {
	for n := 1; n <= 4; n++ {
		t.Run(fmt.Sprintf("N=%d", n), func(t *testing.T) {
			keys := make([]string, n)
			for i := range keys {
				keys[i] = fmt.Sprintf("E%03d_1", i)
			}
			c, _ := newController(t, t.TempDir(), keys...)

			assert.Equal(t, 0, c.Index())
			assert.False(t, c.Previous())
			assert.Equal(t, 0, c.Index())

			for i := 1; i < n; i++ {
				assert.True(t, c.Next())
				assert.Equal(t, i, c.Index())
			}

			assert.False(t, c.Next())
			assert.Equal(t, n-1, c.Index())
			assert.True(t, c.State().AtLast())
		})
	}
}

func TestNavigation_ReResolvesArtifacts(t *testing.T) {
	root := t.TempDir()
	c, _ := newController(t, root, "E001_3", "E002")

	assert.Equal(t, artifact.Resolve(root, models.Case{Key: "E001_3"}).Image, c.State().Artifacts.Image)

	require.True(t, c.Next())
	st := c.State()
	assert.Equal(t, "E002", st.Case.Key)
	assert.Equal(t, 1, st.Case.Index)
	assert.Equal(t, filepath.Join(root, "video", "E002.MOV"), st.Artifacts.Video)
}

func TestNavigation_NotifiesOnlyOnChange(t *testing.T) {
	c, _ := newController(t, t.TempDir(), "a", "b")

	var seen []State
	c.Subscribe(func(s State) { seen = append(seen, s) })

	c.Previous()
	c.Next()
	c.Next()
	c.Previous()

	require.Len(t, seen, 2)
	assert.Equal(t, "b", seen[0].Case.Key)
	assert.Equal(t, "a", seen[1].Case.Key)
	assert.True(t, seen[1].AtFirst())
}

func TestCaseChange_StopsBeforeLoad(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "video", "E001.MOV"), "clip")
	touch(t, filepath.Join(root, "video", "E002.MOV"), "clip")

	c, p := newController(t, root, "E001_3", "E002_1", "E001_9")

	var order []string
	c.Subscribe(func(State) { order = append(order, "clear") })

	c.Start()
	c.Next()
	c.Next()

	assert.Equal(t, []string{
		"stop", "load E001.MOV", "play",
		"stop", "load E002.MOV", "play",
		"stop", "load E001.MOV", "play",
	}, p.events)
	assert.Len(t, order, 2)
}

func TestCaseChange_ViewsClearedBeforeVideoSwitch(t *testing.T) {
	c, p := newController(t, t.TempDir(), "a", "b")

	var eventsAtClear int
	c.Subscribe(func(State) { eventsAtClear = len(p.events) })

	c.Next()

	assert.Equal(t, 0, eventsAtClear)
	assert.Equal(t, []string{"stop"}, p.events)
}

func TestCaseChange_MissingVideoStopsOnly(t *testing.T) {
	c, p := newController(t, t.TempDir(), "E001_3", "E002_1")

	c.Start()
	c.Next()

	assert.Equal(t, []string{"stop", "stop"}, p.events)
}

func TestCaseChange_LoadFailureSkipsPlay(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "video", "E001.MOV"), "clip")

	c, p := newController(t, root, "E001_3")
	p.loadErr = errors.New("codec")

	c.Start()

	assert.Equal(t, []string{"stop", "load E001.MOV"}, p.events)
}

func TestClose_StopsOnceAndFreezesNavigation(t *testing.T) {
	c, p := newController(t, t.TempDir(), "a", "b")

	c.Close()
	c.Close()

	assert.Equal(t, []string{"stop"}, p.events)
	assert.False(t, c.Next())
	assert.Equal(t, 0, c.Index())
}

func TestSelect_Images(t *testing.T) {
	root := t.TempDir()
	c, _ := newController(t, root, "E001_3")
	set := c.State().Artifacts
	touch(t, set.Mask, "png")

	mask := c.Select(models.KindMask)
	assert.True(t, mask.Available)
	assert.NoError(t, mask.Err)
	assert.Equal(t, set.Mask, mask.Path)

	img := c.Select(models.KindImage)
	assert.False(t, img.Available)
	assert.Error(t, img.Err)
	assert.Nil(t, img.Report)
}

func TestSelect_Report(t *testing.T) {
	root := t.TempDir()
	c, _ := newController(t, root, "E001_3", "E002_1", "E003_1")
	touch(t, c.State().Artifacts.Report, "h\nh\nA: 0.10\nB: 0.90\n")

	a := c.Select(models.KindReport)
	require.True(t, a.Available)
	require.NotNil(t, a.Report)
	assert.Equal(t, []report.Entry{{Class: "A", Probability: 0.10}, {Class: "B", Probability: 0.90}}, a.Report.Entries())

	c.Next()
	missing := c.Select(models.KindReport)
	assert.False(t, missing.Available)
	assert.Nil(t, missing.Report)
	assert.ErrorIs(t, missing.Err, report.ErrReportNotFound)

	c.Next()
	touch(t, c.State().Artifacts.Report, "h\nh\nA 0.10\n")
	bad := c.Select(models.KindReport)
	assert.False(t, bad.Available)
	assert.Nil(t, bad.Report)
	assert.ErrorIs(t, bad.Err, report.ErrMalformedLine)
}

func TestSelect_UnknownKind(t *testing.T) {
	c, _ := newController(t, t.TempDir(), "a")

	a := c.Select("xray")
	assert.False(t, a.Available)
	assert.ErrorIs(t, a.Err, ErrUnknownKind)
}
