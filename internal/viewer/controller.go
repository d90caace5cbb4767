// Package viewer owns the navigation state of the case viewer and exposes it
// to whichever front end renders it.
//
// All methods are expected to be called from one goroutine (the UI event
// loop); the controller does no locking of its own.
package viewer

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"casevue/internal/artifact"
	"casevue/internal/catalog"
	"casevue/internal/logging"
	"casevue/internal/models"
	"casevue/internal/report"
)

// ErrUnknownKind is returned in an Artifact for kinds the resolver does
// not know about.
var ErrUnknownKind = errors.New("unknown artifact kind")

// VideoPlayer is the single playback handle. Stop must fully release the
// current clip before returning.
type VideoPlayer interface {
	Stop()
	Load(path string) error
	Play()
}

// State is what a front end needs to redraw after a case change.
type State struct {
	Index     int
	Count     int
	Case      models.Case
	Artifacts artifact.Set
}

func (s State) AtFirst() bool { return s.Index == 0 }
func (s State) AtLast() bool { return s.Index == s.Count-1 }

// Artifact is the answer to a view request. Either Available is true and
// Path (plus Report for the report kind) is usable, or it is false and
// nothing partial is handed out.
type Artifact struct {
	Kind      models.ArtifactKind
	Path      string
	Available bool
	Report    *report.Report
	Err       error
}

type Listener func(State)

type Controller struct {
	cat    *catalog.Catalog
	root   string
	player VideoPlayer
	log    *logrus.Entry

	index     int
	artifacts artifact.Set
	listeners []Listener
	closed    bool
}

func New(cat *catalog.Catalog, root string, player VideoPlayer, logger logrus.FieldLogger) (*Controller, error) {
	if cat == nil || cat.Len() == 0 {
		return nil, catalog.ErrEmptyCatalog
	}
	if player == nil {
		return nil, errors.New("viewer: nil video player")
	}

	c := &Controller{
		cat:    cat,
		root:   root,
		player: player,
		log:    logging.Component(logger, "viewer"),
	}
	c.artifacts = c.resolve(0)

	return c, nil
}

// Subscribe registers fn for every case change. fn is not called for the
// current state; use State for that.
func (c *Controller) Subscribe(fn Listener) {
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) State() State {
	cs, _ := c.cat.At(c.index)
	return State{
		Index:     c.index,
		Count:     c.cat.Len(),
		Case:      cs,
		Artifacts: c.artifacts,
	}
}

func (c *Controller) Index() int { return c.index }

// Start begins playback of the first case's clip.
func (c *Controller) Start() {
	c.log.WithField("cases", c.cat.Len()).Info("viewer started")
	c.switchVideo()
}

func (c *Controller) Next() bool {
	if c.closed || c.index >= c.cat.Len()-1 {
		return false
	}
	c.moveTo(c.index + 1)
	return true
}

func (c *Controller) Previous() bool {
	if c.closed || c.index <= 0 {
		return false
	}
	c.moveTo(c.index - 1)
	return true
}

func (c *Controller) moveTo(i int) {
	c.index = i
	c.artifacts = c.resolve(i)

	st := c.State()
	c.log.WithFields(logrus.Fields{
		"index": st.Index,
		"case":  st.Case.Key,
	}).Debug("case changed")

	for _, fn := range c.listeners {
		fn(st)
	}

	c.switchVideo()
}

func (c *Controller) resolve(i int) artifact.Set {
	cs, _ := c.cat.At(i)
	return artifact.Resolve(c.root, cs)
}

// switchVideo always stops the current clip before anything else touches
// the player.
func (c *Controller) switchVideo() {
	c.player.Stop()

	path := c.artifacts.Video
	if !artifact.Exists(path) {
		c.log.WithField("path", path).Warn("video not found")
		return
	}

	if err := c.player.Load(path); err != nil {
		c.log.WithError(err).WithField("path", path).Error("failed to load video")
		return
	}

	c.player.Play()
}

// Select resolves one artifact of the current case for display. It never
// fails; problems are reported through Artifact.Err.
func (c *Controller) Select(kind models.ArtifactKind) Artifact {
	path := c.artifacts.Path(kind)
	a := Artifact{Kind: kind, Path: path}

	switch {
	case kind == models.KindReport:
		r, err := report.Parse(path)
		if err != nil {
			a.Err = err
			c.logUnavailable(kind, path, err)
			return a
		}
		a.Report = r
		a.Available = true

	case kind.IsImage() || kind == models.KindVideo:
		if !artifact.Exists(path) {
			a.Err = fmt.Errorf("%s not found: %s", kind, path)
			c.logUnavailable(kind, path, nil)
			return a
		}
		a.Available = true

	default:
		a.Err = fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	return a
}

func (c *Controller) logUnavailable(kind models.ArtifactKind, path string, err error) {
	entry := c.log.WithFields(logrus.Fields{
		"kind": kind,
		"path": path,
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn("artifact unavailable")
}

// Close stops playback. It is safe to call more than once.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.player.Stop()
	c.log.Info("viewer closed")
}
