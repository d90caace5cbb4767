package ui

import (
	"errors"
	"fmt"
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"casevue/internal/artifact"
	"casevue/internal/catalog"
	"casevue/internal/config"
	"casevue/internal/logging"
	"casevue/internal/models"
	"casevue/internal/report"
	"casevue/internal/ui/cwidget"
	"casevue/internal/viewer"
	"casevue/processing/player"
)

const (
	AppID       = "com.casevue.viewer"
	windowTitle = "Medical Image Viewer"

	unavailableText = "Not available"
	fpsFormat       = "FPS: %d"
	videoCaption    = "Otoscope videos collected from clinics."
)

var _ viewer.VideoPlayer = (*player.Player)(nil)

// playback is the part of the player the window reads while frames arrive.
type playback interface {
	Clip() uint64
	FPS() uint
}

type panelSpec struct {
	kind        models.ArtifactKind
	title       string
	description string
}

var panelSpecs = [...]panelSpec{
	{models.KindImage, "Select Frame", "The AI picks the best frame for making a diagnosis here."},
	{models.KindMask, "Segmentation", "The AI is trying to pinpoint the exact area of the eardrum here."},
	{models.KindReport, "Diagnose", "The AI figures out which medical diagnosis is the most likely."},
	{models.KindGradCAM, "Grad-CAM", "The AI shows which areas it focused on to make this diagnosis, going from red to blue (most important to least important)."},
}

type ViewerApp struct {
	fyneApp fyne.App
	mainWin fyne.Window

	config     *config.Config
	controller *viewer.Controller
	log        *logrus.Entry

	videoCanvas   *canvas.Image
	videoStatus   *widget.Label
	fpsLabel      *widget.Label
	positionLabel *widget.Label
	prevBtn       *widget.Button
	nextBtn       *widget.Button
	panels        map[models.ArtifactKind]*cwidget.ArtifactPanel

	playback playback
}

// CreateApp wires a Fyne window, the playback handle and the navigation
// controller around an already loaded catalog.
func CreateApp(cfg *config.Config, cat *catalog.Catalog, logger logrus.FieldLogger) (*ViewerApp, error) {
	return newViewerApp(app.NewWithID(AppID), cfg, cat, logger, nil)
}

func newViewerApp(a fyne.App, cfg *config.Config, cat *catalog.Catalog, logger logrus.FieldLogger, vp viewer.VideoPlayer) (*ViewerApp, error) {
	a.Settings().SetTheme(NewTheme(cfg.GetTheme()))
	a.SetIcon(theme.MediaVideoIcon())

	w := a.NewWindow(windowTitle)
	w.Resize(fyne.NewSize(900, 600))

	va := &ViewerApp{
		fyneApp: a,
		mainWin: w,
		config:  cfg,
		log:     logging.Component(logger, "ui"),
		panels:  make(map[models.ArtifactKind]*cwidget.ArtifactPanel),
	}

	if vp == nil {
		vp = player.New(cfg.GetVideo(), va.showFrame, logger)
	}
	if pb, ok := vp.(playback); ok {
		va.playback = pb
	}

	ctrl, err := viewer.New(cat, cfg.GetRoot(), vp, logger)
	if err != nil {
		return nil, err
	}
	va.controller = ctrl

	va.mainWin.SetContent(va.buildContent())
	va.controller.Subscribe(va.onCaseChanged)
	va.refreshNavigation(va.controller.State())

	return va, nil
}

func (a *ViewerApp) Run() {
	a.mainWin.SetCloseIntercept(func() {
		a.Close()
		a.fyneApp.Quit()
	})

	a.mainWin.Canvas().SetOnTypedKey(a.onKey)

	a.controller.Start()
	a.refreshVideoStatus()

	a.mainWin.CenterOnScreen()
	a.mainWin.ShowAndRun()

	// the close intercept is skipped when the app quits by other means
	a.Close()
}

// Close stops playback before the window goes away.
func (a *ViewerApp) Close() {
	a.log.Info("closing application")
	a.controller.Close()
}

func (a *ViewerApp) buildContent() fyne.CanvasObject {
	a.prevBtn = widget.NewButton("⟨ Previous", a.previous)
	a.nextBtn = widget.NewButton("Next ⟩", a.next)

	a.positionLabel = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})

	nav := container.NewBorder(
		nil, nil,
		container.NewPadded(a.prevBtn),
		container.NewPadded(a.nextBtn),
		container.NewVBox(a.buildLogo(), a.positionLabel),
	)

	a.videoCanvas = canvas.NewImageFromImage(nil)
	a.videoCanvas.FillMode = canvas.ImageFillContain
	video := a.config.GetVideo()
	a.videoCanvas.SetMinSize(fyne.NewSize(float32(video.Width), float32(video.Height)))

	a.videoStatus = widget.NewLabel("")
	a.videoStatus.Alignment = fyne.TextAlignCenter
	a.videoStatus.Hidden = true

	a.fpsLabel = widget.NewLabel(fmt.Sprintf(fpsFormat, 0))

	videoSection := container.NewBorder(
		nil,
		container.NewBorder(nil, nil, nil, a.fpsLabel,
			widget.NewLabelWithStyle(videoCaption, fyne.TextAlignCenter, fyne.TextStyle{}),
		),
		nil, nil,
		container.NewStack(a.videoCanvas, container.NewCenter(a.videoStatus)),
	)

	features := container.NewGridWithColumns(len(panelSpecs))
	for _, spec := range panelSpecs {
		kind := spec.kind
		panel := cwidget.NewArtifactPanel(spec.title, spec.description, fyne.NewSize(200, 200), func() {
			a.showArtifact(kind)
		})
		a.panels[kind] = panel
		features.Add(panel)
	}

	return container.NewBorder(
		nav,
		container.NewPadded(features),
		nil, nil,
		videoSection,
	)
}

func (a *ViewerApp) buildLogo() fyne.CanvasObject {
	path := a.config.LogoPath
	if artifact.Exists(path) {
		logo := canvas.NewImageFromFile(path)
		logo.FillMode = canvas.ImageFillContain
		logo.SetMinSize(fyne.NewSize(600, 80))
		return logo
	}

	if path != "" {
		a.log.WithField("path", path).Debug("logo not found")
	}

	return widget.NewLabelWithStyle(windowTitle, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
}

func (a *ViewerApp) next() {
	a.controller.Next()
}

func (a *ViewerApp) previous() {
	a.controller.Previous()
}

func (a *ViewerApp) onKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyRight, fyne.KeyPageDown:
		a.next()
	case fyne.KeyLeft, fyne.KeyPageUp:
		a.previous()
	}
}

// onCaseChanged runs before the controller switches the clip.
func (a *ViewerApp) onCaseChanged(st viewer.State) {
	for _, p := range a.panels {
		p.Clear()
	}

	a.videoCanvas.Image = nil
	a.videoCanvas.Refresh()
	a.fpsLabel.SetText(fmt.Sprintf(fpsFormat, 0))

	a.refreshNavigation(st)
	a.refreshVideoStatus()
}

func (a *ViewerApp) refreshNavigation(st viewer.State) {
	a.positionLabel.SetText(fmt.Sprintf("Case %d of %d: %s", st.Index+1, st.Count, st.Case.Key))

	if st.AtFirst() {
		a.prevBtn.Disable()
	} else {
		a.prevBtn.Enable()
	}

	if st.AtLast() {
		a.nextBtn.Disable()
	} else {
		a.nextBtn.Enable()
	}
}

func (a *ViewerApp) refreshVideoStatus() {
	if artifact.Exists(a.controller.State().Artifacts.Video) {
		a.videoStatus.Hide()
		return
	}
	a.videoStatus.SetText("Video " + unavailableText)
	a.videoStatus.Show()
}

func (a *ViewerApp) showArtifact(kind models.ArtifactKind) {
	panel := a.panels[kind]
	res := a.controller.Select(kind)

	if !res.Available {
		panel.SetUnavailable(unavailableText)

		if res.Err != nil && kind == models.KindReport && !errors.Is(res.Err, report.ErrReportNotFound) {
			dialog.ShowError(res.Err, a.mainWin)
		}
		return
	}

	switch kind {
	case models.KindReport:
		panel.SetContent(cwidget.NewProbabilityChart(res.Report))
	default:
		panel.SetImageFile(res.Path)
	}
}

func (a *ViewerApp) showFrame(clip uint64, img image.Image) {
	fyne.Do(func() {
		if a.playback == nil {
			return
		}
		if a.playback.Clip() != clip {
			return
		}
		a.videoCanvas.Image = img
		a.videoCanvas.Refresh()
		a.fpsLabel.SetText(fmt.Sprintf(fpsFormat, a.playback.FPS()))
	})
}
