package cwidget

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// ColorNamePlaceholder is the fill behind an empty artifact slot. Themes
// that do not know it fall back to their own default.
const ColorNamePlaceholder fyne.ThemeColorName = "casevuePlaceholder"

// ArtifactPanel is a button, a fixed-size slot that shows one artifact,
// and a short description underneath.
type ArtifactPanel struct {
	widget.BaseWidget

	button      *widget.Button
	background  *canvas.Rectangle
	content     *fyne.Container
	status      *widget.Label
	description *widget.Label

	slotSize fyne.Size
}

func NewArtifactPanel(title, description string, slotSize fyne.Size, onSelect func()) *ArtifactPanel {
	p := &ArtifactPanel{slotSize: slotSize}

	p.button = widget.NewButton(title, onSelect)

	p.background = canvas.NewRectangle(theme.Color(ColorNamePlaceholder))
	p.background.CornerRadius = 10

	p.content = container.NewStack()

	p.status = widget.NewLabel("")
	p.status.Alignment = fyne.TextAlignCenter
	p.status.TextStyle = fyne.TextStyle{Italic: true}
	p.status.Importance = widget.WarningImportance
	p.status.Hidden = true

	p.description = widget.NewLabel(description)
	p.description.Alignment = fyne.TextAlignCenter
	p.description.Wrapping = fyne.TextWrapWord

	p.ExtendBaseWidget(p)

	return p
}

func (p *ArtifactPanel) CreateRenderer() fyne.WidgetRenderer {
	slot := container.NewStack(
		p.background,
		p.content,
		container.NewCenter(p.status),
	)

	c := container.NewBorder(
		container.NewVBox(p.button, container.NewGridWrap(p.slotSize, slot)),
		nil, nil, nil,
		p.description,
	)

	return widget.NewSimpleRenderer(c)
}

// SetImageFile shows the image at path scaled into the slot.
func (p *ArtifactPanel) SetImageFile(path string) {
	img := canvas.NewImageFromFile(path)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleSmooth

	p.SetContent(img)
}

func (p *ArtifactPanel) SetContent(obj fyne.CanvasObject) {
	p.status.Hide()
	p.content.Objects = []fyne.CanvasObject{obj}
	p.content.Refresh()
}

// SetUnavailable empties the slot and shows msg instead.
func (p *ArtifactPanel) SetUnavailable(msg string) {
	p.content.Objects = nil
	p.content.Refresh()
	p.status.SetText(msg)
	p.status.Show()
}

func (p *ArtifactPanel) Clear() {
	p.content.Objects = nil
	p.content.Refresh()
	p.status.Hide()
}

func (p *ArtifactPanel) HasContent() bool {
	return len(p.content.Objects) > 0
}

// StatusText is the "not available" message, or "" when none is shown.
func (p *ArtifactPanel) StatusText() string {
	if p.status.Hidden {
		return ""
	}
	return p.status.Text
}

func (p *ArtifactPanel) Button() *widget.Button {
	return p.button
}
