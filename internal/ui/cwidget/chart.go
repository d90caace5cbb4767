package cwidget

import (
	"fmt"
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"casevue/internal/report"
)

// BarPalette is cycled through when there are more classes than colours.
var BarPalette = []color.Color{
	color.NRGBA{R: 0xFF, G: 0x99, B: 0x99, A: 0xFF},
	color.NRGBA{R: 0x66, G: 0xB2, B: 0xFF, A: 0xFF},
	color.NRGBA{R: 0x99, G: 0xFF, B: 0x99, A: 0xFF},
	color.NRGBA{R: 0xFF, G: 0xCC, B: 0x99, A: 0xFF},
	color.NRGBA{R: 0xFF, G: 0xD7, B: 0x00, A: 0xFF},
}

const (
	chartTitle  = "Diagnosis Probability"
	minBarWidth = 60
)

// ProbabilityChart draws one horizontal bar per class, in report order.
type ProbabilityChart struct {
	widget.BaseWidget

	Title   string
	entries []report.Entry
}

func NewProbabilityChart(r *report.Report) *ProbabilityChart {
	c := &ProbabilityChart{Title: chartTitle}
	if r != nil {
		c.entries = r.Entries()
	}
	c.ExtendBaseWidget(c)
	return c
}

func (c *ProbabilityChart) SetReport(r *report.Report) {
	c.entries = nil
	if r != nil {
		c.entries = r.Entries()
	}
	c.Refresh()
}

func (c *ProbabilityChart) CreateRenderer() fyne.WidgetRenderer {
	r := &chartRenderer{chart: c}
	r.rebuild()
	return r
}

type chartRow struct {
	label       *canvas.Text
	bar         *canvas.Rectangle
	value       *canvas.Text
	probability float64
}

type chartRenderer struct {
	chart   *ProbabilityChart
	title   *canvas.Text
	rows    []chartRow
	objects []fyne.CanvasObject
}

func (r *chartRenderer) rebuild() {
	fg := theme.Color(theme.ColorNameForeground)
	textSize := theme.Size(theme.SizeNameCaptionText)

	r.title = canvas.NewText(r.chart.Title, fg)
	r.title.TextStyle = fyne.TextStyle{Bold: true}
	r.title.Alignment = fyne.TextAlignCenter

	r.rows = r.rows[:0]
	r.objects = []fyne.CanvasObject{r.title}

	for i, e := range r.chart.entries {
		label := canvas.NewText(e.Class, fg)
		label.TextSize = textSize

		bar := canvas.NewRectangle(BarPalette[i%len(BarPalette)])
		bar.StrokeColor = fg
		bar.StrokeWidth = 1

		value := canvas.NewText(fmt.Sprintf("%.2f", e.Probability), fg)
		value.TextSize = textSize
		value.TextStyle = fyne.TextStyle{Bold: true}

		r.rows = append(r.rows, chartRow{label: label, bar: bar, value: value, probability: e.Probability})
		r.objects = append(r.objects, label, bar, value)
	}
}

func (r *chartRenderer) columns() (labelW, valueW, rowH float32) {
	for _, row := range r.rows {
		ls := row.label.MinSize()
		vs := row.value.MinSize()
		labelW = max(labelW, ls.Width)
		valueW = max(valueW, vs.Width)
		rowH = max(rowH, ls.Height, vs.Height)
	}
	return labelW, valueW, rowH
}

func (r *chartRenderer) Layout(size fyne.Size) {
	pad := theme.Size(theme.SizeNamePadding)

	titleSize := r.title.MinSize()
	r.title.Move(fyne.NewPos(0, 0))
	r.title.Resize(fyne.NewSize(size.Width, titleSize.Height))

	if len(r.rows) == 0 {
		return
	}

	labelW, valueW, textH := r.columns()
	top := titleSize.Height + pad
	rowH := max((size.Height-top)/float32(len(r.rows)), textH)
	barX := labelW + 2*pad
	barMax := max(size.Width-barX-valueW-2*pad, 0)
	barH := rowH * 0.7

	for i, row := range r.rows {
		y := top + float32(i)*rowH

		row.label.Move(fyne.NewPos(pad, y+(rowH-textH)/2))
		row.label.Resize(fyne.NewSize(labelW, textH))

		w := barMax * float32(clampUnit(row.probability))
		row.bar.Move(fyne.NewPos(barX, y+(rowH-barH)/2))
		row.bar.Resize(fyne.NewSize(w, barH))

		row.value.Move(fyne.NewPos(barX+w+pad, y+(rowH-textH)/2))
		row.value.Resize(fyne.NewSize(valueW, textH))
	}
}

func (r *chartRenderer) MinSize() fyne.Size {
	pad := theme.Size(theme.SizeNamePadding)
	titleSize := r.title.MinSize()

	labelW, valueW, rowH := r.columns()
	w := max(titleSize.Width, labelW+valueW+minBarWidth+4*pad)
	h := titleSize.Height + pad + float32(len(r.rows))*(rowH+pad)

	return fyne.NewSize(w, h)
}

func (r *chartRenderer) Refresh() {
	r.rebuild()
	r.Layout(r.chart.Size())
	canvas.Refresh(r.chart)
}

func (r *chartRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *chartRenderer) Destroy() {}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), 1)
}
