package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"casevue/internal/config"
	"casevue/internal/ui/cwidget"
)

// viewerTheme pins the default theme to one variant and tints the
// background the way the clinic build did.
type viewerTheme struct {
	fyne.Theme

	variant fyne.ThemeVariant
	palette map[fyne.ThemeColorName]color.Color
}

var (
	lightPalette = map[fyne.ThemeColorName]color.Color{
		theme.ColorNameBackground:       color.NRGBA{R: 0xE0, G: 0xF0, B: 0xFF, A: 0xFF},
		theme.ColorNameHeaderBackground: color.NRGBA{R: 0xCC, G: 0xE5, B: 0xFF, A: 0xFF},
		cwidget.ColorNamePlaceholder:    color.NRGBA{R: 0xD0, G: 0xE0, B: 0xF0, A: 0xFF},
	}
	darkPalette = map[fyne.ThemeColorName]color.Color{
		theme.ColorNameBackground:       color.NRGBA{R: 0x1E, G: 0x24, B: 0x2C, A: 0xFF},
		theme.ColorNameHeaderBackground: color.NRGBA{R: 0x26, G: 0x30, B: 0x3C, A: 0xFF},
		cwidget.ColorNamePlaceholder:    color.NRGBA{R: 0x2E, G: 0x38, B: 0x45, A: 0xFF},
	}
)

func NewTheme(name config.ThemeName) fyne.Theme {
	if name == config.ThemeDark {
		return &viewerTheme{Theme: theme.DefaultTheme(), variant: theme.VariantDark, palette: darkPalette}
	}
	return &viewerTheme{Theme: theme.DefaultTheme(), variant: theme.VariantLight, palette: lightPalette}
}

func (t *viewerTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	if c, ok := t.palette[name]; ok {
		return c
	}
	return t.Theme.Color(name, t.variant)
}
