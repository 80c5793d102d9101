// Package chart renders a labeled count series as an inline SVG bar chart.
// It knows nothing about where the counts came from.
package chart

import (
	"fmt"
	"html"
	"strings"

	"github.com/yourorg/jobtrack/internal/domain"
)

// Theme selects the chart color palette
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme maps a cookie value to a theme, defaulting to light
func ParseTheme(value string) Theme {
	if value == string(ThemeDark) {
		return ThemeDark
	}
	return ThemeLight
}

type palette struct {
	background string
	text       string
	bars       []string
}

var palettes = map[Theme]palette{
	ThemeLight: {
		background: "#ffffff",
		text:       "#333333",
		bars:       []string{"#0d6efd", "#6f42c1", "#d63384", "#fd7e14", "#198754"},
	},
	ThemeDark: {
		background: "#2b2b4d",
		text:       "#e0e0e0",
		bars:       []string{"#e94560", "#1abc9c", "#f1c40f", "#3498db", "#e74c3c"},
	},
}

const (
	chartWidth  = 800
	chartHeight = 400
	marginX     = 60
	marginTop   = 60
	marginBot   = 50
)

// StatusBars renders a vertical bar chart of applications by status
func StatusBars(points []domain.ChartPoint, theme Theme) string {
	return render(points, theme, "Applications by Status", false)
}

// CompanyBars renders a horizontal bar chart of the busiest companies
func CompanyBars(points []domain.ChartPoint, theme Theme) string {
	return render(points, theme, "Top 5 Companies", true)
}

func render(points []domain.ChartPoint, theme Theme, title string, horizontal bool) string {
	if len(points) == 0 {
		return ""
	}

	p := palettes[theme]
	maxCount := 0
	for _, pt := range points {
		if pt.Count > maxCount {
			maxCount = pt.Count
		}
	}
	if maxCount == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img">`, chartWidth, chartHeight)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="%s"/>`, chartWidth, chartHeight, p.background)
	fmt.Fprintf(&b, `<text x="%d" y="30" fill="%s" font-size="20" text-anchor="middle" font-family="sans-serif">%s</text>`,
		chartWidth/2, p.text, html.EscapeString(title))

	if horizontal {
		renderHorizontal(&b, points, p, maxCount)
	} else {
		renderVertical(&b, points, p, maxCount)
	}

	b.WriteString(`</svg>`)
	return b.String()
}

func renderVertical(b *strings.Builder, points []domain.ChartPoint, p palette, maxCount int) {
	plotW := chartWidth - 2*marginX
	plotH := chartHeight - marginTop - marginBot
	slot := plotW / len(points)
	barW := slot * 3 / 4

	for i, pt := range points {
		h := pt.Count * plotH / maxCount
		x := marginX + i*slot + (slot-barW)/2
		y := marginTop + plotH - h
		color := p.bars[i%len(p.bars)]

		fmt.Fprintf(b, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`, x, y, barW, h, color)
		fmt.Fprintf(b, `<text x="%d" y="%d" fill="%s" font-size="14" text-anchor="middle" font-family="sans-serif">%d</text>`,
			x+barW/2, y-6, p.text, pt.Count)
		fmt.Fprintf(b, `<text x="%d" y="%d" fill="%s" font-size="14" text-anchor="middle" font-family="sans-serif">%s</text>`,
			x+barW/2, marginTop+plotH+20, p.text, html.EscapeString(pt.Label))
	}
}

func renderHorizontal(b *strings.Builder, points []domain.ChartPoint, p palette, maxCount int) {
	// Labels sit to the left of the bars, so the left margin is wider.
	left := 180
	plotW := chartWidth - left - marginX
	plotH := chartHeight - marginTop - marginBot
	slot := plotH / len(points)
	barH := slot * 3 / 4

	for i, pt := range points {
		w := pt.Count * plotW / maxCount
		y := marginTop + i*slot + (slot-barH)/2

		fmt.Fprintf(b, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`, left, y, w, barH, p.bars[0])
		fmt.Fprintf(b, `<text x="%d" y="%d" fill="%s" font-size="14" text-anchor="end" font-family="sans-serif">%s</text>`,
			left-10, y+barH/2+5, p.text, html.EscapeString(pt.Label))
		fmt.Fprintf(b, `<text x="%d" y="%d" fill="%s" font-size="14" font-family="sans-serif">%d</text>`,
			left+w+8, y+barH/2+5, p.text, pt.Count)
	}
}
