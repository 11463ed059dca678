// pkg/plot/svg.go
package plot

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"
)

const (
	defaultWidth  = 720
	defaultHeight = 360

	marginLeft   = 70
	marginRight  = 20
	marginTop    = 36
	marginBottom = 48
)

// Chart is a date/value scatter plot.
type Chart struct {
	Title  string
	XLabel string
	YLabel string
	Width  int
	Height int
	Points []Point
}

type dot struct {
	X, Y  string
	Label string
}

type view struct {
	Title, XLabel, YLabel string
	Width, Height         int
	Left, Right           int
	Top, Bottom           int
	MidX, MidY            int
	Dots                  []dot
	XMin, XMax            string
	YMin, YMax            string
	Empty                 bool
	Data                  template.JS
}

var chartTpl = template.Must(template.New("chart").Parse(`<div class="dq-plot">` +
	`<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}" role="img" aria-label="{{.Title}}">` +
	`<text class="dq-title" x="{{.MidX}}" y="20" text-anchor="middle">{{.Title}}</text>` +
	`<line class="dq-axis" x1="{{.Left}}" y1="{{.Bottom}}" x2="{{.Right}}" y2="{{.Bottom}}" stroke="black"/>` +
	`<line class="dq-axis" x1="{{.Left}}" y1="{{.Top}}" x2="{{.Left}}" y2="{{.Bottom}}" stroke="black"/>` +
	`{{if .Empty}}<text class="dq-empty" x="{{.MidX}}" y="{{.MidY}}" text-anchor="middle">No data</text>` +
	`{{else}}` +
	`<text x="{{.Left}}" y="{{.Bottom}}" dy="16" text-anchor="start">{{.XMin}}</text>` +
	`<text x="{{.Right}}" y="{{.Bottom}}" dy="16" text-anchor="end">{{.XMax}}</text>` +
	`<text x="{{.Left}}" y="{{.Bottom}}" dx="-6" text-anchor="end">{{.YMin}}</text>` +
	`<text x="{{.Left}}" y="{{.Top}}" dx="-6" dy="10" text-anchor="end">{{.YMax}}</text>` +
	`{{range .Dots}}<circle cx="{{.X}}" cy="{{.Y}}" r="4" fill="blue" fill-opacity="0.3" stroke="blue"><title>{{.Label}}</title></circle>{{end}}` +
	`{{end}}` +
	`<text class="dq-xlabel" x="{{.MidX}}" y="{{.Height}}" dy="-8" text-anchor="middle">{{.XLabel}}</text>` +
	`<text class="dq-ylabel" x="14" y="{{.MidY}}" transform="rotate(-90 14 {{.MidY}})" text-anchor="middle">{{.YLabel}}</text>` +
	`</svg>` +
	`<script type="application/json" class="dq-data">{{.Data}}</script>` +
	`</div>`))

// Render returns the chart as an inline SVG followed by its data as JSON.
func (c Chart) Render() (string, error) {
	w, h := c.Width, c.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	xl := c.XLabel
	if xl == "" {
		xl = "Date"
	}

	pts := c.Points
	if pts == nil {
		pts = []Point{}
	}
	data, err := json.Marshal(pts)
	if err != nil {
		return "", fmt.Errorf("plot data: %w", err)
	}

	v := view{
		Title: c.Title, XLabel: xl, YLabel: c.YLabel,
		Width: w, Height: h,
		Left: marginLeft, Right: w - marginRight,
		Top: marginTop, Bottom: h - marginBottom,
		MidX: w / 2, MidY: h / 2,
		Empty: len(pts) == 0,
		Data:  template.JS(data),
	}

	if !v.Empty {
		tMin, tMax := pts[0].T, pts[0].T
		yMin, yMax := pts[0].Y, pts[0].Y
		for _, p := range pts[1:] {
			if p.T.Before(tMin) {
				tMin = p.T
			}
			if p.T.After(tMax) {
				tMax = p.T
			}
			if p.Y < yMin {
				yMin = p.Y
			}
			if p.Y > yMax {
				yMax = p.Y
			}
		}
		v.XMin, v.XMax = tMin.Format("2006-01-02"), tMax.Format("2006-01-02")
		v.YMin, v.YMax = fmt.Sprintf("%.4g", yMin), fmt.Sprintf("%.4g", yMax)

		span := float64(v.Right - v.Left)
		height := float64(v.Bottom - v.Top)
		tSpan := tMax.Sub(tMin)
		ySpan := yMax - yMin
		for _, p := range pts {
			x := float64(v.Left) + span/2
			if tSpan > 0 {
				x = float64(v.Left) + span*float64(p.T.Sub(tMin))/float64(tSpan)
			}
			y := float64(v.Top) + height/2
			if ySpan > 0 {
				y = float64(v.Bottom) - height*(p.Y-yMin)/ySpan
			}
			v.Dots = append(v.Dots, dot{
				X:     fmt.Sprintf("%.1f", x),
				Y:     fmt.Sprintf("%.1f", y),
				Label: p.T.Format(time.RFC3339) + ": " + fmt.Sprintf("%g", p.Y),
			})
		}
	}

	var b strings.Builder
	if err := chartTpl.Execute(&b, v); err != nil {
		return "", fmt.Errorf("plot render: %w", err)
	}
	return b.String(), nil
}
