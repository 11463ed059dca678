// pkg/forms/forms.go
package forms

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/joeydtaylor/steeze-dq/pkg/dq"
)

const (
	KindDefault   = "default"
	KindDateRange = "date_range"
	KindSeeing    = "seeing"
	KindStatic    = "static"

	FieldStart   = "start_date"
	FieldEnd     = "end_date"
	FieldBinning = "binning"

	defaultDays = 7
)

// Form is a query form shown above a page's content.
type Form interface {
	Valid() bool
	Args() dq.Args
	HTML() (template.HTML, error)
}

// Fields lists the request parameters a page kind remembers per path.
func Fields(kind string) []string {
	switch kind {
	case KindDateRange:
		return []string{FieldStart, FieldEnd}
	case KindSeeing:
		return []string{FieldStart, FieldEnd, FieldBinning}
	}
	return nil
}

// Known reports whether kind is a page kind this package understands.
func Known(kind string) bool {
	switch kind {
	case KindDefault, KindDateRange, KindSeeing, KindStatic:
		return true
	}
	return false
}

// HasForm reports whether pages of kind take query parameters.
func HasForm(kind string) bool { return len(Fields(kind)) > 0 }

// Defaults returns the default range of a page relative to now.
func Defaults(pc dq.PageConfig, now time.Time) (start, end time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	days := pc.DefaultDays
	if days <= 0 {
		days = defaultDays
	}
	return today.AddDate(0, 0, -days), today.AddDate(0, 0, -pc.EndOffsetDays)
}

// ForPage builds the form of pc's kind from params, or nil if the kind has none.
func ForPage(pc dq.PageConfig, params map[string]string, now time.Time, layout string) Form {
	start, end := Defaults(pc, now)
	switch pc.Kind {
	case KindDateRange:
		return NewDateRange(params, start, end, layout)
	case KindSeeing:
		return NewSeeing(params, start, end, layout)
	}
	return nil
}

// parseDate accepts the form layout first and falls back to any
// recognizable date, since stored values may predate a layout change.
func parseDate(s, layout string) (time.Time, error) {
	if t, err := time.Parse(layout, s); err == nil {
		return t, nil
	}
	return dateparse.ParseIn(s, time.UTC)
}

// DateRange is a start/end form. Empty fields fall back to the defaults.
type DateRange struct {
	Start, End       time.Time
	StartRaw, EndRaw string
	Layout           string
	Errors           map[string]string
}

func NewDateRange(params map[string]string, defStart, defEnd time.Time, layout string) *DateRange {
	if layout == "" {
		layout = "2006-01-02"
	}
	f := &DateRange{Layout: layout, Errors: map[string]string{}}
	f.StartRaw, f.Start = f.field(params, FieldStart, defStart)
	f.EndRaw, f.End = f.field(params, FieldEnd, defEnd)
	f.validate()
	return f
}

func (f *DateRange) field(params map[string]string, name string, def time.Time) (string, time.Time) {
	raw := strings.TrimSpace(params[name])
	if raw == "" {
		if def.IsZero() {
			f.Errors[name] = "This field is required."
			return "", time.Time{}
		}
		return def.Format(f.Layout), def
	}
	t, err := parseDate(raw, f.Layout)
	if err != nil {
		f.Errors[name] = "Not a valid date value"
		return raw, time.Time{}
	}
	return raw, t
}

func (f *DateRange) validate() {
	if len(f.Errors) > 0 {
		return
	}
	if !f.Start.Before(f.End) {
		f.Errors[FieldEnd] = "The end date must be after the start date"
	}
}

func (f *DateRange) Valid() bool   { return len(f.Errors) == 0 }
func (f *DateRange) Args() dq.Args { return dq.Args{Start: f.Start, End: f.End} }

func (f *DateRange) HTML() (template.HTML, error) {
	return render(formView{DateRange: f})
}

// Seeing adds an optional binning interval in minutes.
type Seeing struct {
	*DateRange
	BinningRaw string
	Binning    int
}

func NewSeeing(params map[string]string, defStart, defEnd time.Time, layout string) *Seeing {
	f := &Seeing{DateRange: NewDateRange(params, defStart, defEnd, layout)}
	f.BinningRaw = strings.TrimSpace(params[FieldBinning])
	if f.BinningRaw != "" {
		n, err := strconv.Atoi(f.BinningRaw)
		if err != nil || n < 1 {
			f.Errors[FieldBinning] = "The optional binning interval must be an integer greater than 0."
		} else {
			f.Binning = n
		}
	}
	return f
}

func (f *Seeing) Args() dq.Args {
	a := f.DateRange.Args()
	a.Binning = f.Binning
	return a
}

func (f *Seeing) HTML() (template.HTML, error) {
	return render(formView{DateRange: f.DateRange, Binning: true, BinningRaw: f.BinningRaw})
}

type formView struct {
	*DateRange
	Binning    bool
	BinningRaw string
}

var formTpl = template.Must(template.New("form").Parse(`<form class="dq-query" method="post">
<label>Start <input type="text" name="start_date" value="{{.StartRaw}}"></label>
{{with index .Errors "start_date"}}<span class="error">{{.}}</span>
{{end}}<label>End <input type="text" name="end_date" value="{{.EndRaw}}"></label>
{{with index .Errors "end_date"}}<span class="error">{{.}}</span>
{{end}}{{if .Binning}}<label>binning interval (minutes) <input type="text" name="binning" value="{{.BinningRaw}}"></label>
{{with index .Errors "binning"}}<span class="error">{{.}}</span>
{{end}}{{end}}<input type="submit" value="Query">
</form>`))

func render(v formView) (template.HTML, error) {
	var b strings.Builder
	if err := formTpl.Execute(&b, v); err != nil {
		return "", fmt.Errorf("form render: %w", err)
	}
	return template.HTML(b.String()), nil
}
