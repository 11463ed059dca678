// pkg/plot/item.go
package plot

import (
	"context"
	"fmt"
	"time"

	"github.com/joeydtaylor/steeze-dq/pkg/dq"
	"github.com/joeydtaylor/steeze-dq/pkg/store"
)

// KindDatePlot is the declarative item kind served by DatePlotItem.
const KindDatePlot = "date_plot"

// DatePlot fetches q for the args' date range and renders it. A positive
// Binning averages the points over that many minutes.
func DatePlot(ctx context.Context, db store.Queryer, q DateQuery, c Chart, a dq.Args) (string, error) {
	pts, err := q.Fetch(ctx, db, a.Start, a.End)
	if err != nil {
		return "", fmt.Errorf("query %s.%s: %w", q.Table, q.Column, err)
	}
	if a.Binning > 0 {
		pts = Bin(pts, time.Duration(a.Binning)*time.Minute)
	}
	c.Points = pts
	return c.Render()
}

// DatePlotItem builds date_plot items. Params: table, column (required),
// date_column, logic, title, y_label.
func DatePlotItem(db store.Queryer) dq.ItemFactory {
	return func(def dq.ItemDef) (dq.Func, error) {
		p := def.Params
		if p["table"] == "" || p["column"] == "" {
			return nil, fmt.Errorf("%s item %q: params.table and params.column are required", KindDatePlot, def.Name)
		}
		q := DateQuery{
			Table:      p["table"],
			Column:     p["column"],
			DateColumn: p["date_column"],
			Logic:      p["logic"],
		}
		title := p["title"]
		if title == "" {
			title = def.Name
		}
		c := Chart{Title: title, YLabel: p["y_label"]}
		return func(ctx context.Context, a dq.Args) (string, error) {
			return DatePlot(ctx, db, q, c, a)
		}, nil
	}
}
