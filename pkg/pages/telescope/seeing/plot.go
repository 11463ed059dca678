package seeing

import (
	"context"

	"github.com/joeydtaylor/steeze-dq/pkg/dq"
	"github.com/joeydtaylor/steeze-dq/pkg/plot"
	"github.com/joeydtaylor/steeze-dq/pkg/store"
)

func datePlot(db store.Queryer, q plot.DateQuery, c plot.Chart) dq.Func {
	return func(ctx context.Context, a dq.Args) (string, error) {
		return plot.DatePlot(ctx, db, q, c, a)
	}
}
