package throughput

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/joeydtaylor/steeze-dq/pkg/dq"
	"github.com/joeydtaylor/steeze-dq/pkg/plot"
	"github.com/joeydtaylor/steeze-dq/pkg/store"
)

func throughputSQL(column string) string {
	c := pgx.Identifier{"t", column}.Sanitize()
	return fmt.Sprintf(`SELECT n."Date", %s FROM "Throughput" t JOIN "NightInfo" n USING ("NightInfo_Id") `+
		`WHERE n."Date" >= $1 AND n."Date" < $2 AND %s > 0 ORDER BY n."Date"`, c, c)
}

func throughputPlot(db store.Queryer, column, title string) dq.Func {
	q := throughputSQL(column)
	return func(ctx context.Context, a dq.Args) (string, error) {
		pts, err := plot.Query(ctx, db, q, a.Start, a.End)
		if err != nil {
			return "", fmt.Errorf("throughput %s: %w", column, err)
		}
		return plot.Chart{Title: title, YLabel: "Telescope Throughput", Points: pts}.Render()
	}
}

// Plots registers the throughput items against db.
func Plots(db store.Queryer) dq.ModuleFunc {
	return func(m *dq.Module) error {
		m.Item("telescope_throughput", "", throughputPlot(db, "TelescopeThroughput", "Telescope throughput"))
		return m.Err()
	}
}
