package plot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/joeydtaylor/steeze-dq/pkg/dq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	t time.Time
	y *float64
}

// fakeRows overrides the pgx.Rows methods scanPoints uses.
type fakeRows struct {
	pgx.Rows
	rows   []row
	i      int
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.rows) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...interface{}) error {
	cur := r.rows[r.i-1]
	*(dest[0].(*time.Time)) = cur.t
	*(dest[1].(**float64)) = cur.y
	return nil
}

func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     { r.closed = true }

type fakeDB struct {
	sql  string
	args []interface{}
	rows *fakeRows
	err  error
}

func (f *fakeDB) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return nil, errors.New("not supported")
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	f.sql, f.args = sql, args
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeDB) QueryRow(context.Context, string, ...interface{}) pgx.Row { return nil }

func fp(v float64) *float64 { return &v }

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func TestDateQuerySQL(t *testing.T) {
	q := DateQuery{
		Table:  "PipelineDataQuality_CCD",
		Column: "BkgdMean",
		Logic:  `AND "FileName" LIKE 'P%'`,
	}
	assert.Equal(t,
		`SELECT "Date", "BkgdMean" FROM "PipelineDataQuality_CCD" WHERE "Date" >= $1 AND "Date" < $2 AND "FileName" LIKE 'P%' ORDER BY "Date"`,
		q.SQL())

	q = DateQuery{Table: "sdb.Seeing", Column: `we"ird`, DateColumn: "ts"}
	assert.Equal(t,
		`SELECT "ts", "we""ird" FROM "sdb"."Seeing" WHERE "ts" >= $1 AND "ts" < $2 ORDER BY "ts"`,
		q.SQL())
}

func TestFetchSkipsNulls(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{rows: []row{{day(1), fp(1.5)}, {day(2), nil}, {day(3), fp(2)}}}}
	pts, err := DateQuery{Table: "t", Column: "c"}.Fetch(context.Background(), db, day(1), day(4))
	require.NoError(t, err)
	assert.Equal(t, []Point{{day(1), 1.5}, {day(3), 2}}, pts)
	assert.Equal(t, []interface{}{day(1), day(4)}, db.args)
	assert.True(t, db.rows.closed)
}

func TestBin(t *testing.T) {
	base := day(1)
	pts := []Point{
		{base.Add(1 * time.Minute), 1},
		{base.Add(4 * time.Minute), 3},
		{base.Add(11 * time.Minute), 10},
	}
	got := Bin(pts, 10*time.Minute)
	assert.Equal(t, []Point{{base, 2}, {base.Add(10 * time.Minute), 10}}, got)
	assert.Equal(t, pts, Bin(pts, 0))
}

func TestChartRender(t *testing.T) {
	out, err := Chart{Title: "RSS <Bias>", YLabel: "e", Points: []Point{{day(1), 1}, {day(3), 2}}}.Render()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `<div class="dq-plot"><svg`))
	assert.Equal(t, 2, strings.Count(out, "<circle"))
	assert.Contains(t, out, "RSS &lt;Bias&gt;")
	assert.Contains(t, out, "2024-01-01")
	assert.Contains(t, out, "2024-01-03")
	assert.Contains(t, out, `<script type="application/json" class="dq-data">[{"t":"2024-01-01T00:00:00Z","y":1},{"t":"2024-01-03T00:00:00Z","y":2}]</script>`)
}

func TestChartRenderEmpty(t *testing.T) {
	out, err := Chart{Title: "nothing"}.Render()
	require.NoError(t, err)
	assert.Contains(t, out, "No data")
	assert.NotContains(t, out, "<circle")
	assert.Contains(t, out, `class="dq-data">[]</script>`)
}

func TestDatePlotItem(t *testing.T) {
	_, err := DatePlotItem(&fakeDB{})(dq.ItemDef{Name: "x", Params: map[string]string{"table": "t"}})
	assert.Error(t, err)

	db := &fakeDB{rows: &fakeRows{rows: []row{{day(1), fp(4)}}}}
	fn, err := DatePlotItem(db)(dq.ItemDef{Name: "rss_bias", Params: map[string]string{
		"table": "PipelineDataQuality_CCD", "column": "BkgdMean", "y_label": "Bias (e)",
	}})
	require.NoError(t, err)
	out, err := fn(context.Background(), dq.Args{Start: day(1), End: day(2)})
	require.NoError(t, err)
	assert.Contains(t, out, "rss_bias")
	assert.Contains(t, out, "Bias (e)")
	assert.Contains(t, db.sql, `FROM "PipelineDataQuality_CCD"`)

	failing := &fakeDB{err: errors.New("boom")}
	fn, err = DatePlotItem(failing)(dq.ItemDef{Name: "x", Params: map[string]string{"table": "t", "column": "c"}})
	require.NoError(t, err)
	_, err = fn(context.Background(), dq.Args{})
	assert.ErrorContains(t, err, "boom")
}
