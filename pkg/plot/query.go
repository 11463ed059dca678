// pkg/plot/query.go
package plot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/joeydtaylor/steeze-dq/pkg/store"
)

// Point is one observation.
type Point struct {
	T time.Time `json:"t"`
	Y float64   `json:"y"`
}

// DateQuery selects one numeric column against a date column of a table.
// Logic is appended verbatim to the WHERE clause; it comes from page authors,
// never from requests.
type DateQuery struct {
	Table      string
	Column     string
	DateColumn string
	Logic      string
}

func ident(s string) string {
	return pgx.Identifier(strings.Split(s, ".")).Sanitize()
}

// SQL returns the statement; $1 is the inclusive start, $2 the exclusive end.
func (q DateQuery) SQL() string {
	date := q.DateColumn
	if date == "" {
		date = "Date"
	}
	logic := strings.TrimSpace(q.Logic)
	if logic != "" {
		logic = " " + logic
	}
	d := pgx.Identifier{date}.Sanitize()
	return fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s >= $1 AND %s < $2%s ORDER BY %s",
		d, pgx.Identifier{q.Column}.Sanitize(), ident(q.Table), d, d, logic, d)
}

// Fetch runs the query for [start, end).
func (q DateQuery) Fetch(ctx context.Context, db store.Queryer, start, end time.Time) ([]Point, error) {
	return Query(ctx, db, q.SQL(), start, end)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close()
}

// Query runs sql and reads (time, number) rows. NULL values are skipped.
func Query(ctx context.Context, db store.Queryer, sql string, args ...interface{}) ([]Point, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanPoints(rows)
}

func scanPoints(rows rowScanner) ([]Point, error) {
	defer rows.Close()
	var out []Point
	for rows.Next() {
		var t time.Time
		var y *float64
		if err := rows.Scan(&t, &y); err != nil {
			return nil, err
		}
		if y == nil {
			continue
		}
		out = append(out, Point{T: t, Y: *y})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Bin averages points over consecutive intervals, keyed by interval start.
func Bin(points []Point, interval time.Duration) []Point {
	if interval <= 0 || len(points) == 0 {
		return points
	}
	type acc struct {
		sum float64
		n   int
	}
	bins := map[time.Time]*acc{}
	for _, p := range points {
		k := p.T.Truncate(interval)
		a, ok := bins[k]
		if !ok {
			a = &acc{}
			bins[k] = a
		}
		a.sum += p.Y
		a.n++
	}
	out := make([]Point, 0, len(bins))
	for k, a := range bins {
		out = append(out, Point{T: k, Y: a.sum / float64(a.n)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].T.Before(out[j].T) })
	return out
}
