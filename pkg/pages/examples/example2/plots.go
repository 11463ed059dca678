package example2

import (
	"context"
	"fmt"

	"github.com/joeydtaylor/steeze-dq/pkg/dq"
)

func dated(n int) dq.Func {
	return func(_ context.Context, a dq.Args) (string, error) {
		return fmt.Sprintf("<div>This is plot %d (from: %s, to: %s)</div>",
			n, a.Start.Format("2006-01-02"), a.End.Format("2006-01-02")), nil
	}
}

// Plots registers the compiled items of examples.example2.
func Plots(m *dq.Module) error {
	m.Item("Second Plot", "Another shiny plot.", dated(2))
	m.Item("Third Plot", "Yet another shiny plot.", dated(3), dq.WithExportName("third_plot"))
	return m.Err()
}
