// pkg/pages/pages.go
package pages

import (
	"embed"
	"io/fs"
	"os"

	"github.com/joeydtaylor/steeze-dq/pkg/config"
	"github.com/joeydtaylor/steeze-dq/pkg/dq"
	"github.com/joeydtaylor/steeze-dq/pkg/pages/examples/example2"
	"github.com/joeydtaylor/steeze-dq/pkg/pages/telescope/seeing"
	"github.com/joeydtaylor/steeze-dq/pkg/pages/telescope/throughput"
	"github.com/joeydtaylor/steeze-dq/pkg/plot"
	"github.com/joeydtaylor/steeze-dq/pkg/store"
	"go.uber.org/zap"
)

//go:embed examples instrument telescope
var embedded embed.FS

// Deps are handed to compiled modules and declarative factories.
type Deps struct {
	DB store.Queryer
}

func (d Deps) db() store.Queryer {
	if d.DB == nil {
		return store.Unavailable{}
	}
	return d.DB
}

// Embedded returns the page tree compiled into the binary.
func Embedded() fs.FS { return embedded }

// Root returns the page tree at dir, or the embedded one when dir is empty.
func Root(dir string) fs.FS {
	if dir == "" {
		return embedded
	}
	return os.DirFS(dir)
}

// Catalog lists the compiled modules by dotted module name.
func Catalog(d Deps) dq.Catalog {
	return dq.Catalog{
		"examples.example2.plots":    example2.Plots,
		"telescope.throughput.plots": throughput.Plots(d.db()),
		"telescope.seeing.seeing":    seeing.Seeing(d.db()),
	}
}

// LoaderOptions wires the catalog and the date_plot factory.
func LoaderOptions(d Deps) []dq.LoaderOption {
	return []dq.LoaderOption{
		dq.WithCatalog(Catalog(d)),
		dq.WithFactory(plot.KindDatePlot, plot.DatePlotItem(d.db())),
	}
}

// NewLoader builds a loader over the configured page tree with a fresh registry.
func NewLoader(cfg config.Pages, d Deps, log *zap.Logger, extra ...dq.LoaderOption) *dq.Loader {
	opts := append(LoaderOptions(d), dq.WithLogger(log))
	opts = append(opts, extra...)
	return dq.NewLoader(Root(cfg.Dir), dq.NewRegistry(), opts...)
}
