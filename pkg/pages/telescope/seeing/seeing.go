package seeing

import (
	"github.com/joeydtaylor/steeze-dq/pkg/dq"
	"github.com/joeydtaylor/steeze-dq/pkg/plot"
	"github.com/joeydtaylor/steeze-dq/pkg/store"
)

// Seeing registers the seeing items. Both honour the optional binning
// interval of the seeing form.
func Seeing(db store.Queryer) dq.ModuleFunc {
	return func(m *dq.Module) error {
		m.Item("seeing", "External seeing (DIMM).", datePlot(db,
			plot.DateQuery{Table: "seeing", Column: "seeing", DateColumn: "datetime"},
			plot.Chart{Title: "External seeing", YLabel: "Seeing (arcsec)"}))
		m.Item("ee50", "Internal seeing from the tracker guidance camera.", datePlot(db,
			plot.DateQuery{
				Table:      "tpc_guidance_status",
				Column:     "ee50",
				DateColumn: "timestamp",
				Logic:      `AND "guidance_available" = 'T'`,
			},
			plot.Chart{Title: "Internal seeing (EE50)", YLabel: "EE50 (arcsec)"}),
			dq.WithExportName("internal_seeing"))
		return m.Err()
	}
}
