package render

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/estensen/chain-dashboard/internal/models"
)

// Table prints both rankings of a summary as terminal tables.
func Table(w io.Writer, summary *models.Summary) {
	if len(summary.Dataset) == 0 {
		fmt.Fprintln(w, "No transactions to display.")
		return
	}

	first, last := summary.Dataset.Span()
	fmt.Fprintf(w, "Transactions per chain from %s to %s (%d rows):\n",
		first.Format(dateLayout), last.Format(dateLayout), len(summary.Dataset))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Rank", "Chain", "Total Txns", "Avg Daily Txns"})

	averages := make(map[string]int64, len(summary.Averages))
	for _, agg := range summary.Averages {
		averages[agg.Chain] = agg.TxnsCount
	}

	for i, agg := range summary.Totals {
		t.AppendRow(table.Row{
			i + 1,
			agg.Chain,
			humanize.Comma(agg.TxnsCount),
			humanize.Comma(averages[agg.Chain]),
		})
	}

	t.Render()
}
