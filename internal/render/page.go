package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/estensen/chain-dashboard/internal/config"
	"github.com/estensen/chain-dashboard/internal/models"
)

const (
	LineChartTitle    = "Daily Transactions Across Chains"
	TotalsChartTitle  = "Total Transactions by Chain (30 Days)"
	AverageChartTitle = "Average Daily Transactions by Chain (30 Days)"

	LineChartSubtitle    = "Daily Transactions per Chain (Last 30 Days)"
	TotalsChartSubtitle  = "Total Transactions per Chain (Last 30 Days)"
	AverageChartSubtitle = "Average Daily Transactions per Chain (Last 30 Days)"

	dateLayout  = "2006-01-02"
	chartHeight = "450px"
	// echarts renders "-" as a gap in a line series
	missingValue = "-"
)

var palette = []string{
	"#636efa", "#ef553b", "#00cc96", "#ab63fa", "#ffa15a",
	"#19d3f3", "#ff6692", "#b6e880", "#ff97ff", "#fecb52",
}

// Renderer draws the dashboard page with fixed display options.
type Renderer struct {
	Options config.DisplayOptions
}

func NewRenderer(options config.DisplayOptions) *Renderer {
	return &Renderer{Options: options}
}

// Page renders the three charts of a summary as an HTML page.
func (r *Renderer) Page(w io.Writer, summary *models.Summary) error {
	page := components.NewPage()
	page.PageTitle = r.Options.Title
	page.SetLayout(pageLayout(r.Options.Layout))
	page.AddCharts(
		r.lineChart(summary.Series),
		r.barChart(opts.Title{Title: TotalsChartTitle, Subtitle: TotalsChartSubtitle}, summary.Totals),
		r.barChart(opts.Title{Title: AverageChartTitle, Subtitle: AverageChartSubtitle}, summary.Averages),
	)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("error rendering dashboard page: %w", err)
	}
	return nil
}

func (r *Renderer) lineChart(series models.DailySeries) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: LineChartTitle, Subtitle: LineChartSubtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Txns Count"}),
	)

	labels := make([]string, 0, len(series.Dates))
	index := make(map[string]int, len(series.Dates))
	for i, d := range series.Dates {
		label := d.Format(dateLayout)
		labels = append(labels, label)
		index[label] = i
	}
	line.SetXAxis(labels)

	showSymbol := r.Options.LineStyle == config.LineStyleMarkers
	for i, chain := range series.Chains {
		data := make([]opts.LineData, len(labels))
		for j := range data {
			data[j] = opts.LineData{Value: missingValue}
		}
		for _, p := range series.Points[chain] {
			data[index[p.Date.Format(dateLayout)]] = opts.LineData{Value: p.TxnsCount}
		}
		line.AddSeries(chain, data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(showSymbol)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: palette[i%len(palette)]}),
		)
	}
	return line
}

// barChart draws a ranking. Categories keep the ranking order.
func (r *Renderer) barChart(title opts.Title, ranking models.Ranking) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: chartHeight}),
		charts.WithTitleOpts(title),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	data := make([]opts.BarData, 0, len(ranking))
	for i, agg := range ranking {
		data = append(data, opts.BarData{
			Name:      agg.Chain,
			Value:     agg.TxnsCount,
			ItemStyle: &opts.ItemStyle{Color: palette[i%len(palette)]},
		})
	}

	bar.SetXAxis(ranking.Order()).
		AddSeries("Txns Count", data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "inside"}),
		)

	if r.Options.Orientation == config.OrientationHorizontal {
		bar.XYReversal()
	}
	return bar
}

func pageLayout(layout config.Layout) components.Layout {
	switch layout {
	case config.LayoutCenter:
		return components.PageCenterLayout
	case config.LayoutNone:
		return components.PageNoneLayout
	default:
		return components.PageFlexLayout
	}
}
