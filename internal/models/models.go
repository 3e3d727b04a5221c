package models

import "time"

// TransactionRecord is one day of transactions for one chain.
// Date is midnight UTC once the record has been harmonized.
type TransactionRecord struct {
	Date      time.Time `json:"date"`
	TxnsCount int64     `json:"txns_count"`
	Chain     string    `json:"chain"`
}

// WarehouseRow is a row of the daily transaction query as scanned from the warehouse.
type WarehouseRow struct {
	Date      time.Time `ch:"date"`
	TxnsCount int64     `ch:"txns_count"`
	Chain     string    `ch:"chain"`
}

// APIRow is a row of the query results API, decoded with numbers kept as json.Number.
type APIRow map[string]any

// MergedDataset holds the records of both sources ordered by (chain, date).
type MergedDataset []TransactionRecord

// Span returns the earliest and latest date in the dataset.
func (ds MergedDataset) Span() (first, last time.Time) {
	for i, rec := range ds {
		if i == 0 || rec.Date.Before(first) {
			first = rec.Date
		}
		if i == 0 || rec.Date.After(last) {
			last = rec.Date
		}
	}
	return first, last
}

type ChainAggregate struct {
	Chain     string `json:"chain"`
	TxnsCount int64  `json:"txns_count"`
}

// Ranking is a per-chain aggregate sorted by TxnsCount descending.
type Ranking []ChainAggregate

// Order returns the chain names in ranking order, used as the chart category order.
func (r Ranking) Order() []string {
	order := make([]string, 0, len(r))
	for _, agg := range r {
		order = append(order, agg.Chain)
	}
	return order
}

// Values returns the counts in ranking order.
func (r Ranking) Values() []int64 {
	values := make([]int64, 0, len(r))
	for _, agg := range r {
		values = append(values, agg.TxnsCount)
	}
	return values
}

type SeriesPoint struct {
	Date      time.Time
	TxnsCount int64
}

// DailySeries is the line chart input: one date-ordered series per chain
// plus the sorted union of all dates.
type DailySeries struct {
	Dates  []time.Time
	Chains []string
	Points map[string][]SeriesPoint
}

// Summary is everything produced by one dashboard run.
type Summary struct {
	RunID         string        `json:"run_id"`
	GeneratedAt   time.Time     `json:"generated_at"`
	APIRows       int           `json:"api_rows"`
	WarehouseRows int           `json:"warehouse_rows"`
	Dataset       MergedDataset `json:"dataset"`
	Totals        Ranking       `json:"totals"`
	Averages      Ranking       `json:"averages"`
	Series        DailySeries   `json:"-"`
}
