package aggregator

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/estensen/chain-dashboard/internal/models"
)

type Aggregator interface {
	TotalPerChain(ds models.MergedDataset) models.Ranking
	AveragePerChain(ds models.MergedDataset) models.Ranking
	DailySeries(ds models.MergedDataset) models.DailySeries
}

type SimpleAggregator struct{}

func NewAggregator() *SimpleAggregator {
	return &SimpleAggregator{}
}

type chainTally struct {
	sum  int64
	rows int64
}

// TotalPerChain sums transaction counts per chain, ranked descending.
func (a *SimpleAggregator) TotalPerChain(ds models.MergedDataset) models.Ranking {
	tallies := a.tally(ds)

	ranking := make(models.Ranking, 0, len(tallies))
	for chain, tally := range tallies {
		ranking = append(ranking, models.ChainAggregate{Chain: chain, TxnsCount: tally.sum})
	}
	rank(ranking)
	return ranking
}

// AveragePerChain averages transaction counts per chain row, ranked descending.
// Means are rounded half to even: 10.5 becomes 10 and 11.5 becomes 12.
func (a *SimpleAggregator) AveragePerChain(ds models.MergedDataset) models.Ranking {
	tallies := a.tally(ds)

	ranking := make(models.Ranking, 0, len(tallies))
	for chain, tally := range tallies {
		ranking = append(ranking, models.ChainAggregate{Chain: chain, TxnsCount: roundedMean(tally)})
	}
	rank(ranking)
	return ranking
}

// DailySeries groups the dataset into one date-ordered series per chain.
// Rows sharing a chain and date are summed into a single point.
func (a *SimpleAggregator) DailySeries(ds models.MergedDataset) models.DailySeries {
	series := models.DailySeries{
		Points: make(map[string][]models.SeriesPoint),
	}
	seen := make(map[time.Time]struct{})
	slots := make(map[string]map[time.Time]int)

	for _, rec := range ds {
		if _, ok := series.Points[rec.Chain]; !ok {
			series.Chains = append(series.Chains, rec.Chain)
			slots[rec.Chain] = make(map[time.Time]int)
		}
		if i, ok := slots[rec.Chain][rec.Date]; ok {
			series.Points[rec.Chain][i].TxnsCount += rec.TxnsCount
		} else {
			slots[rec.Chain][rec.Date] = len(series.Points[rec.Chain])
			series.Points[rec.Chain] = append(series.Points[rec.Chain], models.SeriesPoint{
				Date:      rec.Date,
				TxnsCount: rec.TxnsCount,
			})
		}
		if _, ok := seen[rec.Date]; !ok {
			seen[rec.Date] = struct{}{}
			series.Dates = append(series.Dates, rec.Date)
		}
	}

	sort.Strings(series.Chains)
	sort.Slice(series.Dates, func(i, j int) bool { return series.Dates[i].Before(series.Dates[j]) })
	for _, points := range series.Points {
		sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	}
	return series
}

func (a *SimpleAggregator) tally(ds models.MergedDataset) map[string]*chainTally {
	tallies := make(map[string]*chainTally)
	for _, rec := range ds {
		t, ok := tallies[rec.Chain]
		if !ok {
			t = &chainTally{}
			tallies[rec.Chain] = t
		}
		t.sum += rec.TxnsCount
		t.rows++
	}
	return tallies
}

func roundedMean(t *chainTally) int64 {
	if t.rows == 0 {
		return 0
	}
	mean := decimal.NewFromInt(t.sum).Div(decimal.NewFromInt(t.rows))
	return mean.RoundBank(0).IntPart()
}

// rank sorts by count descending; ties are ordered by chain name.
func rank(r models.Ranking) {
	sort.Slice(r, func(i, j int) bool {
		if r[i].TxnsCount != r[j].TxnsCount {
			return r[i].TxnsCount > r[j].TxnsCount
		}
		return r[i].Chain < r[j].Chain
	})
}
