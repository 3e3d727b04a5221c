// Package harmonizer merges the query API rows and the warehouse rows into one
// dataset with a single date representation.
package harmonizer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/estensen/chain-dashboard/internal/models"
	"github.com/estensen/chain-dashboard/internal/parser"
)

var ErrEmptySource = errors.New("empty source")

// Source names used in error messages.
const (
	SourceAPI       = "api"
	SourceWarehouse = "warehouse"
)

// RowError reports which source row failed to harmonize.
type RowError struct {
	Source string
	Index  int
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.Source, e.Index, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

type Harmonizer struct {
	Fields parser.Fields
}

func NewHarmonizer(fields parser.Fields) *Harmonizer {
	return &Harmonizer{Fields: fields}
}

// Harmonize normalizes both sources to UTC days and concatenates them.
// The API source must not be empty; an empty warehouse result is allowed.
// Every input row appears in the output, ordered by (chain, date).
func (h *Harmonizer) Harmonize(apiRows []models.APIRow, whRows []models.WarehouseRow) (models.MergedDataset, error) {
	if len(apiRows) == 0 {
		return nil, fmt.Errorf("%w: %s returned no rows", ErrEmptySource, SourceAPI)
	}

	merged := make(models.MergedDataset, 0, len(apiRows)+len(whRows))

	for i, row := range apiRows {
		txn, err := parser.ParseRecord(row, h.Fields)
		if err != nil {
			return nil, &RowError{Source: SourceAPI, Index: i, Err: err}
		}
		merged = append(merged, txn)
	}

	for i, row := range whRows {
		txn, err := normalizeWarehouseRow(row)
		if err != nil {
			return nil, &RowError{Source: SourceWarehouse, Index: i, Err: err}
		}
		merged = append(merged, txn)
	}

	SortByChainDate(merged)
	return merged, nil
}

func normalizeWarehouseRow(row models.WarehouseRow) (models.TransactionRecord, error) {
	if row.Date.IsZero() {
		return models.TransactionRecord{}, fmt.Errorf("%w: %q", parser.ErrMissingField, "date")
	}
	count, err := parser.ParseCount(row.TxnsCount)
	if err != nil {
		return models.TransactionRecord{}, err
	}
	chain, err := parser.ParseChain(row.Chain)
	if err != nil {
		return models.TransactionRecord{}, err
	}
	return models.TransactionRecord{
		Date:      parser.NormalizeDay(row.Date),
		TxnsCount: count,
		Chain:     chain,
	}, nil
}

// SortByChainDate orders records by chain, then date. Equal keys keep their input order.
func SortByChainDate(ds models.MergedDataset) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Chain != ds[j].Chain {
			return ds[i].Chain < ds[j].Chain
		}
		return ds[i].Date.Before(ds[j].Date)
	})
}
