package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/estensen/chain-dashboard/internal/models"
)

// Predefined errors for row coercion failures.
var (
	ErrMissingField = errors.New("missing field")
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidCount = errors.New("invalid transaction count")
	ErrInvalidChain = errors.New("invalid chain")
)

// Fields names the columns of an API row.
type Fields struct {
	Date  string
	Count string
	Chain string
}

// DefaultFields matches the column names of the daily transactions query.
func DefaultFields() Fields {
	return Fields{
		Date:  "Date",
		Count: "Txns Count",
		Chain: "Chain",
	}
}

// Layouts accepted for date strings. Layouts without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.000 MST",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05.000Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseRecord coerces one API row into a TransactionRecord with a UTC day date.
func ParseRecord(row models.APIRow, fields Fields) (models.TransactionRecord, error) {
	var txn models.TransactionRecord

	rawDate, ok := row[fields.Date]
	if !ok || rawDate == nil {
		return txn, fmt.Errorf("%w: %q", ErrMissingField, fields.Date)
	}
	rawCount, ok := row[fields.Count]
	if !ok || rawCount == nil {
		return txn, fmt.Errorf("%w: %q", ErrMissingField, fields.Count)
	}
	rawChain, ok := row[fields.Chain]
	if !ok || rawChain == nil {
		return txn, fmt.Errorf("%w: %q", ErrMissingField, fields.Chain)
	}

	var err error
	txn.Date, err = ParseDate(rawDate)
	if err != nil {
		return txn, err
	}
	txn.TxnsCount, err = ParseCount(rawCount)
	if err != nil {
		return txn, err
	}
	txn.Chain, err = ParseChain(rawChain)
	if err != nil {
		return txn, err
	}

	return txn, nil
}

// ParseDate accepts a date string or time.Time and returns midnight UTC of its day.
func ParseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return NormalizeDay(d), nil
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			// time.Parse reads zone-less layouts as UTC
			t, err := time.Parse(layout, s)
			if err != nil {
				continue
			}
			// Abbreviations other than UTC resolve against the host zone database.
			if strings.HasSuffix(layout, "MST") {
				if zone, _ := t.Zone(); zone != "UTC" {
					return time.Time{}, fmt.Errorf("%w: %q: unsupported zone %s", ErrInvalidDate, d, zone)
				}
			}
			return NormalizeDay(t), nil
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, d)
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidDate, v)
	}
}

// NormalizeDay converts t to UTC and truncates it to the start of its calendar day.
func NormalizeDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseCount coerces a count to a non-negative integer.
func ParseCount(v any) (int64, error) {
	switch c := v.(type) {
	case json.Number:
		return parseCountString(c.String())
	case string:
		return parseCountString(strings.TrimSpace(c))
	case int:
		return checkCount(int64(c))
	case int64:
		return checkCount(c)
	case uint64:
		if c > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrInvalidCount, c)
		}
		return int64(c), nil
	case float64:
		return floatCount(c)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidCount, v)
	}
}

func parseCountString(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return checkCount(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCount, s)
	}
	return floatCount(f)
}

func floatCount(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v is not an integer", ErrInvalidCount, f)
	}
	return checkCount(int64(f))
}

func checkCount(n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrInvalidCount, n)
	}
	return n, nil
}

// ParseChain coerces a chain label to a trimmed, non-empty string.
func ParseChain(v any) (string, error) {
	var chain string
	switch c := v.(type) {
	case string:
		chain = c
	case json.Number:
		chain = c.String()
	case fmt.Stringer:
		chain = c.String()
	case int, int64, float64, bool:
		chain = fmt.Sprint(c)
	default:
		return "", fmt.Errorf("%w: unsupported type %T", ErrInvalidChain, v)
	}

	chain = strings.TrimSpace(chain)
	if chain == "" {
		return "", fmt.Errorf("%w: empty chain name", ErrInvalidChain)
	}
	return chain, nil
}
