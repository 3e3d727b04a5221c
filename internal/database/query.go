package database

import (
	"fmt"
	"strings"
)

// DailyTxnsQuery describes the trailing window count of distinct transactions
// per UTC day, labelled with a fixed chain name.
type DailyTxnsQuery struct {
	Table        string
	Chain        string
	LookbackDays int
}

// Snowflake returns the statement and bind arguments for Snowflake.
// The session runs with TIMEZONE=UTC so current_date is a UTC day.
func (q DailyTxnsQuery) Snowflake() (string, []any) {
	query := fmt.Sprintf(`
        SELECT
            date_trunc('day', block_timestamp) AS "Date",
            count(DISTINCT tx_id) AS "Txns Count",
            %s AS "Chain"
        FROM %s
        WHERE block_timestamp::date >= current_date - ?
        GROUP BY 1
        ORDER BY 1
        `, quoteLiteral(q.Chain), q.Table)
	return query, []any{q.LookbackDays}
}

// ClickHouse returns the statement and bind arguments for ClickHouse.
func (q DailyTxnsQuery) ClickHouse() (string, []any) {
	query := fmt.Sprintf(`
        SELECT
            toStartOfDay(block_timestamp, 'UTC') AS date,
            toInt64(uniqExact(tx_id)) AS txns_count,
            %s AS chain
        FROM %s
        WHERE toDate(block_timestamp, 'UTC') >= toDate(now(), 'UTC') - ?
        GROUP BY date
        ORDER BY date
        `, quoteLiteral(q.Chain), q.Table)
	return query, []any{q.LookbackDays}
}

// quoteLiteral renders s as a single-quoted SQL string literal.
func quoteLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
