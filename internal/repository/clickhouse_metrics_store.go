package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"StockSight/internal/domain/models"
	"StockSight/internal/domain/repository"
)

// MetricsTable is the fully qualified metrics table name.
const MetricsTable = "stocksight.stock_metrics"

// MetricsSchema creates the database and the metrics table. The table is a
// ReplacingMergeTree keyed by (symbol, date): re-ingesting a symbol's series
// overwrites row-for-row instead of duplicating.
var MetricsSchema = []string{
	"CREATE DATABASE IF NOT EXISTS stocksight",
	`CREATE TABLE IF NOT EXISTS ` + MetricsTable + ` (
		symbol String,
		date Date,
		open Float64,
		high Float64,
		low Float64,
		close Float64,
		volume Float64,
		daily_return Float64,
		ma_7 Float64,
		ma_20 Float64,
		high_52w Float64,
		low_52w Float64,
		volatility Float64,
		momentum Float64,
		trend_strength Float64
	) ENGINE = ReplacingMergeTree ORDER BY (symbol, date)`,
}

// ClickHouseMetricsStore persists computed metrics rows in ClickHouse.
type ClickHouseMetricsStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseMetricsStore creates a ClickHouse-backed MetricsStore.
func NewClickHouseMetricsStore(db *sql.DB) repository.MetricsStore {
	return &ClickHouseMetricsStore{db: db, table: MetricsTable}
}

// ReadLastN returns up to n most recent rows for a symbol, oldest first.
func (s *ClickHouseMetricsStore) ReadLastN(ctx context.Context, symbol string, n int) ([]models.MetricsRow, error) {
	q := fmt.Sprintf(`SELECT symbol, date, open, high, low, close, volume,
		daily_return, ma_7, ma_20, high_52w, low_52w, volatility, momentum, trend_strength
		FROM %s FINAL WHERE symbol = ? ORDER BY date DESC LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		return nil, fmt.Errorf("read metrics %s: %w", symbol, err)
	}
	defer rows.Close()

	var out []models.MetricsRow
	for rows.Next() {
		var r models.MetricsRow
		if err := rows.Scan(&r.Symbol, &r.Date, &r.Open, &r.High, &r.Low, &r.Close, &r.Volume,
			&r.DailyReturn, &r.MA7, &r.MA20, &r.High52W, &r.Low52W,
			&r.Volatility, &r.Momentum, &r.TrendStrength); err != nil {
			return nil, fmt.Errorf("scan metrics %s: %w", symbol, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// query is newest-first, callers want chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// ReplaceAll writes a symbol's full series. Chunked multi-row inserts keep
// round-trips low; the ReplacingMergeTree engine collapses re-ingested keys.
func (s *ClickHouseMetricsStore) ReplaceAll(ctx context.Context, symbol string, rows []models.MetricsRow) error {
	if len(rows) == 0 {
		return nil
	}
	const chunkSize = 2000
	const colCount = 15
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*colCount)
		for _, r := range rows[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				symbol, r.Date, r.Open, r.High, r.Low, r.Close, r.Volume,
				r.DailyReturn, r.MA7, r.MA20, r.High52W, r.Low52W,
				r.Volatility, r.Momentum, r.TrendStrength,
			)
		}
		q := fmt.Sprintf(`INSERT INTO %s (symbol, date, open, high, low, close, volume,
			daily_return, ma_7, ma_20, high_52w, low_52w, volatility, momentum, trend_strength)
			VALUES %s`, s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert metrics %s: %w", symbol, err)
		}
	}
	return nil
}
