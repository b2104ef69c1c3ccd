// Package historical is the ClickHouse-backed OHLCV repository the
// historical walk kernel pulls prices from.
package historical

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	clickhouse "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/shopspring/decimal"

	"github.com/optionchainsim/service/internal/apperr"
	"github.com/optionchainsim/service/internal/config"
	"github.com/optionchainsim/service/internal/session"
)

// Repository reads bar data out of ClickHouse and buckets it to the
// timeframe a simulation walk needs.
type Repository struct {
	db *sql.DB
}

// New opens a ClickHouse connection pool from config. The pool is lazy:
// no connection is established until the first query.
func New(cfg *config.Config) (*Repository, error) {
	opts := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.ClickHouseHost, cfg.ClickHousePort)},
		Auth: clickhouse.Auth{
			Database: cfg.ClickHouseDB,
			Username: cfg.ClickHouseUser,
			Password: cfg.ClickHousePassword,
		},
	}
	db := clickhouse.OpenDB(opts)
	return &Repository{db: db}, nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// ListSymbols returns every symbol with at least one bar recorded.
func (r *Repository) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM bars ORDER BY symbol`)
	if err != nil {
		return nil, apperr.StoreError("listing symbols: %v", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, apperr.Internal("scanning symbol row: %v", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// DateRange returns the earliest and latest bar timestamps on record
// for a symbol.
func (r *Repository) DateRange(ctx context.Context, symbol string) (time.Time, time.Time, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT min(ts), max(ts) FROM bars WHERE symbol = ?`, symbol)
	var from, to time.Time
	if err := row.Scan(&from, &to); err != nil {
		return time.Time{}, time.Time{}, apperr.NotEnoughData("no bars on record for %s: %v", symbol, err)
	}
	return from, to, nil
}

// Prices returns `steps` closing prices for symbol, bucketed to
// timeFrame, most recent bucket last. Coarser timeframes take, for each
// bucket of the requested width, the close of its latest minute bar.
func (r *Repository) Prices(symbol string, timeFrame session.TimeFrame, steps int) ([]decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bucketSeconds := int(timeFrame.Duration(decimal.Zero).Seconds())
	if bucketSeconds <= 0 {
		bucketSeconds = 60
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT toFloat64(argMax(close, ts))
		FROM bars
		WHERE symbol = ?
		GROUP BY intDiv(toUnixTimestamp(ts), ?)
		ORDER BY intDiv(toUnixTimestamp(ts), ?) DESC
		LIMIT ?
	`, symbol, bucketSeconds, bucketSeconds, steps)
	if err != nil {
		return nil, apperr.StoreError("querying historical prices for %s: %v", symbol, err)
	}
	defer rows.Close()

	var prices []decimal.Decimal
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, apperr.Internal("scanning price row: %v", err)
		}
		prices = append(prices, decimal.NewFromFloat(v))
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.StoreError("reading historical prices for %s: %v", symbol, err)
	}
	if len(prices) < steps {
		return nil, apperr.NotEnoughData("only %d buckets available for %s at this timeframe, need %d", len(prices), symbol, steps)
	}

	// reverse to oldest-first so callers walk forward in time
	for i, j := 0, len(prices)-1; i < j; i, j = i+1, j-1 {
		prices[i], prices[j] = prices[j], prices[i]
	}
	return prices, nil
}
