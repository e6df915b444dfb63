package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
	pkgch "BrentCast/pkg/clickhouse"
	applogger "BrentCast/pkg/logger"
)

const insertChunk = 2000

// SeriesSchema returns the idempotent DDL for the series table.
func SeriesSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.daily_prices (code String, d Date, price Float64, ingested_at DateTime DEFAULT now()) ENGINE=ReplacingMergeTree(ingested_at) ORDER BY (code, d)", database),
	}
}

// CHSeriesStore implements SeriesStore backed by ClickHouse.
type CHSeriesStore struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHSeriesStore(ch *pkgch.Client, database string) *CHSeriesStore {
	return &CHSeriesStore{ch: ch, db: ch.DB(), table: database + ".daily_prices"}
}

// SetLogger injects a structured logger.
func (s *CHSeriesStore) SetLogger(l *applogger.Logger) { s.l = l }

// Save upserts the series. Rows for an existing (code, day) are replaced on merge.
func (s *CHSeriesStore) Save(ctx context.Context, code string, series models.TimeSeries) error {
	start := time.Now()
	for lo := 0; lo < len(series); lo += insertChunk {
		hi := lo + insertChunk
		if hi > len(series) {
			hi = len(series)
		}
		q, args := buildInsert(s.table, code, series[lo:hi])
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse save_series error",
					applogger.String("table", s.table),
					applogger.String("code", code),
					applogger.Int("offset", lo),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("save series: %w", err)
		}
	}
	if s.l != nil {
		s.l.Info("clickhouse save_series ok",
			applogger.String("table", s.table),
			applogger.String("code", code),
			applogger.Int("rows", len(series)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func buildInsert(table, code string, points models.TimeSeries) (string, []interface{}) {
	values := make([]string, 0, len(points))
	args := make([]interface{}, 0, len(points)*3)
	for _, p := range points {
		values = append(values, "(?, ?, ?)")
		args = append(args, code, p.Date, p.Price)
	}
	q := fmt.Sprintf("INSERT INTO %s (code, d, price) VALUES %s", table, strings.Join(values, ","))
	return q, args
}

// Load returns the stored series in date order.
func (s *CHSeriesStore) Load(ctx context.Context, code string) (models.TimeSeries, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT d, price
        FROM %s FINAL
        WHERE code = ?
        ORDER BY d ASC
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, code)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse load_series query error",
				applogger.String("table", s.table),
				applogger.String("code", code),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("load series: %w", err)
	}
	defer rows.Close()

	out := make(models.TimeSeries, 0, 8192)
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Date, &p.Price); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		p.Date = p.Date.UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(out) == 0 {
		return nil, domrepo.ErrSeriesNotFound
	}
	if s.l != nil {
		s.l.Info("clickhouse load_series ok",
			applogger.String("table", s.table),
			applogger.String("code", code),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHSeriesStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying ClickHouse client.
func (s *CHSeriesStore) Close() error {
	if s.ch == nil {
		return nil
	}
	return s.ch.Close()
}

var _ domrepo.SeriesStore = (*CHSeriesStore)(nil)
