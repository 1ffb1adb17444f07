package pricing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/decoderlab/fleetquote/agent/contract"
)

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

// fleetRate is the fleet_rates row: one rate card per category, with the
// discount curve stored as jsonb.
type fleetRate struct {
	bun.BaseModel `bun:"table:fleet_rates"`

	Category  string                   `bun:"category,pk"`
	DailyRate float64                  `bun:"daily_rate"`
	Currency  string                   `bun:"currency"`
	Tiers     []contractx.DiscountTier `bun:"discount_tiers,type:jsonb"`
}

// PostgresRateTable reads rate cards from Postgres via bun.
type PostgresRateTable struct {
	db      *bun.DB
	timeout time.Duration
}

var _ contractx.RateTable = (*PostgresRateTable)(nil)

func NewPostgresRateTable(cfg PostgresConfig) (*PostgresRateTable, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &PostgresRateTable{db: db, timeout: timeout}, nil
}

func (t *PostgresRateTable) Rates(ctx context.Context, category contractx.Category) (contractx.RateCard, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var row fleetRate
	err := t.db.NewSelect().
		Model(&row).
		Where("category = ?", string(category)).
		Scan(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return contractx.RateCard{}, fmt.Errorf("%w: %s", contractx.ErrUnknownCategory, category)
	case err != nil:
		return contractx.RateCard{}, fmt.Errorf("%w: query fleet_rates: %v", contractx.ErrPricingUnavailable, err)
	}

	currency := strings.TrimSpace(row.Currency)
	if currency == "" {
		currency = "BRL"
	}

	return contractx.RateCard{
		DailyRate: row.DailyRate,
		Currency:  currency,
		Tiers:     row.Tiers,
	}, nil
}

func (t *PostgresRateTable) Close() error {
	return t.db.Close()
}
