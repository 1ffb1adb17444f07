package pricing

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	contractx "github.com/decoderlab/fleetquote/agent/contract"
)

//go:embed rates.yaml
var defaultRatesRaw []byte

// StaticRateTable serves rate cards from an in-process table. Used for
// DSN-less deployments and the test suite.
type StaticRateTable struct {
	cards map[contractx.Category]contractx.RateCard
}

var _ contractx.RateTable = (*StaticRateTable)(nil)

// NewStaticRateTable parses a YAML rate table keyed by category.
func NewStaticRateTable(raw []byte) (*StaticRateTable, error) {
	var parsed map[string]contractx.RateCard
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse rate table: %w", err)
	}

	cards := make(map[contractx.Category]contractx.RateCard, len(parsed))
	for key, card := range parsed {
		category, err := contractx.ParseCategory(key)
		if err != nil {
			return nil, fmt.Errorf("rate table key %q: %w", key, err)
		}
		if card.DailyRate <= 0 {
			return nil, fmt.Errorf("rate table category %q: daily rate must be > 0", key)
		}
		if card.Currency == "" {
			card.Currency = "BRL"
		}
		cards[category] = card
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("rate table is empty")
	}

	return &StaticRateTable{cards: cards}, nil
}

// DefaultRateTable loads the embedded corporate rate table.
func DefaultRateTable() (*StaticRateTable, error) {
	return NewStaticRateTable(defaultRatesRaw)
}

func (t *StaticRateTable) Rates(_ context.Context, category contractx.Category) (contractx.RateCard, error) {
	card, ok := t.cards[category]
	if !ok {
		return contractx.RateCard{}, fmt.Errorf("%w: %s", contractx.ErrUnknownCategory, category)
	}
	return card, nil
}
