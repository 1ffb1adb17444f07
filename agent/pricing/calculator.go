// Package pricing computes price quotations from the rate-table
// collaborator. It owns the day/category -> quote contract and the
// rounding policy; rate data lives behind contract.RateTable.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	contractx "github.com/decoderlab/fleetquote/agent/contract"
)

type Calculator struct {
	rates contractx.RateTable
}

func NewCalculator(rates contractx.RateTable) (*Calculator, error) {
	if rates == nil {
		return nil, errors.New("rate table is required")
	}
	return &Calculator{rates: rates}, nil
}

// Quote computes the total price for billedDays of the given category.
// billedDays is expected to already carry the minimum-term enforcement;
// requestedDays is kept on the result so the caller can report both.
func (c *Calculator) Quote(ctx context.Context, category contractx.Category, requestedDays, billedDays int) (contractx.QuotationResult, error) {
	if _, err := contractx.ParseCategory(string(category)); err != nil {
		return contractx.QuotationResult{}, err
	}
	if billedDays < 1 {
		return contractx.QuotationResult{}, fmt.Errorf("%w: billed days must be >= 1, got %d", contractx.ErrInvalidInput, billedDays)
	}

	card, err := c.rates.Rates(ctx, category)
	if err != nil {
		return contractx.QuotationResult{}, err
	}
	if card.DailyRate <= 0 {
		return contractx.QuotationResult{}, fmt.Errorf("%w: non-positive daily rate for category=%s", contractx.ErrPricingUnavailable, category)
	}

	total := card.DailyRate * float64(billedDays) * tierMultiplier(card.Tiers, billedDays)

	return contractx.QuotationResult{
		Category:           category,
		RequestedDays:      requestedDays,
		BilledDays:         billedDays,
		DailyRate:          card.DailyRate,
		TotalPrice:         roundHalfUp(total),
		Currency:           card.Currency,
		MinimumTermApplied: billedDays != requestedDays,
	}, nil
}

// tierMultiplier picks the discount tier with the highest MinDays that
// billedDays still satisfies. No matching tier means full price.
func tierMultiplier(tiers []contractx.DiscountTier, billedDays int) float64 {
	multiplier := 1.0
	best := -1
	for _, tier := range tiers {
		if tier.Multiplier <= 0 || tier.Multiplier > 1 {
			continue
		}
		if billedDays >= tier.MinDays && tier.MinDays > best {
			best = tier.MinDays
			multiplier = tier.Multiplier
		}
	}
	return multiplier
}

// roundHalfUp rounds to 2 decimal places, half away from zero.
func roundHalfUp(v float64) float64 {
	return math.Round(v*100) / 100
}
