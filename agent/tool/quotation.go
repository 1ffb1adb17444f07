// Package tool declares the quotation tool exposed to the completion
// backend and the executor that runs it.
package tool

import (
	"context"
	"fmt"

	contractx "github.com/decoderlab/fleetquote/agent/contract"
	policyx "github.com/decoderlab/fleetquote/agent/policy"
	pricingx "github.com/decoderlab/fleetquote/agent/pricing"
)

const Name = "calculate_quotation"

// ParamsSchemaJSON is the JSON-schema contract for the tool arguments. It
// is both declared to the backend and used to validate what comes back.
const ParamsSchemaJSON = `{
  "type": "object",
  "properties": {
    "category": {
      "type": "string",
      "enum": ["economico", "suv", "premium"],
      "description": "Corporate fleet vehicle category"
    },
    "days": {
      "type": "integer",
      "minimum": 1,
      "description": "Requested rental term in days"
    }
  },
  "required": ["category", "days"]
}`

// Declaration describes the quotation tool to the completion backend.
func Declaration() contractx.ToolInfo {
	return contractx.ToolInfo{
		Name:        Name,
		Description: "Calculate a fleet rental price quotation for a vehicle category and rental term in days.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"category": map[string]any{
					"type":        "string",
					"enum":        []string{"economico", "suv", "premium"},
					"description": "Corporate fleet vehicle category",
				},
				"days": map[string]any{
					"type":        "integer",
					"minimum":     1,
					"description": "Requested rental term in days",
				},
			},
			"required": []string{"category", "days"},
		},
	}
}

// Executor runs one resolved quotation request through the minimum-term
// policy and the calculator.
type Executor struct {
	calc *pricingx.Calculator
}

func NewExecutor(calc *pricingx.Calculator) (*Executor, error) {
	if calc == nil {
		return nil, fmt.Errorf("calculator is required")
	}
	return &Executor{calc: calc}, nil
}

// Execute enforces the minimum term, prices the quotation, and builds the
// outcome fed back to the backend. When the minimum term kicked in, the
// outcome carries both the requested and the billed day counts plus a
// policy note the backend must honor in its final phrasing.
func (e *Executor) Execute(ctx context.Context, req contractx.QuotationRequest) (contractx.ToolOutcome, error) {
	billedDays, minimumApplied, err := policyx.EnforceMinimumTerm(req.RequestedDays)
	if err != nil {
		return contractx.ToolOutcome{}, fmt.Errorf("%w: %v", contractx.ErrMalformedToolCall, err)
	}

	result, err := e.calc.Quote(ctx, req.Category, req.RequestedDays, billedDays)
	if err != nil {
		return contractx.ToolOutcome{}, err
	}

	outcome := contractx.ToolOutcome{Quotation: &result}
	if minimumApplied {
		outcome.PolicyNote = fmt.Sprintf(
			"Corporate minimum rental term of %d days applied: the customer requested %d day(s), the quotation is billed for %d days. "+
				"Present the %d-day total as the binding B2B recommendation and explain the benefit of the policy.",
			policyx.MinimumTermDays, req.RequestedDays, billedDays, billedDays,
		)
	}
	return outcome, nil
}
