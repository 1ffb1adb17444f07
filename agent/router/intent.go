// Package router defines the decision contract between the orchestrator
// and the completion backend: which output shapes are acceptable, how tool
// arguments map to quotation slots, and when the first-turn category menu
// is due. The classification itself is delegated to the backend under the
// embedded system prompt.
package router

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	contractx "github.com/decoderlab/fleetquote/agent/contract"
	toolx "github.com/decoderlab/fleetquote/agent/tool"
)

var quotationArgsSchema = jsonschema.MustCompileString("calculate_quotation.json", toolx.ParamsSchemaJSON)

// SlotError reports which quotation slots were missing or unusable in a
// tool call. It unwraps to ErrMalformedToolCall so the orchestrator can
// turn it into a re-prompt instead of failing the turn.
type SlotError struct {
	Fields []string
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("%v: invalid slots %s", contractx.ErrMalformedToolCall, strings.Join(e.Fields, ", "))
}

func (e *SlotError) Unwrap() error {
	return contractx.ErrMalformedToolCall
}

type quotationArgs struct {
	Category string `json:"category"`
	Days     int    `json:"days"`
}

// ResolveQuotationRequest validates the backend's tool arguments against
// the declared schema and maps them to a QuotationRequest.
func ResolveQuotationRequest(raw json.RawMessage) (contractx.QuotationRequest, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return contractx.QuotationRequest{}, &SlotError{Fields: []string{"category", "days"}}
	}
	if obj, ok := decoded.(map[string]any); ok {
		if s, ok := obj["category"].(string); ok {
			obj["category"] = strings.ToLower(strings.TrimSpace(s))
		}
	}

	if err := quotationArgsSchema.Validate(decoded); err != nil {
		return contractx.QuotationRequest{}, &SlotError{Fields: invalidFields(decoded)}
	}

	var args quotationArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return contractx.QuotationRequest{}, &SlotError{Fields: []string{"category", "days"}}
	}

	category, err := contractx.ParseCategory(args.Category)
	if err != nil {
		return contractx.QuotationRequest{}, &SlotError{Fields: []string{"category"}}
	}
	if args.Days < 1 {
		return contractx.QuotationRequest{}, &SlotError{Fields: []string{"days"}}
	}

	return contractx.QuotationRequest{
		Category:      category,
		RequestedDays: args.Days,
	}, nil
}

// invalidFields narrows a schema violation to the offending slot names so
// the re-prompt asks only for what is actually missing or broken.
func invalidFields(decoded any) []string {
	obj, ok := decoded.(map[string]any)
	if !ok {
		return []string{"category", "days"}
	}

	var fields []string
	if raw, ok := obj["category"]; !ok || !validCategoryValue(raw) {
		fields = append(fields, "category")
	}
	if raw, ok := obj["days"]; !ok || !validDaysValue(raw) {
		fields = append(fields, "days")
	}
	if len(fields) == 0 {
		fields = []string{"category", "days"}
	}
	return fields
}

func validCategoryValue(raw any) bool {
	s, ok := raw.(string)
	if !ok {
		return false
	}
	_, err := contractx.ParseCategory(s)
	return err == nil
}

func validDaysValue(raw any) bool {
	f, ok := raw.(float64)
	if !ok {
		return false
	}
	return f >= 1 && f == float64(int(f))
}

// FirstTurn reports whether this is the session's first exchange. The
// category menu is presented exactly once, on this turn only.
func FirstTurn(snapshot []contractx.Message) bool {
	return len(snapshot) == 0
}
