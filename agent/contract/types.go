package contract

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a session's conversation window. Immutable once
// created; owned by the memory store of its session.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Category is a corporate fleet vehicle category.
type Category string

const (
	CategoryEconomico Category = "economico"
	CategorySUV       Category = "suv"
	CategoryPremium   Category = "premium"
)

// Categories lists every valid category in menu order.
func Categories() []Category {
	return []Category{CategoryEconomico, CategorySUV, CategoryPremium}
}

func ParseCategory(raw string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryEconomico:
		return CategoryEconomico, nil
	case CategorySUV:
		return CategorySUV, nil
	case CategoryPremium:
		return CategoryPremium, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
	}
}

// QuotationRequest is the resolved slot pair for one quotation turn. Never
// persisted beyond the turn that produced it.
type QuotationRequest struct {
	Category      Category `json:"category"`
	RequestedDays int      `json:"requested_days"`
}

type QuotationResult struct {
	Category           Category `json:"category"`
	RequestedDays      int      `json:"requested_days"`
	BilledDays         int      `json:"billed_days"`
	DailyRate          float64  `json:"daily_rate"`
	TotalPrice         float64  `json:"total_price"`
	Currency           string   `json:"currency"`
	MinimumTermApplied bool     `json:"minimum_term_applied"`
}

// ToolCall is a structured request from the completion backend asking the
// orchestrator to execute a declared tool.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolOutcome is what gets fed back to the backend after tool execution.
// When the minimum term was applied it carries both the requested and the
// enforced day counts so the final phrasing can present the 5-day figure
// as the binding B2B recommendation.
type ToolOutcome struct {
	Quotation  *QuotationResult `json:"quotation,omitempty"`
	PolicyNote string           `json:"policy_note,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// ToolInfo declares a tool to the completion backend.
type ToolInfo struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// CompletionRequest carries one backend invocation: fixed system
// instructions, the session's conversation window oldest-first, and the
// declared tools.
type CompletionRequest struct {
	System  string
	History []Message
	Tools   []ToolInfo
}

// CompletionResponse is either direct text or a tool call, never both.
type CompletionResponse struct {
	Text     string
	ToolCall *ToolCall
}

type DiscountTier struct {
	MinDays    int     `json:"min_days" yaml:"min_days"`
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`
}

// RateCard is the rate-table collaborator's answer for one category.
type RateCard struct {
	DailyRate float64        `json:"daily_rate" yaml:"daily_rate"`
	Currency  string         `json:"currency" yaml:"currency"`
	Tiers     []DiscountTier `json:"tiers" yaml:"tiers"`
}
