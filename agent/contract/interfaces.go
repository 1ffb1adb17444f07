package contract

import "context"

// CompletionBackend is the generative collaborator. It is best-effort and
// non-deterministic; callers must not assume identical inputs produce
// identical outputs. The tool protocol is an explicit two-phase exchange:
// Complete may return a ToolCall, and Resume supplies its outcome to obtain
// the final text.
type CompletionBackend interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	Resume(ctx context.Context, req CompletionRequest, call ToolCall, outcome ToolOutcome) (CompletionResponse, error)
}

// RateTable resolves the daily rate and discount curve for a category.
// Implementations may be remote and unavailable (ErrPricingUnavailable).
type RateTable interface {
	Rates(ctx context.Context, category Category) (RateCard, error)
}
