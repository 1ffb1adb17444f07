// Package orchestrator coordinates one conversational turn: memory,
// completion backend, and the quotation tool.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/decoderlab/fleetquote/agent/contract"
	memoryx "github.com/decoderlab/fleetquote/agent/memory"
	promptx "github.com/decoderlab/fleetquote/agent/prompt"
	routerx "github.com/decoderlab/fleetquote/agent/router"
	toolx "github.com/decoderlab/fleetquote/agent/tool"
)

// User-facing fallback texts. Collaborator faults never surface raw.
const (
	replyBackendDown = "Desculpe, nosso assistente está temporariamente indisponível. Por favor, tente novamente em instantes."
	replyPricingDown = "No momento não consegui consultar a tabela de tarifas corporativas. Pode tentar novamente em alguns minutos?"
)

type Config struct {
	// TurnTimeout bounds the combined backend interaction of one turn,
	// including both round trips when a tool call occurs.
	TurnTimeout time.Duration
}

const defaultTurnTimeout = 45 * time.Second

type Orchestrator struct {
	backend  contractx.CompletionBackend
	memory   *memoryx.Store
	executor *toolx.Executor
	prompts  promptx.PromptSet

	turnTimeout time.Duration
	locks       sessionLocks
	now         func() time.Time
}

func New(backend contractx.CompletionBackend, memory *memoryx.Store, executor *toolx.Executor, cfg Config) (*Orchestrator, error) {
	if backend == nil {
		return nil, errors.New("completion backend is required")
	}
	if memory == nil {
		return nil, errors.New("memory store is required")
	}
	if executor == nil {
		return nil, errors.New("tool executor is required")
	}

	timeout := cfg.TurnTimeout
	if timeout <= 0 {
		timeout = defaultTurnTimeout
	}

	return &Orchestrator{
		backend:     backend,
		memory:      memory,
		executor:    executor,
		prompts:     promptx.LoadPromptSet(),
		turnTimeout: timeout,
		now:         time.Now,
	}, nil
}

// HandleTurn runs one request/response cycle for a session. Turns of the
// same session are serialized; distinct sessions proceed concurrently.
// Only ErrInvalidInput propagates as an error; every collaborator fault is
// converted into a coherent user-facing reply.
//
// The user message committed at the start of the turn is not rolled back
// on mid-turn failure. A failed turn can therefore leave a user message
// with no assistant reply in the window.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID, userText string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", fmt.Errorf("%w: session id is empty", contractx.ErrInvalidInput)
	}
	text := strings.TrimSpace(userText)
	if text == "" {
		return "", fmt.Errorf("%w: message is empty", contractx.ErrInvalidInput)
	}

	unlock := o.locks.lock(sessionID)
	defer unlock()

	snapshot := o.memory.Snapshot(sessionID)
	firstTurn := routerx.FirstTurn(snapshot)

	userMsg := contractx.Message{Role: contractx.RoleUser, Text: text, Timestamp: o.now().UTC()}
	if err := o.memory.Append(sessionID, userMsg); err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrInvalidInput, err)
	}
	history := append(snapshot, userMsg)

	system := o.prompts.Consultant
	if firstTurn {
		system += "\n\n" + o.prompts.FirstTurnMenu
	}

	ctx, cancel := context.WithTimeout(ctx, o.turnTimeout)
	defer cancel()

	req := contractx.CompletionRequest{
		System:  system,
		History: history,
		Tools:   []contractx.ToolInfo{toolx.Declaration()},
	}

	resp, err := o.backend.Complete(ctx, req)
	if err != nil {
		return o.backendFailure(sessionID, err), nil
	}

	var reply string
	var commit bool
	if resp.ToolCall != nil {
		reply, commit = o.runTool(ctx, sessionID, req, *resp.ToolCall)
	} else {
		reply = strings.TrimSpace(resp.Text)
		if reply == "" {
			return o.backendFailure(sessionID, fmt.Errorf("%w: empty completion text", contractx.ErrBackendUnavailable)), nil
		}
		commit = true
	}

	if commit {
		assistantMsg := contractx.Message{Role: contractx.RoleAssistant, Text: reply, Timestamp: o.now().UTC()}
		if err := o.memory.Append(sessionID, assistantMsg); err != nil {
			log.Error().Err(err).Str("session_id", sessionID).Msg("append assistant message")
		}
	}
	return reply, nil
}

// runTool executes the quotation tool and resumes the backend with its
// outcome. Returns the reply text and whether it should be committed to
// memory as the assistant message.
func (o *Orchestrator) runTool(ctx context.Context, sessionID string, req contractx.CompletionRequest, call contractx.ToolCall) (string, bool) {
	if call.Name != toolx.Name {
		log.Warn().Str("session_id", sessionID).Str("tool", call.Name).Msg("backend requested unknown tool")
		return o.backendFailure(sessionID, fmt.Errorf("%w: unknown tool %q", contractx.ErrBackendUnavailable, call.Name)), false
	}

	quotation, err := routerx.ResolveQuotationRequest(call.Arguments)
	if err != nil {
		// Incomplete or broken slots: ask only for what is missing.
		var slotErr *routerx.SlotError
		fields := []string{"category", "days"}
		if errors.As(err, &slotErr) {
			fields = slotErr.Fields
		}
		log.Debug().Str("session_id", sessionID).Strs("fields", fields).Msg("re-prompting for quotation slots")
		return slotReprompt(fields), true
	}

	outcome, err := o.executor.Execute(ctx, quotation)
	if err != nil {
		switch {
		case errors.Is(err, contractx.ErrPricingUnavailable), errors.Is(err, contractx.ErrUnknownCategory):
			log.Error().Err(err).Str("session_id", sessionID).Msg("quotation degraded")
			return replyPricingDown, true
		case errors.Is(err, contractx.ErrMalformedToolCall):
			return slotReprompt([]string{"category", "days"}), true
		default:
			log.Error().Err(err).Str("session_id", sessionID).Msg("tool execution failed")
			return replyBackendDown, false
		}
	}

	resp, err := o.backend.Resume(ctx, req, call, outcome)
	if err != nil {
		return o.backendFailure(sessionID, err), false
	}
	reply := strings.TrimSpace(resp.Text)
	if reply == "" {
		return o.backendFailure(sessionID, fmt.Errorf("%w: empty resumed completion", contractx.ErrBackendUnavailable)), false
	}
	return reply, true
}

// backendFailure logs the collaborator fault and returns the generic
// apology. The assistant message is not committed to memory.
func (o *Orchestrator) backendFailure(sessionID string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", contractx.ErrBackendTimeout, err)
	}
	log.Error().Err(err).Str("session_id", sessionID).Msg("completion backend failure")
	return replyBackendDown
}

func slotReprompt(fields []string) string {
	needCategory := false
	needDays := false
	for _, f := range fields {
		switch f {
		case "category":
			needCategory = true
		case "days":
			needDays = true
		}
	}

	switch {
	case needCategory && needDays:
		return "Para calcular a cotação, preciso da categoria do veículo (economico, suv ou premium) e do número de dias de locação."
	case needCategory:
		return "Para calcular a cotação, preciso apenas da categoria do veículo: economico, suv ou premium."
	default:
		return "Para calcular a cotação, preciso apenas do número de dias de locação."
	}
}

// sessionLocks serializes turns per session id. Distinct sessions never
// contend beyond the map lookup.
type sessionLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (l *sessionLocks) lock(sessionID string) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*sync.Mutex)
	}
	sl, ok := l.m[sessionID]
	if !ok {
		sl = &sync.Mutex{}
		l.m[sessionID] = sl
	}
	l.mu.Unlock()

	sl.Lock()
	return sl.Unlock
}
