package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	contractx "github.com/decoderlab/fleetquote/agent/contract"
)

type fakeTurns struct {
	reply string
	err   error

	sessionIDs []string
	texts      []string
}

func (f *fakeTurns) HandleTurn(ctx context.Context, sessionID, userText string) (string, error) {
	f.sessionIDs = append(f.sessionIDs, sessionID)
	f.texts = append(f.texts, userText)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func postAssistant(t *testing.T, server *httptest.Server, body string) (*http.Response, map[string]string) {
	t.Helper()

	resp, err := http.Post(server.URL+"/api/assistant", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/assistant error = %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func TestAssistantEndpointSuccess(t *testing.T) {
	t.Parallel()

	turns := &fakeTurns{reply: "Cotação pronta."}
	server := httptest.NewServer(Handler(turns))
	t.Cleanup(server.Close)

	resp, body := postAssistant(t, server, `{"session_id":"s1","message":"cotação suv 7 dias"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["reply"] != "Cotação pronta." {
		t.Fatalf("reply = %q", body["reply"])
	}
	if body["session_id"] != "s1" {
		t.Fatalf("session_id = %q, want s1", body["session_id"])
	}
	if len(turns.sessionIDs) != 1 || turns.sessionIDs[0] != "s1" {
		t.Fatalf("handler session ids = %v", turns.sessionIDs)
	}
}

func TestAssistantEndpointDefaultsSessionID(t *testing.T) {
	t.Parallel()

	turns := &fakeTurns{reply: "ok"}
	server := httptest.NewServer(Handler(turns))
	t.Cleanup(server.Close)

	resp, body := postAssistant(t, server, `{"message":"olá"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["session_id"] == "" {
		t.Fatal("a generated session_id must be returned")
	}
	if len(turns.sessionIDs) != 1 || turns.sessionIDs[0] != body["session_id"] {
		t.Fatalf("generated id %q not passed through, got %v", body["session_id"], turns.sessionIDs)
	}
}

func TestAssistantEndpointInvalidInput(t *testing.T) {
	t.Parallel()

	turns := &fakeTurns{err: fmt.Errorf("%w: message is empty", contractx.ErrInvalidInput)}
	server := httptest.NewServer(Handler(turns))
	t.Cleanup(server.Close)

	resp, _ := postAssistant(t, server, `{"message":""}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAssistantEndpointBadBody(t *testing.T) {
	t.Parallel()

	turns := &fakeTurns{reply: "ok"}
	server := httptest.NewServer(Handler(turns))
	t.Cleanup(server.Close)

	resp, _ := postAssistant(t, server, `not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(turns.sessionIDs) != 0 {
		t.Fatal("malformed body must not reach the orchestrator")
	}
}

func TestAssistantEndpointUnexpectedError(t *testing.T) {
	t.Parallel()

	turns := &fakeTurns{err: fmt.Errorf("boom")}
	server := httptest.NewServer(Handler(turns))
	t.Cleanup(server.Close)

	resp, body := postAssistant(t, server, `{"session_id":"s1","message":"olá"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	if strings.Contains(body["error"], "boom") {
		t.Fatalf("internal detail leaked to the client: %q", body["error"])
	}
}
