// Package httpx exposes the agent over a minimal JSON HTTP boundary.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/decoderlab/fleetquote/agent/contract"
)

type Config struct {
	Addr            string        `envconfig:"ADDR" split_words:"true" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" split_words:"true" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" split_words:"true" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" split_words:"true" default:"10s"`
}

// TurnHandler is the orchestrator surface the HTTP layer depends on.
type TurnHandler interface {
	HandleTurn(ctx context.Context, sessionID, userText string) (string, error)
}

type askRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type askResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler builds the HTTP routes. A missing session_id gets a fresh UUID,
// returned so the client can continue the conversation.
func Handler(turns TurnHandler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/assistant", func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		sessionID := strings.TrimSpace(req.SessionID)
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		started := time.Now()
		reply, err := turns.HandleTurn(r.Context(), sessionID, req.Message)
		if err != nil {
			if errors.Is(err, contractx.ErrInvalidInput) {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
				return
			}
			log.Error().Err(err).Str("session_id", sessionID).Msg("turn failed")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}

		log.Info().
			Str("session_id", sessionID).
			Dur("elapsed", time.Since(started)).
			Msg("turn handled")
		writeJSON(w, http.StatusOK, askResponse{SessionID: sessionID, Reply: reply})
	})
	return mux
}

// Serve runs the server until ctx is canceled, then shuts down gracefully.
func Serve(ctx context.Context, cfg Config, turns TurnHandler) error {
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      Handler(turns),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}
