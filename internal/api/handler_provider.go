package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/fastprodman/crashgame/internal/services/ledger"
	"github.com/fastprodman/crashgame/internal/services/round"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

type Ledger interface {
	CreateAccount(ctx context.Context, opening ledger.Opening) (ledger.Account, error)
	GetAccount(ctx context.Context, userID uuid.UUID) (ledger.Account, error)
	Deposit(ctx context.Context, userID uuid.UUID, amountMinor int64) (ledger.Account, error)
	Withdraw(ctx context.Context, userID uuid.UUID, amountMinor int64) (ledger.Account, error)
	ApplyDeltaMinor(ctx context.Context, userID uuid.UUID, deltaMinor int64) (ledger.Account, error)
	GrantFreeRounds(ctx context.Context, userID uuid.UUID, count int) (ledger.Account, error)
}

type Rounds interface {
	Start(ctx context.Context, userID uuid.UUID, betMinor int64) (round.Handle, error)
	CashOut(ctx context.Context, userID uuid.UUID, multiplier float64) (round.Settlement, error)
	ForceCrash(ctx context.Context, userID uuid.UUID) (round.Settlement, error)
}

// HandlerProvider exposes the ledger and round session over HTTP.
type HandlerProvider struct {
	ledger Ledger
	rounds Rounds
	guest  ledger.Opening
}

// NewHandler returns a handler provider. Accounts created through
// POST /user start with the guest opening state.
func NewHandler(l Ledger, r Rounds, guest ledger.Opening) *HandlerProvider {
	return &HandlerProvider{ledger: l, rounds: r, guest: guest}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps ledger and round failures onto status codes
// without rewording the domain errors.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "insufficient funds")
	case errors.Is(err, round.ErrRoundAlreadyActive):
		writeError(w, http.StatusConflict, "round already active")
	case errors.Is(err, round.ErrNoActiveRound):
		writeError(w, http.StatusConflict, "no active round")
	case errors.Is(err, ledger.ErrInvalidDelta):
		writeError(w, http.StatusBadRequest, "invalid amount")
	case errors.Is(err, ledger.ErrBusy):
		writeError(w, http.StatusTooManyRequests, "account busy, retry later")
	case errors.Is(err, ledger.ErrStoreUnavailable):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "store unavailable, retry later")
	default:
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// parseUserIDFromPath reads `{userId}` from routes like /user/{userId}/round.
func parseUserIDFromPath(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "userId")
	if raw == "" {
		return uuid.Nil, errors.New("missing userId")
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid userId: %w", err)
	}

	return id, nil
}

// decodeBody reads one JSON object, rejecting unknown fields. An empty
// body leaves dst untouched when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			if allowEmpty {
				return nil
			}

			return errors.New("empty body")
		}

		return errors.New("invalid JSON")
	}

	return nil
}
