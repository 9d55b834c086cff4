package api

import (
	"context"
	"net/http"
	"time"

	"github.com/fastprodman/crashgame/internal/services/ledger"
	"github.com/fastprodman/crashgame/pkg/money"
	"github.com/google/uuid"
)

type accountResponse struct {
	UserID     uuid.UUID `json:"userId"`
	Balance    string    `json:"balance"`
	FreeRounds int       `json:"freeRounds"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func newAccountResponse(acc ledger.Account) accountResponse {
	return accountResponse{
		UserID:     acc.ID,
		Balance:    money.Format(acc.BalanceMinor),
		FreeRounds: acc.FreeRounds,
		UpdatedAt:  acc.UpdatedAt,
	}
}

type amountRequest struct {
	Amount string `json:"amount"`
}

type deltaRequest struct {
	Delta string `json:"delta"`
}

type freeRoundsRequest struct {
	Count int `json:"count"`
}

// CreateAccountHandler handles POST /user.
func (h *HandlerProvider) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	acc, err := h.ledger.CreateAccount(r.Context(), h.guest)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newAccountResponse(acc))
}

// GetAccountHandler handles GET /user/{userId}.
func (h *HandlerProvider) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	acc, err := h.ledger.GetAccount(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(acc))
}

// DepositHandler handles POST /user/{userId}/deposit.
func (h *HandlerProvider) DepositHandler(w http.ResponseWriter, r *http.Request) {
	h.handleAmount(w, r, h.ledger.Deposit)
}

// WithdrawHandler handles POST /user/{userId}/withdraw.
func (h *HandlerProvider) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	h.handleAmount(w, r, h.ledger.Withdraw)
}

func (h *HandlerProvider) handleAmount(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, userID uuid.UUID, amountMinor int64) (ledger.Account, error),
) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	var req amountRequest

	err = decodeBody(w, r, &req, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	acc, err := apply(r.Context(), userID, amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(acc))
}

// ChangeBalanceHandler handles POST /user/{userId}/balance/change with a
// signed delta.
func (h *HandlerProvider) ChangeBalanceHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	var req deltaRequest

	err = decodeBody(w, r, &req, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	delta, err := money.Parse(req.Delta)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	acc, err := h.ledger.ApplyDeltaMinor(r.Context(), userID, delta)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(acc))
}

// GrantFreeRoundsHandler handles POST /user/{userId}/free-rounds.
func (h *HandlerProvider) GrantFreeRoundsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	var req freeRoundsRequest

	err = decodeBody(w, r, &req, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	acc, err := h.ledger.GrantFreeRounds(r.Context(), userID, req.Count)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(acc))
}
