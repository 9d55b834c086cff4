package api

import (
	"math"
	"net/http"
	"time"

	"github.com/fastprodman/crashgame/internal/services/round"
	"github.com/fastprodman/crashgame/pkg/money"
	"github.com/google/uuid"
)

type startRoundRequest struct {
	Bet string `json:"bet"`
}

type startRoundResponse struct {
	RoundID         uuid.UUID `json:"roundId"`
	UserID          uuid.UUID `json:"userId"`
	Bet             string    `json:"bet"`
	FreeRound       bool      `json:"freeRound"`
	StartedAt       time.Time `json:"startedAt"`
	GrowthPerSecond float64   `json:"growthPerSecond"`
	Balance         string    `json:"balance"`
	FreeRounds      int       `json:"freeRounds"`
}

type cashOutRequest struct {
	Multiplier *float64 `json:"multiplier"`
}

type settlementResponse struct {
	RoundID    uuid.UUID    `json:"roundId"`
	Result     round.Result `json:"result"`
	Multiplier float64      `json:"multiplier"`
	CrashPoint float64      `json:"crashPoint"`
	Payout     string       `json:"payout,omitempty"`
	Balance    string       `json:"balance"`
}

func newSettlementResponse(st round.Settlement) settlementResponse {
	resp := settlementResponse{
		RoundID:    st.RoundID,
		Result:     st.Result,
		Multiplier: st.Multiplier,
		CrashPoint: st.CrashPoint,
		Balance:    money.Format(st.BalanceMinor),
	}

	if st.Result == round.ResultWin {
		resp.Payout = money.Format(st.PayoutMinor)
	}

	return resp
}

// StartRoundHandler handles POST /user/{userId}/round.
func (h *HandlerProvider) StartRoundHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	var req startRoundRequest

	err = decodeBody(w, r, &req, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bet, err := money.Parse(req.Bet)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hnd, err := h.rounds.Start(r.Context(), userID, bet)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, startRoundResponse{
		RoundID:         hnd.RoundID,
		UserID:          hnd.UserID,
		Bet:             money.Format(hnd.BetMinor),
		FreeRound:       hnd.FreeRound,
		StartedAt:       hnd.StartedAt,
		GrowthPerSecond: hnd.GrowthPerSecond,
		Balance:         money.Format(hnd.BalanceMinor),
		FreeRounds:      hnd.FreeRounds,
	})
}

// CashOutHandler handles POST /user/{userId}/round/cashout. The body is
// optional; the multiplier it carries only counts when the session trusts
// client multipliers.
func (h *HandlerProvider) CashOutHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	var req cashOutRequest

	err = decodeBody(w, r, &req, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	multiplier := math.NaN()
	if req.Multiplier != nil {
		multiplier = *req.Multiplier
	}

	st, err := h.rounds.CashOut(r.Context(), userID, multiplier)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newSettlementResponse(st))
}

// CrashHandler handles POST /user/{userId}/round/crash.
func (h *HandlerProvider) CrashHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	st, err := h.rounds.ForceCrash(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newSettlementResponse(st))
}
