package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"tokendraw/models"
	"tokendraw/service"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// HandlerProvider wraps the domain services and exposes HTTP handlers
type HandlerProvider struct {
	ledger service.TokenLedgerService
	draws  service.DrawService
	prizes service.PrizeService
}

// NewHandler returns a new handler provider
func NewHandler(ledger service.TokenLedgerService, draws service.DrawService, prizes service.PrizeService) *HandlerProvider {
	return &HandlerProvider{
		ledger: ledger,
		draws:  draws,
		prizes: prizes,
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps business outcomes onto HTTP statuses: validation 400,
// unknown entity 404, conflicts 409, transient failures 503.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnknownUser),
		errors.Is(err, service.ErrDrawNotFound),
		errors.Is(err, service.ErrPrizeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, service.ErrDrawNotActive),
		errors.Is(err, service.ErrDrawExpired),
		errors.Is(err, service.ErrCapacityExceeded),
		errors.Is(err, service.ErrDrawAlreadyResolved),
		errors.Is(err, service.ErrPrizeNotPending):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "storage temporarily unavailable")
	default:
		log.WithError(err).Error("Unhandled service error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	idStr := chi.URLParam(r, name)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s", name)
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}

	return id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body")
		}
		return fmt.Errorf("invalid JSON")
	}
	return nil
}

// --- User handlers ---

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// RegisterUser handles POST /users
func (h *HandlerProvider) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Username == "" {
		writeError(w, http.StatusBadRequest, "email and username are required")
		return
	}

	user, err := h.ledger.RegisterUser(r.Context(), req.Email, req.Username)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// GetBalance handles GET /users/{userId}/balance
func (h *HandlerProvider) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	balance, err := h.ledger.GetBalance(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"balance": balance,
	})
}

// ListTransactions handles GET /users/{userId}/transactions
func (h *HandlerProvider) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			limit = n
		}
	}

	txns, err := h.ledger.ListTransactions(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"transactions": txns})
}

// ListUserEntries handles GET /users/{userId}/entries
func (h *HandlerProvider) ListUserEntries(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.draws.ListUserEntries(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type purchaseRequest struct {
	Amount int64 `json:"amount"`
}

// PurchaseTokens handles POST /users/{userId}/tokens/purchase
func (h *HandlerProvider) PurchaseTokens(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req purchaseRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	newBalance, err := h.ledger.PurchaseTokens(r.Context(), userID, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"new_balance": newBalance})
}

// --- Draw handlers ---

type enterRequest struct {
	UserID  int64 `json:"user_id"`
	Entries int64 `json:"entries"`
}

// EnterDraw handles POST /draws/{drawId}/enter
func (h *HandlerProvider) EnterDraw(w http.ResponseWriter, r *http.Request) {
	drawID, err := parseIDParam(r, "drawId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req enterRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.Entries == 0 {
		req.Entries = 1
	}

	result, err := h.draws.EnterDraw(r.Context(), req.UserID, drawID, req.Entries)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_entries": result.TotalEntries,
		"new_balance":   result.NewBalance,
	})
}

// GetDraw handles GET /draws/{drawId}
func (h *HandlerProvider) GetDraw(w http.ResponseWriter, r *http.Request) {
	drawID, err := parseIDParam(r, "drawId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	draw, err := h.draws.GetDraw(r.Context(), drawID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, draw)
}

// GetActiveDraw handles GET /draws/active
func (h *HandlerProvider) GetActiveDraw(w http.ResponseWriter, r *http.Request) {
	draw, err := h.draws.GetActiveDraw(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if draw == nil {
		writeError(w, http.StatusNotFound, "no active draw")
		return
	}

	writeJSON(w, http.StatusOK, draw)
}

// ListUpcomingDraws handles GET /draws/upcoming
func (h *HandlerProvider) ListUpcomingDraws(w http.ResponseWriter, r *http.Request) {
	draws, err := h.draws.ListUpcomingDraws(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"draws": draws})
}

// ListCompletedDraws handles GET /draws/completed
func (h *HandlerProvider) ListCompletedDraws(w http.ResponseWriter, r *http.Request) {
	draws, err := h.draws.ListCompletedDraws(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"draws": draws})
}

// --- Admin handlers ---

type drawRequest struct {
	PrizeName     string     `json:"prize_name"`
	PrizeSubtitle *string    `json:"prize_subtitle"`
	PrizeEmoji    *string    `json:"prize_emoji"`
	PrizeType     string     `json:"prize_type"`
	PrizeCode     *string    `json:"prize_code"`
	TokenCost     int64      `json:"token_cost"`
	MaxEntries    int64      `json:"max_entries"`
	Status        string     `json:"status"`
	StartsAt      *time.Time `json:"starts_at"`
	EndsAt        time.Time  `json:"ends_at"`
}

func (req *drawRequest) toModel() *models.Draw {
	return &models.Draw{
		PrizeName:     req.PrizeName,
		PrizeSubtitle: req.PrizeSubtitle,
		PrizeEmoji:    req.PrizeEmoji,
		PrizeType:     req.PrizeType,
		PrizeCode:     req.PrizeCode,
		TokenCost:     req.TokenCost,
		MaxEntries:    req.MaxEntries,
		Status:        models.DrawStatus(req.Status),
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
	}
}

// CreateDraw handles POST /admin/draws
func (h *HandlerProvider) CreateDraw(w http.ResponseWriter, r *http.Request) {
	var req drawRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	draw, err := h.draws.CreateDraw(r.Context(), req.toModel())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, draw)
}

// UpdateDraw handles PATCH /admin/draws/{drawId}
func (h *HandlerProvider) UpdateDraw(w http.ResponseWriter, r *http.Request) {
	drawID, err := parseIDParam(r, "drawId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req drawRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	draw := req.toModel()
	draw.ID = drawID

	updated, err := h.draws.UpdateDraw(r.Context(), draw)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteDraw handles DELETE /admin/draws/{drawId}
func (h *HandlerProvider) DeleteDraw(w http.ResponseWriter, r *http.Request) {
	drawID, err := parseIDParam(r, "drawId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.draws.DeleteDraw(r.Context(), drawID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ActivateDraw handles POST /admin/draws/{drawId}/activate
func (h *HandlerProvider) ActivateDraw(w http.ResponseWriter, r *http.Request) {
	drawID, err := parseIDParam(r, "drawId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.draws.ActivateDraw(r.Context(), drawID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SelectWinner handles POST /admin/draws/{drawId}/select-winner
func (h *HandlerProvider) SelectWinner(w http.ResponseWriter, r *http.Request) {
	drawID, err := parseIDParam(r, "drawId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	draw, err := h.draws.SelectWinner(r.Context(), drawID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, draw)
}

// Sweep handles POST /admin/sweep
func (h *HandlerProvider) Sweep(w http.ResponseWriter, r *http.Request) {
	if err := h.draws.SweepExpiredDraws(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListPrizes handles GET /admin/prizes
func (h *HandlerProvider) ListPrizes(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			limit = n
		}
	}

	prizes, err := h.prizes.ListPrizes(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"prizes": prizes})
}

// GetDrawPrize handles GET /admin/draws/{drawId}/prize
func (h *HandlerProvider) GetDrawPrize(w http.ResponseWriter, r *http.Request) {
	drawID, err := parseIDParam(r, "drawId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	prize, err := h.prizes.GetPrizeByDraw(r.Context(), drawID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if prize == nil {
		writeError(w, http.StatusNotFound, "no prize for draw")
		return
	}

	writeJSON(w, http.StatusOK, prize)
}

type deliverRequest struct {
	PrizeCode *string `json:"prize_code"`
}

// DeliverPrize handles POST /admin/prizes/{prizeId}/deliver
func (h *HandlerProvider) DeliverPrize(w http.ResponseWriter, r *http.Request) {
	prizeID, err := parseIDParam(r, "prizeId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req deliverRequest
	if r.ContentLength > 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	prize, err := h.prizes.MarkDelivered(r.Context(), prizeID, req.PrizeCode)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, prize)
}
