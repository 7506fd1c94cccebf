package transfer

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/mint-pay/mint_pay/internal/identity"
	"github.com/mint-pay/mint_pay/internal/transaction"
	"github.com/mint-pay/mint_pay/internal/wallet"
)

// Handler exposes the wallet operation endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a transfer HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type operationRequest struct {
	UserID         string          `json:"user_id"`
	AssetCode      string          `json:"asset_code"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotency_key"`
	Reason         string          `json:"reason,omitempty"`
	Reference      string          `json:"reference,omitempty"`
}

type operationResponse struct {
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	AssetCode     string          `json:"asset_code"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	NewBalance    decimal.Decimal `json:"new_balance"`
}

type envelope struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TopUp handles POST /wallets/topup.
func (h *Handler) TopUp(c *fiber.Ctx) error {
	return h.operation(c, h.service.TopUp, "Top-up successful")
}

// Bonus handles POST /wallets/bonus.
func (h *Handler) Bonus(c *fiber.Ctx) error {
	return h.operation(c, h.service.Bonus, "Bonus granted successfully")
}

// Spend handles POST /wallets/spend.
func (h *Handler) Spend(c *fiber.Ctx) error {
	return h.operation(c, h.service.Spend, "Spend successful")
}

func (h *Handler) operation(c *fiber.Ctx, op func(ctx context.Context, req Request) (Outcome, error), message string) error {
	var req operationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	reference := req.Reference
	if reference == "" {
		reference = req.Reason
	}

	outcome, err := op(c.UserContext(), Request{
		UserID:         req.UserID,
		AssetCode:      req.AssetCode,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
		Reference:      reference,
	})
	if err != nil {
		return mapError(err)
	}

	return c.Status(http.StatusCreated).JSON(envelope{
		Status:  "SUCCESS",
		Message: message,
		Data: operationResponse{
			TransactionID: outcome.Transaction.ID,
			UserID:        outcome.Transaction.UserID,
			AssetCode:     outcome.Transaction.AssetCode,
			Amount:        outcome.Transaction.Amount,
			Status:        string(outcome.Transaction.Status),
			NewBalance:    outcome.NewBalance,
		},
		Timestamp: time.Now().UTC(),
	})
}

type balanceRow struct {
	AssetCode string          `json:"asset_code"`
	Balance   decimal.Decimal `json:"balance"`
}

// Balances handles GET /wallets/:userId/balances.
func (h *Handler) Balances(c *fiber.Ctx) error {
	userID := c.Params("userId")
	balances, err := h.service.GetUserBalances(c.UserContext(), userID)
	if err != nil {
		return mapError(err)
	}

	rows := make([]balanceRow, 0, len(balances))
	for _, b := range balances {
		rows = append(rows, balanceRow{AssetCode: b.AssetCode, Balance: b.Balance})
	}
	return c.Status(http.StatusOK).JSON(envelope{
		Status:    "SUCCESS",
		Message:   "Balances fetched",
		Data:      fiber.Map{"user_id": userID, "balances": rows},
		Timestamp: time.Now().UTC(),
	})
}

type transactionRow struct {
	TransactionID string          `json:"transaction_id"`
	Kind          string          `json:"kind"`
	AssetCode     string          `json:"asset_code"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Transactions handles GET /wallets/:userId/transactions.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	userID := c.Params("userId")
	txs, err := h.service.ListTransactions(c.UserContext(), userID)
	if err != nil {
		return mapError(err)
	}

	rows := make([]transactionRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, transactionRow{
			TransactionID: tx.ID,
			Kind:          string(tx.Kind),
			AssetCode:     tx.AssetCode,
			Amount:        tx.Amount,
			Status:        string(tx.Status),
			FailureReason: string(tx.FailureReason),
			CreatedAt:     tx.CreatedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(envelope{
		Status:    "SUCCESS",
		Message:   "Transactions fetched",
		Data:      fiber.Map{"user_id": userID, "transactions": rows},
		Timestamp: time.Now().UTC(),
	})
}

// mapError translates the engine's error taxonomy to HTTP statuses. The
// request layer never retries on conflict.
func mapError(err error) error {
	var validation *ValidationError
	switch {
	case errors.As(err, &validation):
		return fiber.NewError(http.StatusBadRequest, validation.Reason)
	case errors.Is(err, identity.ErrNotFound),
		errors.Is(err, wallet.ErrNotFound),
		errors.Is(err, transaction.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case IsConflict(err):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
