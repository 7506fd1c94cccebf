package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mint-pay/mint_pay/internal/transfer"
)

// RegisterWalletRoutes wires the wallet operation and query endpoints. The
// rate limit applies to mutations only; queries stay unthrottled.
func RegisterWalletRoutes(r fiber.Router, h *transfer.Handler, rateLimit fiber.Handler) {
	r.Post("/wallets/topup", rateLimit, h.TopUp)
	r.Post("/wallets/bonus", rateLimit, h.Bonus)
	r.Post("/wallets/spend", rateLimit, h.Spend)
	r.Get("/wallets/:userId/balances", h.Balances)
	r.Get("/wallets/:userId/transactions", h.Transactions)
}
