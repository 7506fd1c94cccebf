package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mint-pay/mint_pay/internal/asset"
	"github.com/mint-pay/mint_pay/internal/config"
	"github.com/mint-pay/mint_pay/internal/identity"
	"github.com/mint-pay/mint_pay/internal/ledger"
	"github.com/mint-pay/mint_pay/internal/middleware"
	"github.com/mint-pay/mint_pay/internal/notification"
	"github.com/mint-pay/mint_pay/internal/transaction"
	"github.com/mint-pay/mint_pay/internal/transfer"
	"github.com/mint-pay/mint_pay/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes, and returns the
// wired recovery sweeper for main to run.
func Setup(app *fiber.App, d Deps) (*transfer.Sweeper, error) {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var (
		walletStore wallet.Store
		txStore     transaction.Store
		recorder    ledger.Recorder
		users       identity.Repository
		assets      asset.Repository
	)
	if d.DB != nil {
		walletStore = wallet.NewPostgresStore(d.DB)
		txStore = transaction.NewPostgresStore(d.DB)
		recorder = ledger.NewPostgresRecorder(d.DB)
		users = identity.NewPostgresRepository(d.DB)
		assets = asset.NewPostgresRepository(d.DB)
	} else {
		walletStore = wallet.NewMemoryStore()
		txStore = transaction.NewMemoryStore()
		recorder = ledger.NewMemoryRecorder()
		users = identity.NewMemoryRepository()
		assets = asset.NewMemoryRepository()
	}

	directory := wallet.NewDirectory(walletStore)
	engine := transfer.NewEngine(walletStore, txStore, recorder, d.Logger)
	notifier := notification.NewLoggerNotifier(d.Logger)
	service := transfer.NewService(users, assets, directory, txStore, engine, notifier, d.Logger)
	handler := transfer.NewHandler(service)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterWalletRoutes(api, handler, middleware.OperationRateLimit(d.Cache, d.Cfg.OpsRatePerMin))

	sweeper := transfer.NewSweeper(walletStore, txStore, recorder, d.Cache, d.Cfg.PendingThreshold, d.Logger)
	return sweeper, nil
}
