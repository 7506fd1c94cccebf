package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func setupRateLimitApp(t *testing.T, maxPerMin int) (*fiber.App, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := fiber.New()
	app.Post("/op", OperationRateLimit(cache, maxPerMin), func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true})
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}
	return app, mr, cleanup
}

func postOp(t *testing.T, app *fiber.App, userID string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/op", strings.NewReader(`{"user_id":"`+userID+`"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestOperationRateLimitPerUser(t *testing.T) {
	app, _, cleanup := setupRateLimitApp(t, 3)
	defer cleanup()

	for i := 0; i < 3; i++ {
		if status := postOp(t, app, "user-a"); status != fiber.StatusCreated {
			t.Fatalf("request %d: expected %d got %d", i+1, fiber.StatusCreated, status)
		}
	}
	if status := postOp(t, app, "user-a"); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected %d got %d", fiber.StatusTooManyRequests, status)
	}

	// Other users are not affected by one user's burst.
	if status := postOp(t, app, "user-b"); status != fiber.StatusCreated {
		t.Fatalf("expected %d for other user, got %d", fiber.StatusCreated, status)
	}
}

func TestOperationRateLimitResetsAfterWindow(t *testing.T) {
	app, mr, cleanup := setupRateLimitApp(t, 1)
	defer cleanup()

	if status := postOp(t, app, "user-a"); status != fiber.StatusCreated {
		t.Fatalf("expected %d got %d", fiber.StatusCreated, status)
	}
	if status := postOp(t, app, "user-a"); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected %d got %d", fiber.StatusTooManyRequests, status)
	}

	mr.FastForward(2 * time.Minute)
	if status := postOp(t, app, "user-a"); status != fiber.StatusCreated {
		t.Fatalf("expected %d after window reset, got %d", fiber.StatusCreated, status)
	}
}
