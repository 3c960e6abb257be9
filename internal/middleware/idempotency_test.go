package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyMiddleware(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	calls := 0
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(UserIDKey, c.Get("X-User"))
		return c.Next()
	})
	app.Use(IdempotencyMiddleware(redisClient, time.Minute))
	app.Post("/items", func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"n": calls})
	})
	app.Post("/fail", func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "no"})
	})
	app.Get("/items", func(c *fiber.Ctx) error {
		calls++
		return c.SendString("list")
	})

	send := func(method, path, user, correlationID string) (int, string, string) {
		req := httptest.NewRequest(method, path, strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User", user)
		if correlationID != "" {
			req.Header.Set("X-Correlation-ID", correlationID)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body), resp.Header.Get("X-Idempotent-Replay")
	}

	status, body, replay := send("POST", "/items", "u1", "abc")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.JSONEq(t, `{"n":1}`, body)
	assert.Empty(t, replay)

	require.Eventually(t, func() bool {
		return mr.Exists("idempotency:u1:abc")
	}, time.Second, 10*time.Millisecond)

	status, body, replay = send("POST", "/items", "u1", "abc")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.JSONEq(t, `{"n":1}`, body)
	assert.Equal(t, "true", replay)
	assert.Equal(t, 1, calls)

	t.Run("keys are per user", func(t *testing.T) {
		_, body, replay := send("POST", "/items", "u2", "abc")
		assert.JSONEq(t, `{"n":2}`, body)
		assert.Empty(t, replay)
	})

	t.Run("no correlation id", func(t *testing.T) {
		before := calls
		send("POST", "/items", "u1", "")
		send("POST", "/items", "u1", "")
		assert.Equal(t, before+2, calls)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		send("POST", "/fail", "u1", "err-1")
		time.Sleep(50 * time.Millisecond)
		assert.False(t, mr.Exists("idempotency:u1:err-1"))
	})

	t.Run("reads pass through", func(t *testing.T) {
		before := calls
		send("GET", "/items", "u1", "read-1")
		send("GET", "/items", "u1", "read-1")
		assert.Equal(t, before+2, calls)
	})
}
