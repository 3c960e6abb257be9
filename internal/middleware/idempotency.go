package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	CorrelationIDHeader = "X-Correlation-ID"
	ReplayHeader        = "X-Idempotent-Replay"

	idempotencyKeyPrefix = "idempotency:"
	replayStoreTimeout   = 2 * time.Second
)

var idempotentMethods = map[string]bool{
	fiber.MethodPost:  true,
	fiber.MethodPut:   true,
	fiber.MethodPatch: true,
}

// replay is a stored 2xx response
type replay struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

func (r replay) send(c *fiber.Ctx) error {
	c.Set(ReplayHeader, "true")
	if r.ContentType != "" {
		c.Set(fiber.HeaderContentType, r.ContentType)
	}
	return c.Status(r.Status).Send(r.Body)
}

func idempotencyKey(userID, correlationID string) string {
	return idempotencyKeyPrefix + userID + ":" + correlationID
}

// IdempotencyMiddleware replays the stored response when a caller repeats a
// mutating request with the same X-Correlation-ID within ttl. Requests
// without the header pass through untouched.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		correlationID := c.Get(CorrelationIDHeader)
		if correlationID == "" || !idempotentMethods[c.Method()] {
			return c.Next()
		}
		key := idempotencyKey(GetUserID(c), correlationID)

		if raw, err := rdb.Get(c.UserContext(), key).Bytes(); err == nil {
			var stored replay
			if json.Unmarshal(raw, &stored) == nil {
				return stored.send(c)
			}
		}

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
			return nil
		}
		data, err := json.Marshal(replay{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		})
		if err != nil {
			return nil
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), replayStoreTimeout)
			defer cancel()
			rdb.Set(ctx, key, data, ttl)
		}()
		return nil
	}
}
