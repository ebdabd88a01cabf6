package middleware

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderRequestID = "X-Request-ID"

	LocalUserID    = "userID"
	LocalRequestID = "requestID"
)

// CallerMiddleware tags each request with a request id and the caller's
// user id. Authentication happens upstream; the gateway forwards the
// authenticated id in X-User-ID.
func CallerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals(LocalRequestID, requestID)
		c.Set(HeaderRequestID, requestID)

		if raw := c.Get(HeaderUserID); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"success": false,
					"error":   "Invalid " + HeaderUserID + " header",
				})
			}
			userID := uint(id)
			c.Locals(LocalUserID, &userID)
		}

		return c.Next()
	}
}

// UserID returns the caller's id, or nil for anonymous requests.
func UserID(c *fiber.Ctx) *uint {
	if id, ok := c.Locals(LocalUserID).(*uint); ok {
		return id
	}
	return nil
}

// RequestID returns the id assigned by CallerMiddleware.
func RequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(LocalRequestID).(string); ok {
		return id
	}
	return ""
}

// BudgetChecker reports whether today's LLM spend is exhausted.
type BudgetChecker interface {
	IsBudgetExceeded(ctx context.Context) (bool, error)
}

// BudgetGuard refuses the request with 429 once the daily budget is spent.
// A checker error lets the request through.
func BudgetGuard(checker BudgetChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if checker == nil {
			return c.Next()
		}
		exceeded, err := checker.IsBudgetExceeded(c.UserContext())
		if err == nil && exceeded {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error":   "Daily LLM budget exhausted, try again tomorrow",
			})
		}
		return c.Next()
	}
}
