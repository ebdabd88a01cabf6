package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/chynybekuuludastan/article_generator/internal/api/middleware"
	"github.com/chynybekuuludastan/article_generator/internal/models"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
)

// FailureRecorder persists diagnostics for failed LLM calls.
type FailureRecorder interface {
	Record(ctx context.Context, requestID, operation string, userID *uint, err error) (*models.GenerationFailure, error)
}

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// llmFailure answers a failed LLM call. Fatal errors are persisted with
// their retry history and reported as 502.
func llmFailure(c *fiber.Ctx, failures FailureRecorder, logger llm.Logger, operation string, err error) error {
	var fatal *llm.FatalError
	if !errors.As(err, &fatal) {
		logger.Error("Request failed", "operation", operation, "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}

	body := fiber.Map{
		"success": false,
		"error":   fatal.Error(),
		"history": fatal.History,
		"report":  fatal.History.String(),
	}

	if failures != nil {
		record, recordErr := failures.Record(c.UserContext(), middleware.RequestID(c), operation, middleware.UserID(c), err)
		if recordErr != nil {
			logger.Error("Failed to persist generation failure", "operation", operation, "error", recordErr)
		} else {
			body["failure_id"] = record.ID
		}
	}

	logger.Warn("LLM call failed", "operation", operation, "model", fatal.Model, "attempts", len(fatal.History))
	return c.Status(fiber.StatusBadGateway).JSON(body)
}
