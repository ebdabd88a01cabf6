package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/chynybekuuludastan/article_generator/internal/api/middleware"
	"github.com/chynybekuuludastan/article_generator/internal/repository"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm/tokens"
)

// UsageReporter exposes the live daily counters.
type UsageReporter interface {
	Today() string
	DailySummary(ctx context.Context, day string) ([]tokens.UsageSummary, error)
	DailyCost(ctx context.Context, day string) (float64, error)
	DailyBudget() float64
	RemainingBudget(ctx context.Context) (float64, error)
}

// UsageHistory exposes the durable per-day totals.
type UsageHistory interface {
	Totals(ctx context.Context, from, to string, userID *uint) (repository.UsageTotals, error)
}

// UsageHandler reports token usage and spend.
type UsageHandler struct {
	Live    UsageReporter
	History UsageHistory
	Logger  llm.Logger
}

// NewUsageHandler creates a usage handler. Either source may be nil.
func NewUsageHandler(live UsageReporter, history UsageHistory, logger llm.Logger) *UsageHandler {
	if logger == nil {
		logger = llm.NopLogger{}
	}
	return &UsageHandler{Live: live, History: history, Logger: logger}
}

// GetUsage handles GET /api/usage?date=YYYY-MM-DD&days=N.
func (h *UsageHandler) GetUsage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	data := fiber.Map{}

	day := c.Query("date")
	if day != "" {
		if _, err := time.Parse("2006-01-02", day); err != nil {
			return errorResponse(c, fiber.StatusBadRequest, "date must be YYYY-MM-DD")
		}
	}

	if h.Live != nil {
		if day == "" {
			day = h.Live.Today()
		}
		summary, err := h.Live.DailySummary(ctx, day)
		if err != nil {
			h.Logger.Error("Failed to read usage summary", "error", err)
			return errorResponse(c, fiber.StatusInternalServerError, "Failed to read usage")
		}
		if summary == nil {
			summary = []tokens.UsageSummary{}
		}
		cost, err := h.Live.DailyCost(ctx, day)
		if err != nil {
			return errorResponse(c, fiber.StatusInternalServerError, "Failed to read usage")
		}
		remaining, err := h.Live.RemainingBudget(ctx)
		if err != nil {
			return errorResponse(c, fiber.StatusInternalServerError, "Failed to read usage")
		}

		data["date"] = day
		data["summary"] = summary
		data["cost_usd"] = cost
		data["daily_budget_usd"] = h.Live.DailyBudget()
		data["remaining_budget_usd"] = remaining
	}

	if h.History != nil {
		days := c.QueryInt("days", 30)
		if days < 1 {
			days = 1
		}
		end := day
		if end == "" {
			end = tokens.UsageDate(time.Now())
		}
		to, _ := time.Parse("2006-01-02", end)
		from := to.AddDate(0, 0, -(days - 1))

		totals, err := h.History.Totals(ctx, from.Format("2006-01-02"), to.Format("2006-01-02"), middleware.UserID(c))
		if err != nil {
			h.Logger.Error("Failed to read usage totals", "error", err)
			return errorResponse(c, fiber.StatusInternalServerError, "Failed to read usage")
		}
		data["period_days"] = days
		data["period_totals"] = totals
	}

	return success(c, fiber.StatusOK, data)
}
