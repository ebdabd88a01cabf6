package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chynybekuuludastan/article_generator/internal/api/jobs"
	"github.com/chynybekuuludastan/article_generator/internal/models"
	"github.com/chynybekuuludastan/article_generator/internal/repository"
	"github.com/chynybekuuludastan/article_generator/internal/service/analyzer"
	"github.com/chynybekuuludastan/article_generator/internal/service/article"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm/tokens"
)

type fakeProducts struct {
	products []models.Product
	err      error
	ids      []uint
}

func (f *fakeProducts) FindByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	f.ids = ids
	return f.products, f.err
}

type fakeGenerator struct {
	result *article.GenerationResult
	err    error
	req    article.GenerationRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req article.GenerationRequest, products []models.Product) (*article.GenerationResult, error) {
	f.req = req
	return f.result, f.err
}

type fakeOptimizer struct {
	result *analyzer.OptimizeResult
	err    error
	req    analyzer.OptimizeRequest
}

func (f *fakeOptimizer) Optimize(ctx context.Context, req analyzer.OptimizeRequest) (*analyzer.OptimizeResult, error) {
	f.req = req
	return f.result, f.err
}

type recordedFailure struct {
	requestID, operation string
	userID               *uint
	err                  error
}

type fakeFailures struct {
	records chan recordedFailure
}

func newFakeFailures() *fakeFailures {
	return &fakeFailures{records: make(chan recordedFailure, 4)}
}

func (f *fakeFailures) Record(ctx context.Context, requestID, operation string, userID *uint, err error) (*models.GenerationFailure, error) {
	f.records <- recordedFailure{requestID, operation, userID, err}
	return &models.GenerationFailure{ID: 77}, nil
}

type fakeBudget struct{ exceeded bool }

func (b fakeBudget) IsBudgetExceeded(ctx context.Context) (bool, error) { return b.exceeded, nil }

type fakeUsage struct{}

func (fakeUsage) Today() string { return "2026-05-04" }
func (fakeUsage) DailySummary(ctx context.Context, day string) ([]tokens.UsageSummary, error) {
	return []tokens.UsageSummary{{Date: day, Provider: "google", Model: "gemini-2.5-flash", Requests: 2}}, nil
}
func (fakeUsage) DailyCost(ctx context.Context, day string) (float64, error) { return 0.25, nil }
func (fakeUsage) DailyBudget() float64                                       { return 5 }
func (fakeUsage) RemainingBudget(ctx context.Context) (float64, error)       { return 4.75, nil }

type fakeHistory struct {
	from, to string
	userID   *uint
}

func (h *fakeHistory) Totals(ctx context.Context, from, to string, userID *uint) (repository.UsageTotals, error) {
	h.from, h.to, h.userID = from, to, userID
	return repository.UsageTotals{Requests: 9}, nil
}

type envelope struct {
	Success   bool            `json:"success"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	History   json.RawMessage `json:"history"`
	FailureID uint            `json:"failure_id"`
}

func newTestApp(deps Dependencies) *fiber.App {
	app := NewApp(fiber.Config{})
	SetupRoutes(app, deps)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, headers map[string]string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func sampleResult() *article.GenerationResult {
	return &article.GenerationResult{
		Title:             "【保溫瓶推薦】象印 vs 膳魔師",
		Content:           "內容 {{IMAGE:1:0}}",
		ContentWithImages: "內容 ![IMAGE:1:0](https://img.example/a.jpg)",
		ImageMap:          article.ImageMap{{Marker: "IMAGE:1:0", URL: "https://img.example/a.jpg"}},
		Model:             "gemini-2.5-flash",
		Provider:          "google",
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(Dependencies{})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGenerateSync(t *testing.T) {
	products := &fakeProducts{products: []models.Product{{ID: 1, Name: "象印"}}}
	generator := &fakeGenerator{result: sampleResult()}
	app := newTestApp(Dependencies{Products: products, Generator: generator})

	status, env := doJSON(t, app, http.MethodPost, "/api/articles/generate", map[string]interface{}{
		"product_ids":   []uint{1, 1},
		"article_type":  "review",
		"analyze_seo":   true,
		"image_sources": []string{"main"},
	}, map[string]string{"X-User-ID": "5"})

	require.Equal(t, fiber.StatusOK, status, env.Error)
	assert.True(t, env.Success)
	assert.Equal(t, []uint{1, 1}, products.ids)
	assert.Equal(t, article.TypeReview, generator.req.ArticleType)
	require.NotNil(t, generator.req.UserID)
	assert.Equal(t, uint(5), *generator.req.UserID)

	var data struct {
		Article struct {
			Title    string            `json:"title"`
			ImageMap map[string]string `json:"image_map"`
		} `json:"article"`
		SEO *analyzer.SEOReport `json:"seo"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "【保溫瓶推薦】象印 vs 膳魔師", data.Article.Title)
	assert.Equal(t, "https://img.example/a.jpg", data.Article.ImageMap["IMAGE:1:0"])
	require.NotNil(t, data.SEO)
	assert.Len(t, data.SEO.Breakdown, 8)
}

func TestGenerateValidation(t *testing.T) {
	app := newTestApp(Dependencies{Products: &fakeProducts{}, Generator: &fakeGenerator{}})

	cases := []struct {
		name   string
		body   map[string]interface{}
		status int
	}{
		{"missing products", map[string]interface{}{}, fiber.StatusBadRequest},
		{"bad article type", map[string]interface{}{"product_ids": []uint{1}, "article_type": "poem"}, fiber.StatusBadRequest},
		{"bad image source", map[string]interface{}{"product_ids": []uint{1}, "image_sources": []string{"video"}}, fiber.StatusBadRequest},
		{"unknown products", map[string]interface{}{"product_ids": []uint{1}}, fiber.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := doJSON(t, app, http.MethodPost, "/api/articles/generate", tc.body, nil)
			assert.Equal(t, tc.status, status)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestGenerateFatalErrorIsPersisted(t *testing.T) {
	fatal := &llm.FatalError{
		Message: "all 3 attempts failed",
		Model:   "gemini-2.5-flash",
		History: llm.RetryHistory{{Attempt: 1, ErrorClass: llm.ErrorClassTransient, Message: "503 overloaded"}},
	}
	failures := newFakeFailures()
	app := newTestApp(Dependencies{
		Products:  &fakeProducts{products: []models.Product{{ID: 1}}},
		Generator: &fakeGenerator{err: fatal},
		Failures:  failures,
	})

	status, env := doJSON(t, app, http.MethodPost, "/api/articles/generate",
		map[string]interface{}{"product_ids": []uint{1}},
		map[string]string{"X-Request-ID": "req-9"})

	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Contains(t, env.Error, "all 3 attempts failed")
	assert.Equal(t, uint(77), env.FailureID)
	assert.Contains(t, string(env.History), "503 overloaded")

	record := <-failures.records
	assert.Equal(t, "req-9", record.requestID)
	assert.Equal(t, "generate", record.operation)
}

func TestGenerateBudgetExhausted(t *testing.T) {
	generator := &fakeGenerator{result: sampleResult()}
	app := newTestApp(Dependencies{
		Products:  &fakeProducts{products: []models.Product{{ID: 1}}},
		Generator: generator,
		Budget:    fakeBudget{exceeded: true},
	})

	status, _ := doJSON(t, app, http.MethodPost, "/api/articles/generate", map[string]interface{}{"product_ids": []uint{1}}, nil)
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Empty(t, generator.req.ProductIDs)
}

func TestGenerateAsync(t *testing.T) {
	runner := jobs.NewRunner(jobs.Options{Workers: 1})
	runner.Start(context.Background())
	defer runner.Stop()

	app := newTestApp(Dependencies{
		Products:  &fakeProducts{products: []models.Product{{ID: 1}}},
		Generator: &fakeGenerator{result: sampleResult()},
		Jobs:      runner,
	})

	status, env := doJSON(t, app, http.MethodPost, "/api/articles/generate?async=true", map[string]interface{}{"product_ids": []uint{1}}, nil)
	require.Equal(t, fiber.StatusAccepted, status, env.Error)

	var accepted struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &accepted))
	require.NotEmpty(t, accepted.JobID)

	require.Eventually(t, func() bool {
		job, ok := runner.Get(accepted.JobID)
		return ok && job.Status == jobs.StatusSucceeded
	}, 2*time.Second, 10*time.Millisecond)

	status, env = doJSON(t, app, http.MethodGet, "/api/jobs/"+accepted.JobID, nil, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), "succeeded")
	assert.Contains(t, string(env.Data), "象印 vs 膳魔師")

	status, _ = doJSON(t, app, http.MethodGet, "/api/jobs/missing", nil, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestGenerateAsyncFailureIsPersisted(t *testing.T) {
	runner := jobs.NewRunner(jobs.Options{Workers: 1})
	runner.Start(context.Background())
	defer runner.Stop()

	failures := newFakeFailures()
	app := newTestApp(Dependencies{
		Products:  &fakeProducts{products: []models.Product{{ID: 1}}},
		Generator: &fakeGenerator{err: &llm.FatalError{Message: "bad key", Model: "gemini-2.5-flash"}},
		Failures:  failures,
		Jobs:      runner,
	})

	status, _ := doJSON(t, app, http.MethodPost, "/api/articles/generate?async=true", map[string]interface{}{"product_ids": []uint{1}}, nil)
	require.Equal(t, fiber.StatusAccepted, status)

	select {
	case record := <-failures.records:
		assert.Equal(t, "generate", record.operation)
	case <-time.After(2 * time.Second):
		t.Fatal("failure was not recorded")
	}
}

func TestCopy(t *testing.T) {
	app := newTestApp(Dependencies{})

	status, env := doJSON(t, app, http.MethodPost, "/api/articles/copy", map[string]interface{}{
		"content":   "開頭 {{IMAGE:1:0}} 結尾",
		"image_map": map[string]string{"IMAGE:1:0": "https://img.example/a.jpg"},
	}, nil)
	require.Equal(t, fiber.StatusOK, status, env.Error)

	var data struct {
		Content string                `json:"content"`
		Images  []article.ImageMarker `json:"images"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Contains(t, data.Content, "📷 [在此插入圖片: IMAGE:1:0]")
	assert.NotContains(t, data.Content, "{{IMAGE:1:0}}")
	require.Len(t, data.Images, 1)
	assert.Equal(t, "https://img.example/a.jpg", data.Images[0].URL)
}

func TestSEOAnalyze(t *testing.T) {
	app := newTestApp(Dependencies{})

	status, env := doJSON(t, app, http.MethodPost, "/api/seo/analyze", map[string]interface{}{
		"title":    "【保溫瓶推薦】象印 vs 膳魔師",
		"content":  strings.Repeat("保溫瓶很好用。\n\n", 20),
		"keywords": []string{"保溫瓶"},
	}, nil)
	require.Equal(t, fiber.StatusOK, status)

	var report analyzer.SEOReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, []string{"保溫瓶"}, report.Keywords)
	assert.Equal(t, analyzer.Grade(report.Score), report.Grade)
}

func TestSEOOptimize(t *testing.T) {
	optimizer := &fakeOptimizer{result: &analyzer.OptimizeResult{
		OptimizedTitle:   "新標題",
		OptimizedContent: "新內容",
		Before:           &analyzer.SEOReport{Score: 40},
		After:            &analyzer.SEOReport{Score: 72.5},
		Model:            "gemini-2.5-flash",
	}}
	app := newTestApp(Dependencies{Optimizer: optimizer})

	status, env := doJSON(t, app, http.MethodPost, "/api/seo/optimize", map[string]interface{}{
		"title":        "舊標題",
		"content":      "舊內容",
		"target_forum": "goodthings",
		"model":        "claude-sonnet-4",
	}, map[string]string{"X-User-ID": "3"})
	require.Equal(t, fiber.StatusOK, status, env.Error)

	var data struct {
		OptimizedTitle string  `json:"optimized_title"`
		Delta          float64 `json:"delta"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "新標題", data.OptimizedTitle)
	assert.Equal(t, 32.5, data.Delta)
	assert.Equal(t, "claude-sonnet-4", optimizer.req.Model)
	require.NotNil(t, optimizer.req.UserID)
	assert.Equal(t, uint(3), *optimizer.req.UserID)

	status, _ = doJSON(t, app, http.MethodPost, "/api/seo/optimize", map[string]interface{}{"title": "t"}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestSEOOptimizeFailure(t *testing.T) {
	failures := newFakeFailures()
	app := newTestApp(Dependencies{
		Optimizer: &fakeOptimizer{err: &llm.FatalError{Message: "permission denied", Model: "gemini-2.5-flash"}},
		Failures:  failures,
	})

	status, env := doJSON(t, app, http.MethodPost, "/api/seo/optimize", map[string]interface{}{"title": "t", "content": "c"}, nil)
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Contains(t, env.Error, "permission denied")
	assert.Equal(t, "optimize", (<-failures.records).operation)

	plain := newTestApp(Dependencies{Optimizer: &fakeOptimizer{err: errors.New("boom")}})
	status, _ = doJSON(t, plain, http.MethodPost, "/api/seo/optimize", map[string]interface{}{"title": "t", "content": "c"}, nil)
	assert.Equal(t, fiber.StatusInternalServerError, status)
}

func TestUsage(t *testing.T) {
	history := &fakeHistory{}
	app := newTestApp(Dependencies{Usage: fakeUsage{}, History: history})

	status, env := doJSON(t, app, http.MethodGet, "/api/usage?days=7", nil, map[string]string{"X-User-ID": "2"})
	require.Equal(t, fiber.StatusOK, status, env.Error)

	var data struct {
		Date         string                 `json:"date"`
		Summary      []tokens.UsageSummary  `json:"summary"`
		CostUSD      float64                `json:"cost_usd"`
		Remaining    float64                `json:"remaining_budget_usd"`
		PeriodTotals repository.UsageTotals `json:"period_totals"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "2026-05-04", data.Date)
	assert.Len(t, data.Summary, 1)
	assert.Equal(t, 0.25, data.CostUSD)
	assert.Equal(t, 4.75, data.Remaining)
	assert.Equal(t, int64(9), data.PeriodTotals.Requests)
	assert.Equal(t, "2026-04-28", history.from)
	assert.Equal(t, "2026-05-04", history.to)
	require.NotNil(t, history.userID)

	status, _ = doJSON(t, app, http.MethodGet, "/api/usage?date=yesterday", nil, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
