package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/config"
	"fintrack/ledger"
	"fintrack/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInsightData() *ledger.InsightData {
	return &ledger.InsightData{
		Transactions: []models.Transaction{
			{
				Amount:   decimal.RequireFromString("35.50"),
				Type:     models.TypeExpense,
				Date:     time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local),
				Category: &models.Category{Name: "餐饮"},
			},
		},
		Budgets: []models.Budget{
			{Name: "每月餐饮预算", Amount: decimal.NewFromInt(600), Spent: decimal.RequireFromString("35.5"), Period: models.PeriodMonthly, Status: models.BudgetOnTrack},
		},
	}
}

func newChatServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 1)
		assert.Contains(t, req.Messages[0].Content, "餐饮")

		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("quota exceeded"))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
		})
	}))
}

func newTestAIService(baseURL string) *AIService {
	return NewAIService(config.AIConfig{
		Enabled: true,
		BaseURL: baseURL + "/v1/",
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	})
}

func TestGenerateInsights_NotConfigured(t *testing.T) {
	s := NewAIService(config.AIConfig{Enabled: true})
	_, err := s.GenerateInsights(context.Background(), sampleInsightData())
	assert.ErrorIs(t, err, ErrAINotConfigured)
}

func TestGenerateInsights_ParsesJSON(t *testing.T) {
	content := "```json\n" + `{"spendingPatterns":"餐饮占比高","budgetInsights":"预算正常","recommendations":["少点外卖"],"savingsOpportunities":["自己做饭"],"financialHealthScore":8,"summary":"整体良好"}` + "\n```"
	srv := newChatServer(t, content, http.StatusOK)
	defer srv.Close()

	res, err := newTestAIService(srv.URL).GenerateInsights(context.Background(), sampleInsightData())
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, "test-model", res.Model)
	assert.Equal(t, 8, res.Insights.FinancialHealthScore)
	assert.Equal(t, []string{"少点外卖"}, res.Insights.Recommendations)
	assert.Equal(t, "整体良好", res.Insights.Summary)
}

func TestGenerateInsights_FallbackOnPlainText(t *testing.T) {
	srv := newChatServer(t, "您的消费整体平稳。", http.StatusOK)
	defer srv.Close()

	res, err := newTestAIService(srv.URL).GenerateInsights(context.Background(), sampleInsightData())
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, 7, res.Insights.FinancialHealthScore)
	assert.Equal(t, "您的消费整体平稳。...", res.Insights.Summary)
	assert.Equal(t, "您的消费整体平稳。", res.Raw)
}

func TestGenerateInsights_UpstreamError(t *testing.T) {
	srv := newChatServer(t, "", http.StatusTooManyRequests)
	defer srv.Close()

	_, err := newTestAIService(srv.URL).GenerateInsights(context.Background(), sampleInsightData())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFallbackInsights_TruncatesRunes(t *testing.T) {
	text := strings.Repeat("好", 250)
	got := FallbackInsights(text)
	assert.Equal(t, strings.Repeat("好", 200)+"...", got.Summary)
	assert.Len(t, got.Recommendations, 2)
	assert.Len(t, got.SavingsOpportunities, 2)
}

func TestBuildInsightsPrompt(t *testing.T) {
	prompt, err := BuildInsightsPrompt(sampleInsightData())
	require.NoError(t, err)
	assert.Contains(t, prompt, `"amount": "35.50"`)
	assert.Contains(t, prompt, `"date": "2024-03-10"`)
	assert.Contains(t, prompt, "每月餐饮预算")
	assert.Contains(t, prompt, "financialHealthScore")
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("  {\"a\":1} "))
}
