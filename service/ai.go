package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fintrack/config"
	"fintrack/ledger"
)

// ErrAINotConfigured AI 服务未配置
var ErrAINotConfigured = errors.New("AI 服务未配置")

// fallbackSummaryLength 解析失败时 summary 保留的原文字符数
const fallbackSummaryLength = 200

// Insights 财务分析结果
type Insights struct {
	SpendingPatterns     string   `json:"spendingPatterns"`
	BudgetInsights       string   `json:"budgetInsights"`
	Recommendations      []string `json:"recommendations"`
	SavingsOpportunities []string `json:"savingsOpportunities"`
	FinancialHealthScore int      `json:"financialHealthScore"`
	Summary              string   `json:"summary"`
}

// InsightResult 一次分析的输出
type InsightResult struct {
	Insights Insights
	Model    string
	Raw      string
	Fallback bool
}

// AIService OpenAI 兼容接口的财务分析客户端
type AIService struct {
	cfg    config.AIConfig
	client *http.Client
}

// NewAIService 创建 AI 分析服务
func NewAIService(cfg config.AIConfig) *AIService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AIService{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

// Configured 是否可以调用
func (s *AIService) Configured() bool {
	return s.cfg.Configured()
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GenerateInsights 根据最近流水和预算生成分析；模型输出无法解析时返回兜底结果
func (s *AIService) GenerateInsights(ctx context.Context, data *ledger.InsightData) (*InsightResult, error) {
	if !s.Configured() {
		return nil, ErrAINotConfigured
	}
	prompt, err := BuildInsightsPrompt(data)
	if err != nil {
		return nil, err
	}
	text, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	insights, ok := ParseInsights(text)
	return &InsightResult{Insights: insights, Model: s.cfg.Model, Raw: text, Fallback: !ok}, nil
}

// complete 非流式调用 /chat/completions，返回第一条回复内容
func (s *AIService) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    s.cfg.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("构建请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(s.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("请求AI服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("AI服务返回错误: %d, %s", resp.StatusCode, string(msg))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("解析AI响应失败: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("AI服务未返回内容")
	}
	return out.Choices[0].Message.Content, nil
}

type promptTransaction struct {
	Amount   string `json:"amount"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Date     string `json:"date"`
}

type promptBudget struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Spent  string `json:"spent"`
	Period string `json:"period"`
	Status string `json:"status"`
}

// BuildInsightsPrompt 构建分析提示词
func BuildInsightsPrompt(data *ledger.InsightData) (string, error) {
	txns := make([]promptTransaction, 0, len(data.Transactions))
	for _, t := range data.Transactions {
		p := promptTransaction{
			Amount: t.Amount.StringFixed(2),
			Type:   t.Type,
			Date:   t.Date.Format("2006-01-02"),
		}
		if t.Category != nil {
			p.Category = t.Category.Name
		}
		txns = append(txns, p)
	}
	budgets := make([]promptBudget, 0, len(data.Budgets))
	for _, b := range data.Budgets {
		budgets = append(budgets, promptBudget{
			Name:   b.Name,
			Amount: b.Amount.StringFixed(2),
			Spent:  b.Spent.StringFixed(2),
			Period: b.Period,
			Status: b.Status,
		})
	}

	txnJSON, err := json.MarshalIndent(txns, "", "  ")
	if err != nil {
		return "", err
	}
	budgetJSON, err := json.MarshalIndent(budgets, "", "  ")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`你是一名理财顾问，请分析以下用户的财务数据并给出建议。

最近的交易记录（最多 %d 条）：
%s

当前预算：
%s

请提供：
1. 消费习惯分析
2. 预算执行情况
3. 改进建议
4. 可节省的开支
5. 财务健康评分（1-10）

请用中文回答，简洁实用。只输出 JSON，结构如下：
{
  "spendingPatterns": "消费习惯分析",
  "budgetInsights": "预算执行分析",
  "recommendations": ["建议1", "建议2", "建议3"],
  "savingsOpportunities": ["机会1", "机会2"],
  "financialHealthScore": 8,
  "summary": "总体评价"
}
`, len(txns), txnJSON, budgetJSON), nil
}

// ParseInsights 解析模型输出；允许外层包裹 markdown 代码块
// 无法解析时返回兜底建议，summary 为原文前 200 个字符，第二个返回值为 false
func ParseInsights(text string) (Insights, bool) {
	var out Insights
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &out); err == nil {
		return out, true
	}
	return FallbackInsights(text), false
}

// FallbackInsights 兜底分析结果
func FallbackInsights(text string) Insights {
	summary := []rune(strings.TrimSpace(text))
	if len(summary) > fallbackSummaryLength {
		summary = summary[:fallbackSummaryLength]
	}
	return Insights{
		SpendingPatterns:     "暂时无法分析消费习惯。",
		BudgetInsights:       "暂时无法分析预算执行情况。",
		Recommendations:      []string{"回顾最近的交易记录", "为主要支出类别设置预算"},
		SavingsOpportunities: []string{"记录每日开支", "检查订阅类服务"},
		FinancialHealthScore: 7,
		Summary:              string(summary) + "...",
	}
}

func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
