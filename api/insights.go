package api

import (
	"context"
	"encoding/json"
	"errors"

	"fintrack/ledger"
	"fintrack/middleware"
	"fintrack/models"
	"fintrack/service"

	"github.com/gin-gonic/gin"
)

// InsightGenerator 生成财务分析
type InsightGenerator interface {
	Configured() bool
	GenerateInsights(ctx context.Context, data *ledger.InsightData) (*service.InsightResult, error)
}

// InsightHandler AI 财务分析处理器
type InsightHandler struct {
	ai InsightGenerator
}

// NewInsightHandler 创建 AI 财务分析处理器
func NewInsightHandler(ai InsightGenerator) *InsightHandler {
	return &InsightHandler{ai: ai}
}

// InsightResponse 分析结果
type InsightResponse struct {
	ID       uint             `json:"id"`
	Fallback bool             `json:"fallback"`
	Insights service.Insights `json:"insights"`
}

// Generate 生成财务分析
// @Summary 生成 AI 财务分析
// @Description 基于最近 50 笔交易和当前预算生成分析；模型输出无法解析时返回兜底建议（fallback=true）
// @Tags AI分析
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=InsightResponse} "分析完成"
// @Failure 503 {object} Response "AI 服务未配置"
// @Router /api/v1/insights [post]
func (h *InsightHandler) Generate(c *gin.Context) {
	if h.ai == nil || !h.ai.Configured() {
		ServiceUnavailable(c, "AI 服务未配置")
		return
	}
	userID := middleware.GetCurrentUserID(c)
	ctx := c.Request.Context()
	store := storeFor(c)

	data, err := store.InsightData(ctx, userID)
	if err != nil {
		RespondError(c, err, "查询数据失败")
		return
	}

	res, err := h.ai.GenerateInsights(ctx, data)
	if err != nil {
		if errors.Is(err, service.ErrAINotConfigured) {
			ServiceUnavailable(c, "AI 服务未配置")
			return
		}
		InternalError(c, SafeErrorMessage(err, "生成分析失败"))
		return
	}

	body, err := json.Marshal(res.Insights)
	if err != nil {
		InternalError(c, "生成分析失败")
		return
	}
	record := models.AIInsight{
		Model:    res.Model,
		Fallback: res.Fallback,
		Score:    res.Insights.FinancialHealthScore,
		Result:   string(body),
	}
	if err := store.SaveInsight(ctx, userID, &record); err != nil {
		RespondError(c, err, "保存分析结果失败")
		return
	}

	Success(c, InsightResponse{ID: record.ID, Fallback: res.Fallback, Insights: res.Insights})
}

// History 历史分析记录
// @Summary 历史分析记录
// @Tags AI分析
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} Response{data=PageResponse{list=[]models.AIInsight}} "获取成功"
// @Router /api/v1/insights/history [get]
func (h *InsightHandler) History(c *gin.Context) {
	var page struct {
		Page     int `form:"page"`
		PageSize int `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&page); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	list, total, p, err := storeFor(c).ListInsights(c.Request.Context(), middleware.GetCurrentUserID(c), ledger.Page{Page: page.Page, PageSize: page.PageSize})
	if err != nil {
		RespondError(c, err, "查询分析记录失败")
		return
	}
	if list == nil {
		list = []models.AIInsight{}
	}
	Success(c, PageResponse{Total: total, Page: p.Page, PageSize: p.PageSize, List: list})
}
