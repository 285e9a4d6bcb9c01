package api

import (
	"strings"
	"time"

	"fintrack/ledger"
	"fintrack/middleware"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler 统计分析处理器
type AnalyticsHandler struct{}

// NewAnalyticsHandler 创建统计分析处理器
func NewAnalyticsHandler() *AnalyticsHandler {
	return &AnalyticsHandler{}
}

// Overview 首页概览
// @Summary 首页概览
// @Description 全部账户余额合计、本月收入、支出、结余和最近 5 笔交易
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=ledger.Overview} "获取成功"
// @Router /api/v1/analytics/overview [get]
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	out, err := storeFor(c).Overview(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err, "统计失败")
		return
	}
	Success(c, out)
}

// Statistics 区间统计
// @Summary 区间收支统计
// @Description 时间范围类型说明：
// @Description - week: 最近 7 天
// @Description - month: 按月统计，可传 year_month（格式：2024-01），默认本月
// @Description - year: 按年统计，可传 year（格式：2024），默认今年
// @Description - custom: 自定义时间范围，需要传入 start_date 和 end_date（格式：2024-01-01）
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param range_type query string false "时间范围类型" Enums(week,month,year,custom)
// @Param year_month query string false "年月（range_type=month，格式：2024-01）"
// @Param year query string false "年份（range_type=year，格式：2024）"
// @Param start_date query string false "开始日期（range_type=custom，格式：2024-01-01）"
// @Param end_date query string false "结束日期（range_type=custom，格式：2024-12-31）"
// @Success 200 {object} Response{data=ledger.Statistics} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/analytics/statistics [get]
func (h *AnalyticsHandler) Statistics(c *gin.Context) {
	rangeType := strings.ToLower(strings.TrimSpace(c.DefaultQuery("range_type", ledger.RangeMonth)))

	anchor := time.Now()
	var start, end time.Time
	switch rangeType {
	case ledger.RangeMonth:
		if ym := c.Query("year_month"); ym != "" {
			t, err := time.ParseInLocation("2006-01", ym, time.Local)
			if err != nil {
				BadRequest(c, "year_month 格式错误，应为: 2006-01")
				return
			}
			anchor = t
		}
	case ledger.RangeYear:
		if y := c.Query("year"); y != "" {
			t, err := time.ParseInLocation("2006", y, time.Local)
			if err != nil {
				BadRequest(c, "year 格式错误，应为: 2006")
				return
			}
			anchor = t
		}
	case ledger.RangeCustom:
		var ok bool
		if start, ok = optionalDate(c, c.Query("start_date"), "开始日期"); !ok {
			return
		}
		if end, ok = optionalDate(c, c.Query("end_date"), "结束日期"); !ok {
			return
		}
	}

	r, err := ledger.ResolveRange(rangeType, anchor, start, end)
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}
	out, err := storeFor(c).Statistics(c.Request.Context(), middleware.GetCurrentUserID(c), r)
	if err != nil {
		RespondError(c, err, "统计失败")
		return
	}
	Success(c, out)
}
