package api

import (
	"fintrack/middleware"

	"github.com/gin-gonic/gin"
)

// SeedHandler 示例数据处理器
type SeedHandler struct{}

// NewSeedHandler 创建示例数据处理器
func NewSeedHandler() *SeedHandler {
	return &SeedHandler{}
}

// Seed 生成示例数据
// @Summary 生成示例数据
// @Description 生成示例类别、账户、本月预算和最近一段时间的交易；已有类别时拒绝
// @Tags 示例数据
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=ledger.SeedResult} "生成成功"
// @Failure 409 {object} Response "用户已有数据"
// @Router /api/v1/seed [post]
func (h *SeedHandler) Seed(c *gin.Context) {
	result, err := storeFor(c).Seed(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err, "生成示例数据失败")
		return
	}
	SuccessWithMessage(c, "示例数据已生成", result)
}

// DeleteAll 清空全部数据
// @Summary 清空全部数据
// @Description 删除当前用户的交易、预算、类别、账户和分析记录，不可恢复
// @Tags 示例数据
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=ledger.DeleteResult} "清空成功"
// @Router /api/v1/seed [delete]
func (h *SeedHandler) DeleteAll(c *gin.Context) {
	result, err := storeFor(c).DeleteAll(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err, "清空数据失败")
		return
	}
	SuccessWithMessage(c, "数据已清空", result)
}
