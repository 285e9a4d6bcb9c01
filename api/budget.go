package api

import (
	"time"

	"fintrack/ledger"
	"fintrack/middleware"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// BudgetHandler 预算处理器
type BudgetHandler struct{}

// NewBudgetHandler 创建预算处理器
func NewBudgetHandler() *BudgetHandler {
	return &BudgetHandler{}
}

// CreateBudgetRequest 创建预算请求
// end_date 为空时按周期推算，start_date 为空时取今天
type CreateBudgetRequest struct {
	Name        string          `json:"name" binding:"required,max=100" example:"每月餐饮预算"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"number" example:"600"`
	Period      string          `json:"period" example:"MONTHLY"`
	StartDate   string          `json:"start_date" example:"2024-03-01"`
	EndDate     string          `json:"end_date" example:"2024-03-31"`
	CategoryIDs []uint          `json:"category_ids" example:"1,2"`
}

// UpdateBudgetRequest 更新预算请求
// category_ids 不传表示不修改关联，传入则整体替换
type UpdateBudgetRequest struct {
	Name        *string          `json:"name" binding:"omitempty,max=100" example:"餐饮预算"`
	Amount      *decimal.Decimal `json:"amount" swaggertype:"number" example:"800"`
	Period      *string          `json:"period" example:"MONTHLY"`
	StartDate   *string          `json:"start_date" example:"2024-03-01"`
	EndDate     *string          `json:"end_date" example:"2024-03-31"`
	CategoryIDs []uint           `json:"category_ids" example:"1,3"`
}

// List 获取预算列表
// @Summary 获取预算列表
// @Description 附带已花费、剩余、进度和状态
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Budget} "获取成功"
// @Router /api/v1/budgets [get]
func (h *BudgetHandler) List(c *gin.Context) {
	budgets, err := storeFor(c).ListBudgets(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err, "查询预算失败")
		return
	}
	Success(c, budgets)
}

// Create 创建预算
// @Summary 创建预算
// @Description 关联的类别必须是支出类别，且未被其他未过期预算占用
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBudgetRequest true "预算信息"
// @Success 200 {object} Response{data=models.Budget} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 409 {object} Response "类别已被其他预算占用"
// @Router /api/v1/budgets [post]
func (h *BudgetHandler) Create(c *gin.Context) {
	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	start, ok := optionalDate(c, req.StartDate, "开始日期")
	if !ok {
		return
	}
	end, ok := optionalDate(c, req.EndDate, "结束日期")
	if !ok {
		return
	}

	budget, err := storeFor(c).CreateBudget(c.Request.Context(), middleware.GetCurrentUserID(c), ledger.BudgetInput{
		Name:        req.Name,
		Amount:      req.Amount,
		Period:      req.Period,
		StartDate:   start,
		EndDate:     end,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		RespondError(c, err, "创建预算失败")
		return
	}
	SuccessWithMessage(c, "创建成功", budget)
}

// Get 获取单个预算
// @Summary 获取预算详情
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Success 200 {object} Response{data=models.Budget} "获取成功"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id} [get]
func (h *BudgetHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	budget, err := storeFor(c).GetBudget(c.Request.Context(), middleware.GetCurrentUserID(c), id)
	if err != nil {
		RespondError(c, err, "查询预算失败")
		return
	}
	Success(c, budget)
}

// Update 更新预算
// @Summary 更新预算
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Param request body UpdateBudgetRequest true "预算信息"
// @Success 200 {object} Response{data=models.Budget} "更新成功"
// @Failure 404 {object} Response "预算不存在"
// @Failure 409 {object} Response "类别已被其他预算占用"
// @Router /api/v1/budgets/{id} [put]
func (h *BudgetHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	patch := ledger.BudgetPatch{
		Name:        req.Name,
		Amount:      req.Amount,
		Period:      req.Period,
		CategoryIDs: req.CategoryIDs,
	}
	if req.StartDate != nil {
		start, ok := optionalDate(c, *req.StartDate, "开始日期")
		if !ok {
			return
		}
		patch.StartDate = &start
	}
	if req.EndDate != nil {
		end, ok := optionalDate(c, *req.EndDate, "结束日期")
		if !ok {
			return
		}
		patch.EndDate = &end
	}

	budget, err := storeFor(c).UpdateBudget(c.Request.Context(), middleware.GetCurrentUserID(c), id, patch)
	if err != nil {
		RespondError(c, err, "更新预算失败")
		return
	}
	SuccessWithMessage(c, "更新成功", budget)
}

// Delete 删除预算
// @Summary 删除预算
// @Description 关联的类别会被释放
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id} [delete]
func (h *BudgetHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := storeFor(c).DeleteBudget(c.Request.Context(), middleware.GetCurrentUserID(c), id); err != nil {
		RespondError(c, err, "删除预算失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// optionalDate 解析可选日期，格式错误时直接输出 400
func optionalDate(c *gin.Context, s, field string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	t, err := parseDate(s)
	if err != nil {
		BadRequest(c, field+"格式错误，应为: 2006-01-02")
		return time.Time{}, false
	}
	return t, true
}
