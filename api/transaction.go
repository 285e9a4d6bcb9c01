package api

import (
	"strings"
	"time"

	"fintrack/ledger"
	"fintrack/middleware"
	"fintrack/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransactionHandler 交易流水处理器
type TransactionHandler struct{}

// NewTransactionHandler 创建交易流水处理器
func NewTransactionHandler() *TransactionHandler {
	return &TransactionHandler{}
}

// CreateTransactionRequest 创建交易请求
type CreateTransactionRequest struct {
	Amount      decimal.Decimal `json:"amount" swaggertype:"number" example:"35.5"`
	Type        string          `json:"type" binding:"required" example:"EXPENSE"`
	Description string          `json:"description" binding:"max=255" example:"午餐"`
	Date        string          `json:"date" example:"2024-01-15 12:30:00"`
	CategoryID  uint            `json:"category_id" binding:"required" example:"1"`
	AccountID   uint            `json:"account_id" binding:"required" example:"1"`
}

// UpdateTransactionRequest 更新交易请求，未传的字段保持不变
type UpdateTransactionRequest struct {
	Amount      *decimal.Decimal `json:"amount" swaggertype:"number" example:"40"`
	Type        *string          `json:"type" example:"EXPENSE"`
	Description *string          `json:"description" binding:"omitempty,max=255" example:"晚餐"`
	Date        *string          `json:"date" example:"2024-01-15"`
	CategoryID  *uint            `json:"category_id" example:"2"`
	AccountID   *uint            `json:"account_id" example:"1"`
}

// TransactionListRequest 交易列表请求
type TransactionListRequest struct {
	Page       int    `form:"page" example:"1"`
	PageSize   int    `form:"page_size" example:"10"`
	Type       string `form:"type" example:"EXPENSE"`
	CategoryID uint   `form:"category_id" example:"1"`
	AccountID  uint   `form:"account_id" example:"1"`
	StartDate  string `form:"start_date" example:"2024-01-01"`
	EndDate    string `form:"end_date" example:"2024-12-31"`
}

// List 获取交易列表
// @Summary 获取交易列表
// @Description 按日期倒序，支持分页和筛选
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param type query string false "INCOME 或 EXPENSE"
// @Param category_id query int false "类别ID"
// @Param account_id query int false "账户ID"
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)，包含当天"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Transaction}} "获取成功"
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	var req TransactionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	filter := ledger.TransactionFilter{
		Type:       strings.ToUpper(strings.TrimSpace(req.Type)),
		CategoryID: req.CategoryID,
		AccountID:  req.AccountID,
		Page:       ledger.Page{Page: req.Page, PageSize: req.PageSize},
	}
	if req.StartDate != "" {
		start, err := parseDate(req.StartDate)
		if err != nil {
			BadRequest(c, "开始日期格式错误，应为: 2006-01-02")
			return
		}
		filter.Start = start
	}
	if req.EndDate != "" {
		end, err := parseDate(req.EndDate)
		if err != nil {
			BadRequest(c, "结束日期格式错误，应为: 2006-01-02")
			return
		}
		// 包含结束日期当天
		filter.End = end.AddDate(0, 0, 1)
	}

	list, total, page, err := storeFor(c).ListTransactions(c.Request.Context(), middleware.GetCurrentUserID(c), filter)
	if err != nil {
		RespondError(c, err, "查询交易失败")
		return
	}
	if list == nil {
		list = []models.Transaction{}
	}
	Success(c, PageResponse{
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
		List:     list,
	})
}

// Create 创建交易
// @Summary 创建交易
// @Description 同时调整所属账户余额
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTransactionRequest true "交易信息"
// @Success 200 {object} Response{data=models.Transaction} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "类别或账户不存在"
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	var date time.Time
	if req.Date != "" {
		d, err := parseDateTime(req.Date)
		if err != nil {
			BadRequest(c, "时间格式错误，应为: 2006-01-02 或 2006-01-02 15:04:05")
			return
		}
		date = d
	}

	txn, err := storeFor(c).CreateTransaction(c.Request.Context(), middleware.GetCurrentUserID(c), ledger.TransactionInput{
		Amount:      req.Amount,
		Type:        strings.ToUpper(strings.TrimSpace(req.Type)),
		Description: req.Description,
		Date:        date,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
	})
	if err != nil {
		RespondError(c, err, "创建交易失败")
		return
	}
	SuccessWithMessage(c, "创建成功", txn)
}

// Get 获取单条交易
// @Summary 获取交易详情
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Success 200 {object} Response{data=models.Transaction} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	txn, err := storeFor(c).GetTransaction(c.Request.Context(), middleware.GetCurrentUserID(c), id)
	if err != nil {
		RespondError(c, err, "查询交易失败")
		return
	}
	Success(c, txn)
}

// Update 更新交易
// @Summary 更新交易
// @Description 撤销原交易对余额的影响后按新值重新记账，全部在一个事务内完成
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Param request body UpdateTransactionRequest true "交易信息"
// @Success 200 {object} Response{data=models.Transaction} "更新成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	patch := ledger.TransactionPatch{
		Amount:      req.Amount,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
	}
	if req.Type != nil {
		t := strings.ToUpper(strings.TrimSpace(*req.Type))
		patch.Type = &t
	}
	if req.Date != nil {
		d, err := parseDateTime(*req.Date)
		if err != nil {
			BadRequest(c, "时间格式错误，应为: 2006-01-02 或 2006-01-02 15:04:05")
			return
		}
		patch.Date = &d
	}

	txn, err := storeFor(c).UpdateTransaction(c.Request.Context(), middleware.GetCurrentUserID(c), id, patch)
	if err != nil {
		RespondError(c, err, "更新交易失败")
		return
	}
	SuccessWithMessage(c, "更新成功", txn)
}

// Delete 删除交易
// @Summary 删除交易
// @Description 同时撤销其对账户余额的影响
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := storeFor(c).DeleteTransaction(c.Request.Context(), middleware.GetCurrentUserID(c), id); err != nil {
		RespondError(c, err, "删除交易失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
