package api

import (
	"fintrack/ledger"
	"fintrack/middleware"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AccountHandler 账户处理器
type AccountHandler struct{}

// NewAccountHandler 创建账户处理器
func NewAccountHandler() *AccountHandler {
	return &AccountHandler{}
}

// CreateAccountRequest 创建账户请求
type CreateAccountRequest struct {
	Name           string          `json:"name" binding:"required,max=100" example:"日常账户"`
	Type           string          `json:"type" example:"CHECKING"`
	InitialBalance decimal.Decimal `json:"initial_balance" swaggertype:"number" example:"2500"`
}

// UpdateAccountRequest 更新账户请求，余额不可直接修改
type UpdateAccountRequest struct {
	Name *string `json:"name" binding:"omitempty,max=100" example:"工资卡"`
	Type *string `json:"type" example:"SAVINGS"`
}

// List 获取账户列表
// @Summary 获取账户列表
// @Tags 账户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Account} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := storeFor(c).ListAccounts(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err, "查询账户失败")
		return
	}
	Success(c, accounts)
}

// Create 创建账户
// @Summary 创建账户
// @Description 余额初始为 initial_balance，之后只随交易变化
// @Tags 账户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateAccountRequest true "账户信息"
// @Success 200 {object} Response{data=models.Account} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	account, err := storeFor(c).CreateAccount(c.Request.Context(), middleware.GetCurrentUserID(c), ledger.AccountInput{
		Name:           req.Name,
		Type:           req.Type,
		InitialBalance: req.InitialBalance,
	})
	if err != nil {
		RespondError(c, err, "创建账户失败")
		return
	}
	SuccessWithMessage(c, "创建成功", account)
}

// Get 获取单个账户
// @Summary 获取账户详情
// @Tags 账户
// @Produce json
// @Security BearerAuth
// @Param id path int true "账户ID"
// @Success 200 {object} Response{data=models.Account} "获取成功"
// @Failure 404 {object} Response "账户不存在"
// @Router /api/v1/accounts/{id} [get]
func (h *AccountHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	account, err := storeFor(c).GetAccount(c.Request.Context(), middleware.GetCurrentUserID(c), id)
	if err != nil {
		RespondError(c, err, "查询账户失败")
		return
	}
	Success(c, account)
}

// Update 更新账户
// @Summary 更新账户
// @Tags 账户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "账户ID"
// @Param request body UpdateAccountRequest true "账户信息"
// @Success 200 {object} Response{data=models.Account} "更新成功"
// @Failure 404 {object} Response "账户不存在"
// @Router /api/v1/accounts/{id} [put]
func (h *AccountHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	account, err := storeFor(c).UpdateAccount(c.Request.Context(), middleware.GetCurrentUserID(c), id, ledger.AccountPatch{
		Name: req.Name,
		Type: req.Type,
	})
	if err != nil {
		RespondError(c, err, "更新账户失败")
		return
	}
	SuccessWithMessage(c, "更新成功", account)
}

// Delete 删除账户
// @Summary 删除账户
// @Description 账户下仍有交易时拒绝删除
// @Tags 账户
// @Produce json
// @Security BearerAuth
// @Param id path int true "账户ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "账户不存在"
// @Failure 409 {object} Response "账户下存在交易"
// @Router /api/v1/accounts/{id} [delete]
func (h *AccountHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := storeFor(c).DeleteAccount(c.Request.Context(), middleware.GetCurrentUserID(c), id); err != nil {
		RespondError(c, err, "删除账户失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// Reconcile 对账
// @Summary 账户对账
// @Description 比较账户余额与 初始余额+交易合计
// @Tags 账户
// @Produce json
// @Security BearerAuth
// @Param id path int true "账户ID"
// @Success 200 {object} Response{data=ledger.Reconciliation} "对账结果"
// @Failure 404 {object} Response "账户不存在"
// @Router /api/v1/accounts/{id}/reconcile [get]
func (h *AccountHandler) Reconcile(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	rec, err := storeFor(c).ReconcileAccount(c.Request.Context(), middleware.GetCurrentUserID(c), id)
	if err != nil {
		RespondError(c, err, "对账失败")
		return
	}
	Success(c, rec)
}
