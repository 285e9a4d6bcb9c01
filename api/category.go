package api

import (
	"strings"

	"fintrack/ledger"
	"fintrack/middleware"
	"fintrack/models"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 类别处理器
type CategoryHandler struct{}

// NewCategoryHandler 创建类别处理器
func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// CreateCategoryRequest 创建类别请求
type CreateCategoryRequest struct {
	Name  string `json:"name" binding:"required,max=50" example:"餐饮"`
	Type  string `json:"type" binding:"required" example:"EXPENSE"`
	Icon  string `json:"icon" example:"🍽️"`
	Color string `json:"color" example:"#EF4444"`
}

// UpdateCategoryRequest 更新类别请求，类型不可修改
type UpdateCategoryRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=50" example:"外卖"`
	Icon  *string `json:"icon" example:"🥡"`
	Color *string `json:"color" example:"#F97316"`
}

// List 获取类别列表
// @Summary 获取类别列表
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param type query string false "INCOME 或 EXPENSE"
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	entryType := strings.ToUpper(strings.TrimSpace(c.Query("type")))
	if entryType != "" && !models.ValidEntryType(entryType) {
		BadRequest(c, "type 参数值错误，可选值：INCOME、EXPENSE")
		return
	}
	categories, err := storeFor(c).ListCategories(c.Request.Context(), middleware.GetCurrentUserID(c), entryType)
	if err != nil {
		RespondError(c, err, "查询类别失败")
		return
	}
	Success(c, categories)
}

// Available 可加入预算的类别
// @Summary 可选类别
// @Description 未关联预算、关联的预算已过期、或关联的就是 budget_id 所指预算的支出类别
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param budget_id query int false "正在编辑的预算ID"
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Router /api/v1/categories/available [get]
func (h *CategoryHandler) Available(c *gin.Context) {
	budgetID, err := optionalUint(c.Query("budget_id"))
	if err != nil {
		BadRequest(c, "无效的预算ID")
		return
	}
	categories, err := storeFor(c).AvailableCategories(c.Request.Context(), middleware.GetCurrentUserID(c), budgetID)
	if err != nil {
		RespondError(c, err, "查询类别失败")
		return
	}
	Success(c, categories)
}

// Create 创建类别
// @Summary 创建类别
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCategoryRequest true "类别信息"
// @Success 200 {object} Response{data=models.Category} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 409 {object} Response "类别名称已存在"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	category, err := storeFor(c).CreateCategory(c.Request.Context(), middleware.GetCurrentUserID(c), ledger.CategoryInput{
		Name:  req.Name,
		Type:  req.Type,
		Icon:  req.Icon,
		Color: req.Color,
	})
	if err != nil {
		RespondError(c, err, "创建类别失败")
		return
	}
	SuccessWithMessage(c, "创建成功", category)
}

// Update 更新类别
// @Summary 更新类别
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Param request body UpdateCategoryRequest true "类别信息"
// @Success 200 {object} Response{data=models.Category} "更新成功"
// @Failure 404 {object} Response "类别不存在"
// @Failure 409 {object} Response "类别名称已存在"
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	category, err := storeFor(c).UpdateCategory(c.Request.Context(), middleware.GetCurrentUserID(c), id, ledger.CategoryPatch{
		Name:  req.Name,
		Icon:  req.Icon,
		Color: req.Color,
	})
	if err != nil {
		RespondError(c, err, "更新类别失败")
		return
	}
	SuccessWithMessage(c, "更新成功", category)
}

// Delete 删除类别
// @Summary 删除类别
// @Description 类别下仍有交易时拒绝删除
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Success 200 {object} Response "删除成功"
// @Failure 409 {object} Response "类别下存在交易"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := storeFor(c).DeleteCategory(c.Request.Context(), middleware.GetCurrentUserID(c), id); err != nil {
		RespondError(c, err, "删除类别失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
