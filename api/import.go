package api

import (
	"fintrack/middleware"
	"fintrack/spreadsheet"

	"github.com/gin-gonic/gin"
)

// maxImportSize 导入文件大小上限
const maxImportSize = 10 << 20

// ImportHandler 导入处理器
type ImportHandler struct{}

// NewImportHandler 创建导入处理器
func NewImportHandler() *ImportHandler {
	return &ImportHandler{}
}

// Import 导入交易记录
// @Summary 导入交易记录
// @Description 上传 csv 或 xlsx 文件，表头为 Date,Description,Amount,Type,Category,Account（也可使用中文表头）
// @Description 不存在的类别和账户按名称自动创建；无效行跳过并返回行号和原因
// @Description 整个导入在一个事务内完成，超时则全部回滚并返回 503，可稍后重试
// @Tags 导入导出
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "导入文件"
// @Success 200 {object} Response{data=ledger.ImportResult} "导入完成"
// @Failure 400 {object} Response "文件格式错误"
// @Failure 503 {object} Response "导入超时，已回滚"
// @Router /api/v1/import [post]
func (h *ImportHandler) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "请上传文件")
		return
	}
	if fh.Size > maxImportSize {
		BadRequest(c, "文件不能超过 10MB")
		return
	}
	format, err := spreadsheet.FormatOf(fh.Filename)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	f, err := fh.Open()
	if err != nil {
		BadRequest(c, "读取文件失败")
		return
	}
	defer f.Close()

	rows, err := spreadsheet.Read(format, f)
	if err != nil {
		BadRequest(c, SafeErrorMessage(err, "解析文件失败"))
		return
	}
	if len(rows) == 0 {
		BadRequest(c, "文件中没有数据")
		return
	}

	result, err := storeFor(c).Import(c.Request.Context(), middleware.GetCurrentUserID(c), rows)
	if err != nil {
		RespondError(c, err, "导入失败")
		return
	}
	SuccessWithMessage(c, "导入完成", result)
}
