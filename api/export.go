package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fintrack/database"
	"fintrack/ledger"
	"fintrack/middleware"
	"fintrack/models"
	"fintrack/service"
	"fintrack/spreadsheet"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const formatJSON = "json"

// ExportMailer 发送导出文件
type ExportMailer interface {
	Enabled() bool
	SendExport(to, filename string, data []byte, summary service.ExportSummary) error
}

// ExportHandler 导出处理器
type ExportHandler struct {
	mailer ExportMailer
}

// NewExportHandler 创建导出处理器
func NewExportHandler(mailer ExportMailer) *ExportHandler {
	return &ExportHandler{mailer: mailer}
}

// ExportSummary JSON 导出结果
type ExportSummary struct {
	StartDate    string          `json:"start_date,omitempty"`
	EndDate      string          `json:"end_date,omitempty"`
	TotalCount   int             `json:"total_count"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Records      []ledger.Record `json:"records"`
}

// Export 导出交易记录
// @Summary 导出交易记录
// @Description 按日期范围导出为 csv、xlsx 或 json；deliver=email 时发送到账号邮箱
// @Tags 导入导出
// @Produce json
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param format query string false "导出格式" Enums(csv,xlsx,json) default(csv)
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)，包含当天"
// @Param deliver query string false "email 表示发送邮件" Enums(email)
// @Success 200 {file} file "导出文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 503 {object} Response "邮件服务未启用"
// @Router /api/v1/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	format := strings.ToLower(c.DefaultQuery("format", spreadsheet.FormatCSV))
	if format != spreadsheet.FormatCSV && format != spreadsheet.FormatXLSX && format != formatJSON {
		BadRequest(c, "format 参数值错误，可选值：csv、xlsx、json")
		return
	}
	deliver := strings.ToLower(c.Query("deliver"))
	if deliver != "" && deliver != "email" {
		BadRequest(c, "deliver 参数值错误，可选值：email")
		return
	}

	startStr, endStr := c.Query("start_date"), c.Query("end_date")
	from, ok := optionalDate(c, startStr, "开始日期")
	if !ok {
		return
	}
	to, ok := optionalDate(c, endStr, "结束日期")
	if !ok {
		return
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1)
	}

	records, err := storeFor(c).ExportRecords(c.Request.Context(), userID, from, to)
	if err != nil {
		RespondError(c, err, "查询数据失败")
		return
	}

	if format == formatJSON && deliver == "" {
		Success(c, summarize(startStr, endStr, records))
		return
	}

	data, contentType, err := encodeExport(format, startStr, endStr, records)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "生成导出文件失败"))
		return
	}
	filename := exportFilename(format, startStr, endStr)

	if deliver == "email" {
		h.deliverByEmail(c, userID, filename, format, data, len(records))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", len(data)))
	c.Data(http.StatusOK, contentType, data)
}

func (h *ExportHandler) deliverByEmail(c *gin.Context, userID uint, filename, format string, data []byte, count int) {
	if h.mailer == nil || !h.mailer.Enabled() {
		ServiceUnavailable(c, "邮件服务未启用")
		return
	}
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		NotFound(c, "用户不存在")
		return
	}
	if user.Email == "" {
		BadRequest(c, "账号未设置邮箱")
		return
	}
	err := h.mailer.SendExport(user.Email, filename, data, service.ExportSummary{
		Username: user.Username,
		Records:  count,
		Format:   format,
	})
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "发送邮件失败"))
		return
	}
	SuccessWithMessage(c, "导出文件已发送至 "+user.Email, gin.H{"records": count, "filename": filename})
}

func encodeExport(format, startStr, endStr string, records []ledger.Record) ([]byte, string, error) {
	buf := new(bytes.Buffer)
	if format == formatJSON {
		body, err := json.MarshalIndent(summarize(startStr, endStr, records), "", "  ")
		return body, "application/json; charset=utf-8", err
	}
	if err := spreadsheet.Write(format, buf, records); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), spreadsheet.ContentType(format), nil
}

func summarize(startStr, endStr string, records []ledger.Record) ExportSummary {
	out := ExportSummary{
		StartDate:    startStr,
		EndDate:      endStr,
		TotalCount:   len(records),
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		Records:      records,
	}
	for _, r := range records {
		if r.Type == models.TypeIncome {
			out.TotalIncome = out.TotalIncome.Add(r.Amount)
		} else {
			out.TotalExpense = out.TotalExpense.Add(r.Amount)
		}
	}
	if out.Records == nil {
		out.Records = []ledger.Record{}
	}
	return out
}

func exportFilename(format, startStr, endStr string) string {
	name := "transactions"
	if startStr != "" || endStr != "" {
		name = fmt.Sprintf("transactions_%s_%s", orAll(startStr), orAll(endStr))
	} else {
		name += "_" + time.Now().Format("20060102")
	}
	return name + "." + format
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}
