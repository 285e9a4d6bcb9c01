package service

import (
	"errors"
	"fmt"
	"html"
	"io"
	"time"

	"fintrack/config"

	"gopkg.in/gomail.v2"
)

// ErrEmailDisabled 邮件服务未启用
var ErrEmailDisabled = errors.New("邮件服务未启用，请配置 FINANCE_EMAIL_ENABLED=true")

// EmailService 邮件服务
type EmailService struct {
	cfg  *config.EmailConfig
	send func(m *gomail.Message) error
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	s := &EmailService{cfg: cfg}
	s.send = s.dialAndSend
	return s
}

// Enabled 是否已启用邮件发送
func (s *EmailService) Enabled() bool {
	return s.cfg != nil && s.cfg.Enabled
}

// ExportSummary 导出邮件中展示的汇总信息
type ExportSummary struct {
	Username string
	Records  int
	Format   string
}

// SendExport 把导出文件作为附件发送给用户
func (s *EmailService) SendExport(to, filename string, data []byte, summary ExportSummary) error {
	if !s.Enabled() {
		return ErrEmailDisabled
	}
	if to == "" {
		return errors.New("收件邮箱为空")
	}
	m := s.buildExportMessage(to, filename, data, summary)
	if err := s.send(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}

func (s *EmailService) buildExportMessage(to, filename string, data []byte, summary ExportSummary) *gomail.Message {
	m := s.newMessage(to, "【记账本】交易记录导出")
	m.SetBody("text/html", s.generateExportEmailBody(summary))
	m.Attach(filename, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}))
	return m
}

// generateExportEmailBody 生成导出邮件内容
func (s *EmailService) generateExportEmailBody(summary ExportSummary) string {
	name := summary.Username
	if name == "" {
		name = "用户"
	}
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: 'Microsoft YaHei', Arial, sans-serif; background: #f5f5f5; padding: 20px;">
    <div style="max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; padding: 30px;">
        <h2 style="color: #2563eb;">💰 记账本</h2>
        <p>您好，<strong>%s</strong>：</p>
        <p>您申请导出的交易记录已生成，共 <strong>%d</strong> 条，格式为 %s，请查收附件。</p>
        <p style="color: #6c757d; font-size: 12px;">导出时间：%s</p>
        <p style="color: #6c757d; font-size: 12px;">此邮件由系统自动发送，请勿回复</p>
    </div>
</body>
</html>
`, html.EscapeString(name), summary.Records, html.EscapeString(summary.Format), time.Now().Format("2006-01-02 15:04"))
}

// SendTestEmail 发送测试邮件
func (s *EmailService) SendTestEmail(toEmail string) error {
	if !s.Enabled() {
		return ErrEmailDisabled
	}
	m := s.newMessage(toEmail, "【记账本】邮件配置测试")
	m.SetBody("text/html", `<p>✅ 如果您收到这封邮件，说明邮件服务配置正确。</p>`)
	if err := s.send(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}

func (s *EmailService) newMessage(to, subject string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	return m
}

func (s *EmailService) dialAndSend(m *gomail.Message) error {
	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	return d.DialAndSend(m)
}
