package service

import (
	"bytes"
	"errors"
	"mime"
	"testing"

	"fintrack/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func newTestEmailService(enabled bool) (*EmailService, *[]*gomail.Message) {
	s := NewEmailService(&config.EmailConfig{
		Enabled:  enabled,
		Host:     "smtp.example.com",
		Port:     465,
		Username: "noreply@example.com",
		From:     "记账本",
	})
	var sent []*gomail.Message
	s.send = func(m *gomail.Message) error {
		sent = append(sent, m)
		return nil
	}
	return s, &sent
}

func TestGenerateExportEmailBody(t *testing.T) {
	s, _ := newTestEmailService(true)
	body := s.generateExportEmailBody(ExportSummary{Username: "张三", Records: 12, Format: "xlsx"})
	assert.Contains(t, body, "张三")
	assert.Contains(t, body, "<strong>12</strong>")
	assert.Contains(t, body, "xlsx")

	body = s.generateExportEmailBody(ExportSummary{Username: "<b>x</b>"})
	assert.NotContains(t, body, "<b>x</b>")
	assert.Contains(t, body, "&lt;b&gt;x&lt;/b&gt;")
}

func TestSendExport_Disabled(t *testing.T) {
	s, sent := newTestEmailService(false)
	err := s.SendExport("a@example.com", "t.csv", []byte("x"), ExportSummary{})
	assert.ErrorIs(t, err, ErrEmailDisabled)
	assert.Empty(t, *sent)
}

func TestSendExport_EmptyRecipient(t *testing.T) {
	s, sent := newTestEmailService(true)
	err := s.SendExport("", "t.csv", []byte("x"), ExportSummary{})
	assert.Error(t, err)
	assert.Empty(t, *sent)
}

func TestSendExport_AttachesFile(t *testing.T) {
	s, sent := newTestEmailService(true)
	err := s.SendExport("a@example.com", "transactions.csv", []byte("Date,Amount\n"), ExportSummary{Username: "张三", Records: 1, Format: "csv"})
	require.NoError(t, err)
	require.Len(t, *sent, 1)

	m := (*sent)[0]
	assert.Equal(t, []string{"a@example.com"}, m.GetHeader("To"))
	// 非 ASCII 主题以 Q 编码保存
	subject := m.GetHeader("Subject")
	require.Len(t, subject, 1)
	decoded, err := new(mime.WordDecoder).DecodeHeader(subject[0])
	require.NoError(t, err)
	assert.Equal(t, "【记账本】交易记录导出", decoded)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `filename="transactions.csv"`)
}

func TestSendExport_WrapsSendError(t *testing.T) {
	s, _ := newTestEmailService(true)
	s.send = func(*gomail.Message) error { return errors.New("dial tcp: timeout") }
	err := s.SendExport("a@example.com", "t.csv", []byte("x"), ExportSummary{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "发送邮件失败")
}

func TestSendTestEmail(t *testing.T) {
	s, sent := newTestEmailService(true)
	require.NoError(t, s.SendTestEmail("a@example.com"))
	assert.Len(t, *sent, 1)

	disabled, _ := newTestEmailService(false)
	assert.ErrorIs(t, disabled.SendTestEmail("a@example.com"), ErrEmailDisabled)
}
