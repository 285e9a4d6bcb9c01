package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fintrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func sampleRows() []ImportRow {
	return []ImportRow{
		{Line: 2, Date: "2024-03-01", Description: "工资到账", Amount: "8,000.00", Type: "income", Category: "工资", Account: "工资卡"},
		{Line: 3, Date: "2024-03-02", Description: "午餐", Amount: "35.5", Type: "EXPENSE", Category: "餐饮", Account: "工资卡"},
		{Line: 4, Date: "2024/03/03", Description: "地铁", Amount: "¥4", Type: "expense", Category: "交通", Account: "信用卡"},
		{Line: 5, Date: "", Description: "缺日期", Amount: "10", Type: "EXPENSE", Category: "餐饮", Account: "工资卡"},
		{Line: 6, Date: "2024-03-04", Description: "金额错误", Amount: "abc", Type: "EXPENSE", Category: "餐饮", Account: "工资卡"},
	}
}

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord(ImportRow{Date: "2024-03-05 18:30:00", Description: " 晚餐 ", Amount: "-88.8", Type: "whatever", Category: "餐饮", Account: "现金"})
	require.NoError(t, err)
	assert.Equal(t, models.TypeExpense, rec.Type)
	assertMoney(t, "88.8", rec.Amount)
	assert.Equal(t, "晚餐", rec.Description)
	assert.Equal(t, []string{"2024-03-05", "晚餐", "88.80", "EXPENSE", "餐饮", "现金"}, rec.Fields())

	// 带偏移量的时间换算到服务器时区
	rec, err = ParseRecord(ImportRow{Date: "2024-03-31T20:00:00Z", Description: "x", Amount: "1", Type: "INCOME", Category: "c", Account: "a"})
	require.NoError(t, err)
	assert.Equal(t, time.Local, rec.Date.Location())
	assert.True(t, rec.Date.Equal(time.Date(2024, 3, 31, 20, 0, 0, 0, time.UTC)))

	_, err = ParseRecord(ImportRow{Date: "2024-03-05", Description: "x", Amount: "0", Type: "INCOME", Category: "c", Account: "a"})
	assert.Error(t, err)
	_, err = ParseRecord(ImportRow{Date: "yesterday", Description: "x", Amount: "1", Type: "INCOME", Category: "c", Account: "a"})
	assert.Error(t, err)
	_, err = ParseRecord(ImportRow{Date: "2024-03-05", Amount: "1", Type: "INCOME", Category: "c", Account: "a"})
	assert.ErrorContains(t, err, "Description")
}

func TestImport_CreatesMissingAndSkipsInvalid(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	existing := mustCategory(t, s, 1, "餐饮", models.TypeExpense)

	res, err := s.Import(ctx, 1, sampleRows())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 2, res.CreatedCategories)
	assert.Equal(t, 2, res.CreatedAccounts)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 5, res.Errors[0].Line)

	cats, err := s.ListCategories(ctx, 1, "")
	require.NoError(t, err)
	byName := map[string]models.Category{}
	for _, c := range cats {
		byName[c.Name] = c
	}
	assert.Equal(t, existing.ID, byName["餐饮"].ID)
	assert.Equal(t, models.TypeIncome, byName["工资"].Type)
	assert.Equal(t, models.TypeExpense, byName["交通"].Type)

	accounts, err := s.ListAccounts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	for _, acc := range accounts {
		assert.Equal(t, models.AccountChecking, acc.Type)
		assertMoney(t, "0", acc.InitialBalance)
		switch acc.Name {
		case "工资卡":
			assertMoney(t, "7964.5", acc.Balance)
		case "信用卡":
			assertMoney(t, "-4", acc.Balance)
		}
	}
}

func TestImport_TwiceDoublesTransactions(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Import(ctx, 1, sampleRows())
	require.NoError(t, err)
	res, err := s.Import(ctx, 1, sampleRows())
	require.NoError(t, err)
	assert.Equal(t, 0, res.CreatedCategories)
	assert.Equal(t, 0, res.CreatedAccounts)

	_, total, _, err := s.ListTransactions(ctx, 1, TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)

	accounts, err := s.ListAccounts(ctx, 1)
	require.NoError(t, err)
	for _, acc := range accounts {
		if acc.Name == "工资卡" {
			assertMoney(t, "15929", acc.Balance)
		}
		rec, err := s.ReconcileAccount(ctx, 1, acc.ID)
		require.NoError(t, err)
		assert.True(t, rec.Balanced)
	}
}

func TestImport_TimeoutRollsBackEverything(t *testing.T) {
	s, db := newTestStore(t, WithImportTimeout(80*time.Millisecond))
	ctx := context.Background()

	// 每次写入放慢 15ms，超时发生在已有若干行写入之后
	writes := 0
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:slow_create", func(*gorm.DB) {
		writes++
		time.Sleep(15 * time.Millisecond)
	}))

	rows := make([]ImportRow, 0, 20)
	for i := 0; i < 20; i++ {
		rows = append(rows, ImportRow{
			Line:        i + 2,
			Date:        "2024-03-05",
			Description: fmt.Sprintf("第 %d 笔", i+1),
			Amount:      "10",
			Type:        "EXPENSE",
			Category:    fmt.Sprintf("类别%d", i%3),
			Account:     "现金",
		})
	}

	_, err := s.Import(ctx, 1, rows)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransient)
	assert.Greater(t, writes, 1)

	require.NoError(t, db.Callback().Create().Remove("test:slow_create"))
	_, total, _, err := s.ListTransactions(ctx, 1, TransactionFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	cats, err := s.ListCategories(ctx, 1, "")
	require.NoError(t, err)
	assert.Empty(t, cats)
	accounts, err := s.ListAccounts(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestExportRecords(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_, err := s.Import(ctx, 1, sampleRows())
	require.NoError(t, err)

	all, err := s.ExportRecords(ctx, 1, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "地铁", all[0].Description)
	assert.Equal(t, "信用卡", all[0].Account)
	assert.Equal(t, "交通", all[0].Category)

	ranged, err := s.ExportRecords(ctx, 1, day(2024, 3, 2, 0, 0), day(2024, 3, 3, 0, 0))
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "午餐", ranged[0].Description)

	other, err := s.ExportRecords(ctx, 2, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, other)
}
