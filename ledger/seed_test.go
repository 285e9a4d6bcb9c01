package ledger

import (
	"context"
	"testing"

	"fintrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAndDeleteAll_RoundTrip(t *testing.T) {
	s, db := newTestStore(t, WithSeedDays(10))
	ctx := context.Background()

	res, err := s.Seed(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 16, res.Categories)
	assert.Equal(t, 4, res.Accounts)
	assert.Equal(t, 3, res.Budgets)
	assert.GreaterOrEqual(t, res.Transactions, 10)
	assert.LessOrEqual(t, res.Transactions, 30)

	accounts, err := s.ListAccounts(ctx, 1)
	require.NoError(t, err)
	for _, acc := range accounts {
		rec, err := s.ReconcileAccount(ctx, 1, acc.ID)
		require.NoError(t, err)
		assert.True(t, rec.Balanced, acc.Name)
	}

	budgets, err := s.ListBudgets(ctx, 1)
	require.NoError(t, err)
	require.Len(t, budgets, 3)
	for _, b := range budgets {
		require.Len(t, b.Categories, 1)
		assert.Equal(t, models.TypeExpense, b.Categories[0].Type)
		assert.True(t, b.StartDate.Equal(day(2024, 3, 1, 0, 0)))
		assert.True(t, b.EndDate.Equal(day(2024, 3, 31, 0, 0)))
	}

	// 收入流水只使用收入类别
	var mismatched int64
	require.NoError(t, db.Model(&models.Transaction{}).
		Joins("JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.user_id = ? AND transactions.type <> categories.type", 1).
		Count(&mismatched).Error)
	assert.Zero(t, mismatched)

	_, err = s.Seed(ctx, 1)
	assert.ErrorIs(t, err, ErrConflict)

	// 其他用户不受影响
	mustAccount(t, s, 2, "别人的账户", "10")

	deleted, err := s.DeleteAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(res.Transactions), deleted.Transactions)
	assert.Equal(t, int64(3), deleted.Budgets)
	assert.Equal(t, int64(16), deleted.Categories)
	assert.Equal(t, int64(4), deleted.Accounts)

	for _, model := range []any{&models.Transaction{}, &models.Budget{}, &models.Category{}, &models.Account{}} {
		var n int64
		require.NoError(t, db.Model(model).Where("user_id = ?", 1).Count(&n).Error)
		assert.Zero(t, n)
	}
	others, err := s.ListAccounts(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, others, 1)

	// 清空后可以重新生成
	_, err = s.Seed(ctx, 1)
	require.NoError(t, err)
}
