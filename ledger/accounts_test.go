package ledger

import (
	"context"
	"testing"

	"fintrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccount(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	acc, err := s.CreateAccount(ctx, 1, AccountInput{Name: " 工资卡 ", InitialBalance: money("1200.50")})
	require.NoError(t, err)
	assert.Equal(t, "工资卡", acc.Name)
	assert.Equal(t, models.AccountChecking, acc.Type)
	assertMoney(t, "1200.50", acc.Balance)

	_, err = s.CreateAccount(ctx, 1, AccountInput{Name: ""})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.CreateAccount(ctx, 1, AccountInput{Name: "现金", Type: "CASH"})
	assert.ErrorIs(t, err, ErrValidation)

	card, err := s.CreateAccount(ctx, 1, AccountInput{Name: "信用卡", Type: "credit_card"})
	require.NoError(t, err)
	assert.Equal(t, models.AccountCreditCard, card.Type)
}

func TestUpdateAccount_BalanceNotWritable(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	acc := mustAccount(t, s, 1, "日常账户", "100")

	name, accType := "主账户", models.AccountSavings
	updated, err := s.UpdateAccount(ctx, 1, acc.ID, AccountPatch{Name: &name, Type: &accType})
	require.NoError(t, err)
	assert.Equal(t, "主账户", updated.Name)
	assert.Equal(t, models.AccountSavings, updated.Type)
	assertMoney(t, "100", updated.Balance)

	blank := " "
	_, err = s.UpdateAccount(ctx, 1, acc.ID, AccountPatch{Name: &blank})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAccounts_IsolatedPerUser(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	acc := mustAccount(t, s, 1, "日常账户", "100")

	_, err := s.GetAccount(ctx, 2, acc.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.ListAccounts(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, s.DeleteAccount(ctx, 2, acc.ID), ErrNotFound)
}

func TestDeleteAccount_RefusedWhileReferenced(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	acc := mustAccount(t, s, 1, "日常账户", "100")
	cat := mustCategory(t, s, 1, "餐饮", models.TypeExpense)
	txn := mustTransaction(t, s, 1, TransactionInput{Amount: money("20"), Type: models.TypeExpense, CategoryID: cat.ID, AccountID: acc.ID})

	err := s.DeleteAccount(ctx, 1, acc.ID)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = s.GetAccount(ctx, 1, acc.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteTransaction(ctx, 1, txn.ID))
	require.NoError(t, s.DeleteAccount(ctx, 1, acc.ID))
	_, err = s.GetAccount(ctx, 1, acc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReconcileAccount(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()
	acc := mustAccount(t, s, 1, "日常账户", "1000")
	food := mustCategory(t, s, 1, "餐饮", models.TypeExpense)
	salary := mustCategory(t, s, 1, "工资", models.TypeIncome)
	mustTransaction(t, s, 1, TransactionInput{Amount: money("250.25"), Type: models.TypeExpense, CategoryID: food.ID, AccountID: acc.ID})
	mustTransaction(t, s, 1, TransactionInput{Amount: money("3000"), Type: models.TypeIncome, CategoryID: salary.ID, AccountID: acc.ID})

	rec, err := s.ReconcileAccount(ctx, 1, acc.ID)
	require.NoError(t, err)
	assert.True(t, rec.Balanced)
	assertMoney(t, "3749.75", rec.Expected)

	// 直接篡改余额后对账失败
	require.NoError(t, db.Model(&models.Account{}).Where("id = ?", acc.ID).Update("balance", money("1")).Error)
	rec, err = s.ReconcileAccount(ctx, 1, acc.ID)
	require.NoError(t, err)
	assert.False(t, rec.Balanced)
	assertMoney(t, "1", rec.Stored)
}
