package ledger

import (
	"context"
	"testing"
	"time"

	"fintrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type budgetFixture struct {
	s       *Store
	account *models.Account
	food    *models.Category
	travel  *models.Category
	fun     *models.Category
	salary  *models.Category
}

func newBudgetFixture(t *testing.T) *budgetFixture {
	t.Helper()
	s, _ := newTestStore(t)
	return &budgetFixture{
		s:       s,
		account: mustAccount(t, s, 1, "日常账户", "5000"),
		food:    mustCategory(t, s, 1, "餐饮", models.TypeExpense),
		travel:  mustCategory(t, s, 1, "交通", models.TypeExpense),
		fun:     mustCategory(t, s, 1, "娱乐", models.TypeExpense),
		salary:  mustCategory(t, s, 1, "工资", models.TypeIncome),
	}
}

func (f *budgetFixture) spend(t *testing.T, cat *models.Category, amount string, at time.Time) *models.Transaction {
	t.Helper()
	return mustTransaction(t, f.s, 1, TransactionInput{
		Amount: money(amount), Type: models.TypeExpense, CategoryID: cat.ID, AccountID: f.account.ID, Date: at,
	})
}

func (f *budgetFixture) march(t *testing.T, name string, amount string, cats ...*models.Category) *models.Budget {
	t.Helper()
	ids := make([]uint, 0, len(cats))
	for _, c := range cats {
		ids = append(ids, c.ID)
	}
	b, err := f.s.CreateBudget(context.Background(), 1, BudgetInput{
		Name:        name,
		Amount:      money(amount),
		StartDate:   day(2024, 3, 1, 0, 0),
		EndDate:     day(2024, 3, 31, 0, 0),
		CategoryIDs: ids,
	})
	require.NoError(t, err)
	return b
}

func categoryBudget(t *testing.T, s *Store, id uint) *uint {
	t.Helper()
	cat, err := s.GetCategory(context.Background(), 1, id)
	require.NoError(t, err)
	return cat.BudgetID
}

func TestPeriodEnd(t *testing.T) {
	start := day(2024, 1, 31, 15, 0)
	assert.Equal(t, day(2024, 2, 6, 0, 0), PeriodEnd(start, models.PeriodWeekly))
	assert.Equal(t, day(2025, 1, 30, 0, 0), PeriodEnd(start, models.PeriodYearly))
	assert.Equal(t, day(2024, 3, 31, 0, 0), PeriodEnd(day(2024, 3, 1, 0, 0), models.PeriodMonthly))
}

func TestCreateBudget_Defaults(t *testing.T) {
	f := newBudgetFixture(t)

	b, err := f.s.CreateBudget(context.Background(), 1, BudgetInput{
		Name:        "餐饮预算",
		Amount:      money("600"),
		StartDate:   day(2024, 3, 1, 10, 30),
		CategoryIDs: []uint{f.food.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PeriodMonthly, b.Period)
	assert.True(t, b.StartDate.Equal(day(2024, 3, 1, 0, 0)))
	assert.True(t, b.EndDate.Equal(day(2024, 3, 31, 0, 0)))
	assertMoney(t, "0", b.Spent)
	assert.Equal(t, models.BudgetOnTrack, b.Status)
	require.Len(t, b.Categories, 1)
	assert.Equal(t, f.food.ID, b.Categories[0].ID)
	assert.Equal(t, &b.ID, categoryBudget(t, f.s, f.food.ID))
}

func TestCreateBudget_Validation(t *testing.T) {
	f := newBudgetFixture(t)
	ctx := context.Background()
	base := BudgetInput{Name: "预算", Amount: money("100"), StartDate: day(2024, 3, 1, 0, 0)}

	in := base
	_, err := f.s.CreateBudget(ctx, 1, in)
	assert.ErrorIs(t, err, ErrValidation, "empty category set")

	in = base
	in.CategoryIDs = []uint{f.salary.ID}
	_, err = f.s.CreateBudget(ctx, 1, in)
	assert.ErrorIs(t, err, ErrValidation, "income category")

	in = base
	in.CategoryIDs = []uint{f.food.ID, 999}
	_, err = f.s.CreateBudget(ctx, 1, in)
	assert.ErrorIs(t, err, ErrValidation, "unknown category")

	in = base
	in.Amount = money("0")
	in.CategoryIDs = []uint{f.food.ID}
	_, err = f.s.CreateBudget(ctx, 1, in)
	assert.ErrorIs(t, err, ErrValidation, "zero amount")

	in = base
	in.EndDate = day(2024, 2, 1, 0, 0)
	in.CategoryIDs = []uint{f.food.ID}
	_, err = f.s.CreateBudget(ctx, 1, in)
	assert.ErrorIs(t, err, ErrValidation, "end before start")

	in = base
	in.Period = "DAILY"
	in.CategoryIDs = []uint{f.food.ID}
	_, err = f.s.CreateBudget(ctx, 1, in)
	assert.ErrorIs(t, err, ErrValidation, "bad period")

	// 校验失败不应留下预算或关联
	list, err := f.s.ListBudgets(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Nil(t, categoryBudget(t, f.s, f.food.ID))
}

func TestBudgetSpent_CountsLinkedExpensesInWindow(t *testing.T) {
	f := newBudgetFixture(t)
	b := f.march(t, "生活预算", "100", f.food, f.travel)

	f.spend(t, f.food, "40", day(2024, 3, 10, 12, 0))
	f.spend(t, f.travel, "25", day(2024, 3, 31, 23, 30)) // 结束日当天计入
	f.spend(t, f.food, "100", day(2024, 4, 1, 0, 0))     // 窗口外
	f.spend(t, f.food, "7", day(2024, 2, 29, 23, 59))    // 窗口外
	f.spend(t, f.fun, "70", day(2024, 3, 12, 12, 0))     // 未关联
	mustTransaction(t, f.s, 1, TransactionInput{
		Amount: money("3000"), Type: models.TypeIncome, CategoryID: f.salary.ID, AccountID: f.account.ID, Date: day(2024, 3, 5, 9, 0),
	})

	got, err := f.s.GetBudget(context.Background(), 1, b.ID)
	require.NoError(t, err)
	assertMoney(t, "65", got.Spent)
	assertMoney(t, "35", got.Remaining)
	assert.Equal(t, 65.0, got.Progress)
	assert.Equal(t, models.BudgetOnTrack, got.Status)

	f.spend(t, f.food, "20", day(2024, 3, 11, 8, 0))
	got, err = f.s.GetBudget(context.Background(), 1, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BudgetNearLimit, got.Status)

	f.spend(t, f.travel, "50", day(2024, 3, 12, 8, 0))
	list, err := f.s.ListBudgets(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assertMoney(t, "135", list[0].Spent)
	assert.Equal(t, models.BudgetOverBudget, list[0].Status)
}

func TestCategoryBelongsToOneActiveBudget(t *testing.T) {
	f := newBudgetFixture(t)
	ctx := context.Background()
	first := f.march(t, "餐饮预算", "600", f.food)

	_, err := f.s.CreateBudget(ctx, 1, BudgetInput{
		Name: "重复预算", Amount: money("100"), StartDate: day(2024, 3, 1, 0, 0), CategoryIDs: []uint{f.food.ID, f.fun.ID},
	})
	assert.ErrorIs(t, err, ErrConflict)
	// 冲突时整个创建回滚
	assert.Nil(t, categoryBudget(t, f.s, f.fun.ID))
	assert.Equal(t, &first.ID, categoryBudget(t, f.s, f.food.ID))

	available, err := f.s.AvailableCategories(ctx, 1, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{f.travel.ID, f.fun.ID}, categoryIDs(available))

	available, err = f.s.AvailableCategories(ctx, 1, first.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{f.food.ID, f.travel.ID, f.fun.ID}, categoryIDs(available))
}

func TestExpiredBudgetReleasesCategories(t *testing.T) {
	f := newBudgetFixture(t)
	ctx := context.Background()
	old, err := f.s.CreateBudget(ctx, 1, BudgetInput{
		Name: "二月预算", Amount: money("500"), StartDate: day(2024, 2, 1, 0, 0), CategoryIDs: []uint{f.food.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, models.BudgetExpired, old.Status)

	available, err := f.s.AvailableCategories(ctx, 1, 0)
	require.NoError(t, err)
	assert.Contains(t, categoryIDs(available), f.food.ID)

	current := f.march(t, "三月预算", "600", f.food)
	assert.Equal(t, &current.ID, categoryBudget(t, f.s, f.food.ID))

	f.spend(t, f.food, "30", day(2024, 2, 10, 12, 0))
	got, err := f.s.GetBudget(ctx, 1, old.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Categories)
	assertMoney(t, "0", got.Spent)
}

func TestUpdateBudget_RelinksCategories(t *testing.T) {
	f := newBudgetFixture(t)
	ctx := context.Background()
	b := f.march(t, "生活预算", "300", f.food)
	other := f.march(t, "娱乐预算", "200", f.fun)
	f.spend(t, f.food, "40", day(2024, 3, 3, 12, 0))
	f.spend(t, f.travel, "15", day(2024, 3, 4, 12, 0))

	name, amount := "出行预算", money("150")
	updated, err := f.s.UpdateBudget(ctx, 1, b.ID, BudgetPatch{Name: &name, Amount: &amount, CategoryIDs: []uint{f.travel.ID}})
	require.NoError(t, err)
	assert.Equal(t, "出行预算", updated.Name)
	assertMoney(t, "15", updated.Spent)
	assert.Nil(t, categoryBudget(t, f.s, f.food.ID))
	assert.Equal(t, &b.ID, categoryBudget(t, f.s, f.travel.ID))

	// 关联到其他活跃预算的类别会被拒绝，原关联保持不变
	_, err = f.s.UpdateBudget(ctx, 1, b.ID, BudgetPatch{CategoryIDs: []uint{f.fun.ID}})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, &b.ID, categoryBudget(t, f.s, f.travel.ID))
	assert.Equal(t, &other.ID, categoryBudget(t, f.s, f.fun.ID))

	_, err = f.s.UpdateBudget(ctx, 1, b.ID, BudgetPatch{CategoryIDs: []uint{}})
	assert.ErrorIs(t, err, ErrValidation)

	// 不传类别时保留原关联
	period := models.PeriodWeekly
	updated, err = f.s.UpdateBudget(ctx, 1, b.ID, BudgetPatch{Period: &period})
	require.NoError(t, err)
	assert.True(t, updated.EndDate.Equal(day(2024, 3, 7, 0, 0)))
	require.Len(t, updated.Categories, 1)
	assert.Equal(t, f.travel.ID, updated.Categories[0].ID)
}

func TestDeleteBudget_UnlinksCategories(t *testing.T) {
	f := newBudgetFixture(t)
	ctx := context.Background()
	b := f.march(t, "生活预算", "300", f.food, f.travel)

	assert.ErrorIs(t, f.s.DeleteBudget(ctx, 2, b.ID), ErrNotFound)
	require.NoError(t, f.s.DeleteBudget(ctx, 1, b.ID))

	assert.Nil(t, categoryBudget(t, f.s, f.food.ID))
	assert.Nil(t, categoryBudget(t, f.s, f.travel.ID))
	_, err := f.s.GetBudget(ctx, 1, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// 类别可以加入新预算
	f.march(t, "新预算", "100", f.food)
}

func TestDeleteCategory_LeavesBudget(t *testing.T) {
	f := newBudgetFixture(t)
	ctx := context.Background()
	b := f.march(t, "生活预算", "300", f.food, f.travel)

	require.NoError(t, f.s.DeleteCategory(ctx, 1, f.travel.ID))
	got, err := f.s.GetBudget(ctx, 1, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.food.ID}, categoryIDs(got.Categories))

	f.spend(t, f.food, "10", day(2024, 3, 2, 9, 0))
	assert.ErrorIs(t, f.s.DeleteCategory(ctx, 1, f.food.ID), ErrConflict)
}

func categoryIDs(cats []models.Category) []uint {
	ids := make([]uint, 0, len(cats))
	for _, c := range cats {
		ids = append(ids, c.ID)
	}
	return ids
}

// awayZone 比服务器时区慢 8 小时的时区，同一时刻的日期与本地不同
func awayZone(at time.Time) *time.Location {
	_, offset := at.Zone()
	return time.FixedZone("away", offset-8*3600)
}

func TestBudgetSpent_DatesWithOtherOffsets(t *testing.T) {
	f := newBudgetFixture(t)
	b := f.march(t, "生活预算", "100", f.food)

	// 本地 4 月 1 日 04:00，在另一时区仍是 3 月 31 日
	outside := day(2024, 4, 1, 4, 0)
	f.spend(t, f.food, "10", outside.In(awayZone(outside)))
	// 本地 3 月 1 日 01:00，在另一时区还是 2 月 29 日
	inside := day(2024, 3, 1, 1, 0)
	f.spend(t, f.food, "7", inside.In(awayZone(inside)))

	got, err := f.s.GetBudget(context.Background(), 1, b.ID)
	require.NoError(t, err)
	assertMoney(t, "7", got.Spent)

	_, total, _, err := f.s.ListTransactions(context.Background(), 1, TransactionFilter{
		Start: day(2024, 3, 1, 0, 0),
		End:   day(2024, 4, 1, 0, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestUpdateTransaction_DateWithOtherOffset(t *testing.T) {
	f := newBudgetFixture(t)
	b := f.march(t, "生活预算", "100", f.food)
	txn := f.spend(t, f.food, "12", day(2024, 3, 10, 12, 0))

	outside := day(2024, 4, 1, 4, 0)
	moved := outside.In(awayZone(outside))
	updated, err := f.s.UpdateTransaction(context.Background(), 1, txn.ID, TransactionPatch{Date: &moved})
	require.NoError(t, err)
	assert.True(t, updated.Date.Equal(outside))

	got, err := f.s.GetBudget(context.Background(), 1, b.ID)
	require.NoError(t, err)
	assertMoney(t, "0", got.Spent)
}
