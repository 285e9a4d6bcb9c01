package ledger

import (
	"context"
	"time"

	"fintrack/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type sampleCategory struct {
	name, icon, color, entryType string
}

var sampleCategories = []sampleCategory{
	{"工资", "💰", "#10B981", models.TypeIncome},
	{"兼职", "💻", "#059669", models.TypeIncome},
	{"理财收益", "📈", "#047857", models.TypeIncome},
	{"其他收入", "💵", "#065F46", models.TypeIncome},

	{"餐饮", "🍽️", "#EF4444", models.TypeExpense},
	{"交通", "🚗", "#F97316", models.TypeExpense},
	{"购物", "🛍️", "#8B5CF6", models.TypeExpense},
	{"娱乐", "🎬", "#EC4899", models.TypeExpense},
	{"水电通讯", "⚡", "#6B7280", models.TypeExpense},
	{"医疗", "🏥", "#DC2626", models.TypeExpense},
	{"教育", "📚", "#2563EB", models.TypeExpense},
	{"旅行", "✈️", "#0891B2", models.TypeExpense},
	{"住房", "🏠", "#16A34A", models.TypeExpense},
	{"个人护理", "💄", "#DB2777", models.TypeExpense},
	{"人情往来", "🎁", "#7C3AED", models.TypeExpense},
	{"其他支出", "📝", "#64748B", models.TypeExpense},
}

var sampleAccounts = []struct {
	name, accType string
	balance       int64
}{
	{"日常账户", models.AccountChecking, 2500},
	{"储蓄账户", models.AccountSavings, 15000},
	{"信用卡", models.AccountCreditCard, -850},
	{"投资账户", models.AccountInvestment, 25000},
}

var sampleBudgets = []struct {
	name     string
	amount   int64
	category string
}{
	{"每月餐饮预算", 600, "餐饮"},
	{"交通预算", 300, "交通"},
	{"娱乐预算", 200, "娱乐"},
}

var (
	sampleExpenseDescriptions = []string{
		"超市采购", "加油", "晚餐", "咖啡", "网购", "电影票", "打车",
		"电费", "宽带费", "药店", "健身卡", "停车费", "买书", "会员订阅", "汽车保养",
	}
	sampleIncomeDescriptions = []string{
		"工资到账", "兼职报酬", "基金分红", "奖金", "副业收入", "退款",
	}
)

// SeedResult 示例数据统计
type SeedResult struct {
	Categories   int `json:"categories"`
	Accounts     int `json:"accounts"`
	Budgets      int `json:"budgets"`
	Transactions int `json:"transactions"`
}

// DeleteResult 清空数据统计
type DeleteResult struct {
	Transactions int64 `json:"transactions"`
	Budgets      int64 `json:"budgets"`
	Categories   int64 `json:"categories"`
	Accounts     int64 `json:"accounts"`
	Insights     int64 `json:"insights"`
}

// Seed 为没有类别的用户生成示例数据：类别、账户、本月预算和最近若干天的随机流水
// 账户余额按生成的流水同步调整
func (s *Store) Seed(ctx context.Context, userID uint) (*SeedResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	now := s.now()
	result := &SeedResult{}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Category{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return conflict("用户已有数据，请先清空现有数据")
		}

		cats := make([]models.Category, 0, len(sampleCategories))
		for _, sc := range sampleCategories {
			cats = append(cats, models.Category{UserID: userID, Name: sc.name, Icon: sc.icon, Color: sc.color, Type: sc.entryType})
		}
		if err := tx.Create(&cats).Error; err != nil {
			return err
		}
		result.Categories = len(cats)

		accounts := make([]models.Account, 0, len(sampleAccounts))
		for _, sa := range sampleAccounts {
			bal := decimal.NewFromInt(sa.balance)
			accounts = append(accounts, models.Account{UserID: userID, Name: sa.name, Type: sa.accType, InitialBalance: bal, Balance: bal})
		}
		if err := tx.Create(&accounts).Error; err != nil {
			return err
		}
		result.Accounts = len(accounts)

		byName := map[string]uint{}
		var incomeIDs, expenseIDs []uint
		for _, c := range cats {
			byName[c.Name] = c.ID
			if c.Type == models.TypeIncome {
				incomeIDs = append(incomeIDs, c.ID)
			} else {
				expenseIDs = append(expenseIDs, c.ID)
			}
		}

		start := monthStart(now)
		end := start.AddDate(0, 1, -1)
		for _, sb := range sampleBudgets {
			budget := models.Budget{
				UserID:    userID,
				Name:      sb.name,
				Amount:    decimal.NewFromInt(sb.amount),
				Period:    models.PeriodMonthly,
				StartDate: start,
				EndDate:   end,
			}
			if err := tx.Omit("Categories").Create(&budget).Error; err != nil {
				return err
			}
			if err := linkCategories(tx, userID, budget.ID, []uint{byName[sb.category]}, now); err != nil {
				return err
			}
			result.Budgets++
		}

		txns := s.sampleTransactions(userID, now, incomeIDs, expenseIDs, accounts)
		if len(txns) > 0 {
			if err := tx.Omit("Category", "Account").CreateInBatches(&txns, 100).Error; err != nil {
				return err
			}
		}
		result.Transactions = len(txns)

		deltas := map[uint]decimal.Decimal{}
		for i := range txns {
			deltas[txns[i].AccountID] = deltas[txns[i].AccountID].Add(txns[i].BalanceDelta())
		}
		for _, acc := range accounts {
			delta, ok := deltas[acc.ID]
			if !ok || delta.IsZero() {
				continue
			}
			if err := applyBalance(tx, userID, acc.ID, delta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "生成示例数据")
	}
	s.log.Info("示例数据已生成", "user_id", userID, "transactions", result.Transactions)
	return result, nil
}

func (s *Store) sampleTransactions(userID uint, now time.Time, incomeIDs, expenseIDs []uint, accounts []models.Account) []models.Transaction {
	r := s.rand
	today := DayStart(now)
	var txns []models.Transaction
	for day := 0; day < s.seedDays; day++ {
		date := today.AddDate(0, 0, -day).Add(time.Duration(8+r.Intn(12)) * time.Hour)
		perDay := r.Intn(3) + 1
		for j := 0; j < perDay; j++ {
			when := date.Add(time.Duration(j) * time.Minute)
			if when.After(now) {
				when = now
			}
			t := models.Transaction{
				UserID:    userID,
				Date:      when,
				AccountID: accounts[r.Intn(len(accounts))].ID,
			}
			if r.Float64() < 0.2 {
				t.Type = models.TypeIncome
				t.CategoryID = incomeIDs[r.Intn(len(incomeIDs))]
				t.Amount = decimal.NewFromInt(int64(r.Intn(2000) + 500))
				t.Description = sampleIncomeDescriptions[r.Intn(len(sampleIncomeDescriptions))]
			} else {
				t.Type = models.TypeExpense
				t.CategoryID = expenseIDs[r.Intn(len(expenseIDs))]
				t.Amount = decimal.NewFromInt(int64(r.Intn(200) + 10))
				t.Description = sampleExpenseDescriptions[r.Intn(len(sampleExpenseDescriptions))]
			}
			txns = append(txns, t)
		}
	}
	return txns
}

// DeleteAll 清空用户的全部账本数据
// 顺序：流水、解除类别关联、预算、类别、账户、分析记录
func (s *Store) DeleteAll(ctx context.Context, userID uint) (*DeleteResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	result := &DeleteResult{}
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ?", userID).Delete(&models.Transaction{})
		if res.Error != nil {
			return res.Error
		}
		result.Transactions = res.RowsAffected

		if err := tx.Model(&models.Category{}).Where("user_id = ? AND budget_id IS NOT NULL", userID).
			Update("budget_id", nil).Error; err != nil {
			return err
		}

		steps := []struct {
			model any
			count *int64
		}{
			{&models.Budget{}, &result.Budgets},
			{&models.Category{}, &result.Categories},
			{&models.Account{}, &result.Accounts},
			{&models.AIInsight{}, &result.Insights},
		}
		for _, step := range steps {
			res := tx.Where("user_id = ?", userID).Delete(step.model)
			if res.Error != nil {
				return res.Error
			}
			*step.count = res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "清空数据")
	}
	s.log.Info("账本数据已清空", "user_id", userID, "transactions", result.Transactions)
	return result, nil
}
