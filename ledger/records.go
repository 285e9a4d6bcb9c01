package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecordHeader 导入导出使用的扁平记录表头
var RecordHeader = []string{"Date", "Description", "Amount", "Type", "Category", "Account"}

// Record 导入导出的扁平记录
type Record struct {
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Account     string          `json:"account"`
}

// Fields 按表头顺序输出字段
func (r Record) Fields() []string {
	return []string{
		r.Date.Format("2006-01-02"),
		r.Description,
		r.Amount.StringFixed(2),
		r.Type,
		r.Category,
		r.Account,
	}
}

// ImportRow 文件中的一行原始数据，Line 为文件行号
type ImportRow struct {
	Line        int
	Date        string
	Description string
	Amount      string
	Type        string
	Category    string
	Account     string
}

// RowError 被跳过的行及原因
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportResult 导入结果
type ImportResult struct {
	Imported          int        `json:"imported"`
	Skipped           int        `json:"skipped"`
	CreatedCategories int        `json:"created_categories"`
	CreatedAccounts   int        `json:"created_accounts"`
	Errors            []RowError `json:"errors,omitempty"`
}

var importDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"01-02-06",
}

func parseImportDate(s string) (time.Time, error) {
	for _, layout := range importDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return localTime(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("无法识别的日期: %s", s)
}

func parseImportAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", "¥", "", "$", "", "￥", "", " ", "").Replace(s)
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("无法识别的金额: %s", s)
	}
	amount = amount.Abs().Round(2)
	if amount.IsZero() {
		return decimal.Zero, errors.New("金额不能为 0")
	}
	return amount, nil
}

// ParseRecord 校验并转换一行原始数据；六个字段缺一不可
// Type 为 INCOME（不区分大小写）时记为收入，其余一律记为支出
func ParseRecord(row ImportRow) (Record, error) {
	fields := []string{row.Date, row.Description, row.Amount, row.Type, row.Category, row.Account}
	for i, f := range fields {
		if strings.TrimSpace(f) == "" {
			return Record{}, fmt.Errorf("缺少字段 %s", RecordHeader[i])
		}
	}

	date, err := parseImportDate(strings.TrimSpace(row.Date))
	if err != nil {
		return Record{}, err
	}
	amount, err := parseImportAmount(strings.TrimSpace(row.Amount))
	if err != nil {
		return Record{}, err
	}
	entryType := models.TypeExpense
	if strings.EqualFold(strings.TrimSpace(row.Type), models.TypeIncome) {
		entryType = models.TypeIncome
	}
	return Record{
		Date:        date,
		Description: strings.TrimSpace(row.Description),
		Amount:      amount,
		Type:        entryType,
		Category:    strings.TrimSpace(row.Category),
		Account:     strings.TrimSpace(row.Account),
	}, nil
}

// Import 批量导入：无效行跳过，缺失的类别和账户按名称创建
// 整个导入在一个存储事务内完成并受 importTimeout 约束，超时则全部回滚并返回 ErrTransient
// 不做去重，重复导入同一文件会重复记账
func (s *Store) Import(ctx context.Context, userID uint, rows []ImportRow) (*ImportResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	result := &ImportResult{}
	var records []Record
	for _, row := range rows {
		rec, err := ParseRecord(row)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{Line: row.Line, Reason: err.Error()})
			continue
		}
		records = append(records, rec)
	}

	ctx, cancel := context.WithTimeout(ctx, s.importTimeout)
	defer cancel()

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		categories := map[string]*models.Category{}
		accounts := map[string]*models.Account{}

		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			cat, created, err := findOrCreateCategory(tx, userID, rec.Category, rec.Type, categories)
			if err != nil {
				return err
			}
			if created {
				result.CreatedCategories++
			}
			acc, created, err := findOrCreateAccount(tx, userID, rec.Account, accounts)
			if err != nil {
				return err
			}
			if created {
				result.CreatedAccounts++
			}

			txn := models.Transaction{
				UserID:      userID,
				Amount:      rec.Amount,
				Type:        rec.Type,
				Description: rec.Description,
				Date:        rec.Date,
				CategoryID:  cat.ID,
				AccountID:   acc.ID,
			}
			if err := tx.Omit("Category", "Account").Create(&txn).Error; err != nil {
				return err
			}
			if err := applyTransaction(tx, &txn); err != nil {
				return err
			}
			result.Imported++
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			s.log.Warn("导入超时，已回滚", "user_id", userID, "rows", len(records), "timeout", s.importTimeout)
			return nil, &Error{Kind: ErrTransient, Message: "导入超时，已全部回滚，请稍后重试", Err: err}
		}
		return nil, classify(err, "导入交易")
	}

	s.log.Info("导入完成", "user_id", userID, "imported", result.Imported, "skipped", result.Skipped)
	return result, nil
}

func findOrCreateCategory(tx *gorm.DB, userID uint, name, entryType string, cache map[string]*models.Category) (*models.Category, bool, error) {
	if c, ok := cache[name]; ok {
		return c, false, nil
	}
	var cat models.Category
	err := tx.Where("user_id = ? AND name = ?", userID, name).First(&cat).Error
	if err == nil {
		cache[name] = &cat
		return &cat, false, nil
	}
	if !isNotFound(err) {
		return nil, false, err
	}
	cat = models.Category{
		UserID: userID,
		Name:   name,
		Type:   entryType,
		Icon:   models.DefaultCategoryIcon,
		Color:  models.DefaultCategoryColor,
	}
	if err := tx.Create(&cat).Error; err != nil {
		return nil, false, err
	}
	cache[name] = &cat
	return &cat, true, nil
}

func findOrCreateAccount(tx *gorm.DB, userID uint, name string, cache map[string]*models.Account) (*models.Account, bool, error) {
	if a, ok := cache[name]; ok {
		return a, false, nil
	}
	var acc models.Account
	err := tx.Where("user_id = ? AND name = ?", userID, name).First(&acc).Error
	if err == nil {
		cache[name] = &acc
		return &acc, false, nil
	}
	if !isNotFound(err) {
		return nil, false, err
	}
	acc = models.Account{
		UserID:         userID,
		Name:           name,
		Type:           models.AccountChecking,
		InitialBalance: decimal.Zero,
		Balance:        decimal.Zero,
	}
	if err := tx.Create(&acc).Error; err != nil {
		return nil, false, err
	}
	cache[name] = &acc
	return &acc, true, nil
}

// ExportRecords 导出区间内的流水；from/to 为零值表示不限，to 不含
func (s *Store) ExportRecords(ctx context.Context, userID uint, from, to time.Time) ([]Record, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	query := s.conn(ctx).Preload("Category").Preload("Account").Where("user_id = ?", userID)
	if !from.IsZero() {
		query = query.Where("date >= ?", localTime(from))
	}
	if !to.IsZero() {
		query = query.Where("date < ?", localTime(to))
	}
	var txns []models.Transaction
	if err := query.Order("date DESC, id DESC").Find(&txns).Error; err != nil {
		return nil, classify(err, "导出交易")
	}

	records := make([]Record, 0, len(txns))
	for _, t := range txns {
		rec := Record{Date: t.Date, Description: t.Description, Amount: t.Amount, Type: t.Type}
		if t.Category != nil {
			rec.Category = t.Category.Name
		}
		if t.Account != nil {
			rec.Account = t.Account.Name
		}
		records = append(records, rec)
	}
	return records, nil
}
