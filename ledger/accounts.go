package ledger

import (
	"context"
	"strings"

	"fintrack/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountInput 新建账户参数
type AccountInput struct {
	Name           string
	Type           string
	InitialBalance decimal.Decimal
}

// AccountPatch 修改账户参数，nil 表示不修改；余额不可直接修改
type AccountPatch struct {
	Name *string
	Type *string
}

// Reconciliation 账户对账结果
type Reconciliation struct {
	AccountID uint            `json:"account_id"`
	Stored    decimal.Decimal `json:"stored"`
	Expected  decimal.Decimal `json:"expected"`
	Balanced  bool            `json:"balanced"`
}

func normalizeAccountType(t string) (string, error) {
	t = strings.ToUpper(strings.TrimSpace(t))
	if t == "" {
		return models.AccountChecking, nil
	}
	if !models.ValidAccountType(t) {
		return "", invalid("无效的账户类型: %s", t)
	}
	return t, nil
}

// CreateAccount 新建账户，余额等于初始余额
func (s *Store) CreateAccount(ctx context.Context, userID uint, in AccountInput) (*models.Account, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("账户名称不能为空")
	}
	accType, err := normalizeAccountType(in.Type)
	if err != nil {
		return nil, err
	}

	account := models.Account{
		UserID:         userID,
		Name:           name,
		Type:           accType,
		InitialBalance: in.InitialBalance,
		Balance:        in.InitialBalance,
	}
	if err := s.conn(ctx).Create(&account).Error; err != nil {
		return nil, classify(err, "创建账户")
	}
	return &account, nil
}

// ListAccounts 当前用户的全部账户
func (s *Store) ListAccounts(ctx context.Context, userID uint) ([]models.Account, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	var accounts []models.Account
	if err := s.conn(ctx).Where("user_id = ?", userID).Order("id").Find(&accounts).Error; err != nil {
		return nil, classify(err, "查询账户")
	}
	return accounts, nil
}

// GetAccount 获取单个账户
func (s *Store) GetAccount(ctx context.Context, userID, id uint) (*models.Account, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return findAccount(s.conn(ctx), userID, id)
}

func findAccount(tx *gorm.DB, userID, id uint) (*models.Account, error) {
	var account models.Account
	if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&account).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("账户不存在")
		}
		return nil, classify(err, "查询账户")
	}
	return &account, nil
}

// UpdateAccount 修改账户名称或类型
func (s *Store) UpdateAccount(ctx context.Context, userID, id uint, patch AccountPatch) (*models.Account, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	account, err := findAccount(s.conn(ctx), userID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, invalid("账户名称不能为空")
		}
		updates["name"] = name
	}
	if patch.Type != nil {
		accType, err := normalizeAccountType(*patch.Type)
		if err != nil {
			return nil, err
		}
		updates["type"] = accType
	}
	if len(updates) == 0 {
		return account, nil
	}

	if err := s.conn(ctx).Model(account).Updates(updates).Error; err != nil {
		return nil, classify(err, "更新账户")
	}
	return findAccount(s.conn(ctx), userID, id)
}

// DeleteAccount 删除账户，存在流水引用时拒绝
func (s *Store) DeleteAccount(ctx context.Context, userID, id uint) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return classify(s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := findAccount(tx, userID, id)
		if err != nil {
			return err
		}
		var refs int64
		if err := tx.Model(&models.Transaction{}).Where("user_id = ? AND account_id = ?", userID, id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return conflict("账户 %s 下存在 %d 条交易记录，无法删除", account.Name, refs)
		}
		return tx.Delete(account).Error
	}), "删除账户")
}

// ReconcileAccount 按流水重新计算余额并与存储值比较
func (s *Store) ReconcileAccount(ctx context.Context, userID, id uint) (*Reconciliation, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	db := s.conn(ctx)
	account, err := findAccount(db, userID, id)
	if err != nil {
		return nil, err
	}

	var income, expense decimal.Decimal
	sum := func(entryType string, dest *decimal.Decimal) error {
		return db.Model(&models.Transaction{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("user_id = ? AND account_id = ? AND type = ?", userID, id, entryType).
			Row().Scan(dest)
	}
	if err := sum(models.TypeIncome, &income); err != nil {
		return nil, classify(err, "对账")
	}
	if err := sum(models.TypeExpense, &expense); err != nil {
		return nil, classify(err, "对账")
	}

	expected := account.InitialBalance.Add(income).Sub(expense).Round(2)
	stored := account.Balance.Round(2)
	return &Reconciliation{
		AccountID: id,
		Stored:    stored,
		Expected:  expected,
		Balanced:  stored.Equal(expected),
	}, nil
}
