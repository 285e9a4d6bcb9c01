package ledger

import (
	"context"
	"strings"

	"fintrack/models"

	"gorm.io/gorm"
)

// CategoryInput 新建类别参数
type CategoryInput struct {
	Name  string
	Type  string
	Icon  string
	Color string
}

// CategoryPatch 修改类别参数，类型创建后不可修改
type CategoryPatch struct {
	Name  *string
	Icon  *string
	Color *string
}

// CreateCategory 新建类别，同一用户下名称重复时返回冲突
func (s *Store) CreateCategory(ctx context.Context, userID uint, in CategoryInput) (*models.Category, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	cat, err := buildCategory(userID, in)
	if err != nil {
		return nil, err
	}

	err = s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureCategoryNameFree(tx, userID, cat.Name, 0); err != nil {
			return err
		}
		return tx.Create(cat).Error
	})
	if err != nil {
		return nil, classify(err, "创建类别")
	}
	return cat, nil
}

func buildCategory(userID uint, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("类别名称不能为空")
	}
	catType := strings.ToUpper(strings.TrimSpace(in.Type))
	if catType == "" {
		catType = models.TypeExpense
	}
	if !models.ValidEntryType(catType) {
		return nil, invalid("无效的类别类型: %s", catType)
	}
	icon := strings.TrimSpace(in.Icon)
	if icon == "" {
		icon = models.DefaultCategoryIcon
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = models.DefaultCategoryColor
	}
	return &models.Category{
		UserID: userID,
		Name:   name,
		Type:   catType,
		Icon:   icon,
		Color:  color,
	}, nil
}

func ensureCategoryNameFree(tx *gorm.DB, userID uint, name string, exceptID uint) error {
	var count int64
	q := tx.Model(&models.Category{}).Where("user_id = ? AND name = ?", userID, name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return conflict("类别 %s 已存在", name)
	}
	return nil
}

// ListCategories 当前用户的全部类别，entryType 为空表示不限
func (s *Store) ListCategories(ctx context.Context, userID uint, entryType string) ([]models.Category, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	query := s.conn(ctx).Where("user_id = ?", userID)
	if t := strings.ToUpper(strings.TrimSpace(entryType)); t != "" {
		if !models.ValidEntryType(t) {
			return nil, invalid("无效的类别类型: %s", t)
		}
		query = query.Where("type = ?", t)
	}
	var cats []models.Category
	if err := query.Order("type, name").Find(&cats).Error; err != nil {
		return nil, classify(err, "查询类别")
	}
	return cats, nil
}

// GetCategory 获取单个类别
func (s *Store) GetCategory(ctx context.Context, userID, id uint) (*models.Category, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return findCategory(s.conn(ctx), userID, id)
}

func findCategory(tx *gorm.DB, userID, id uint) (*models.Category, error) {
	var cat models.Category
	if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&cat).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("类别不存在")
		}
		return nil, classify(err, "查询类别")
	}
	return &cat, nil
}

// UpdateCategory 修改类别名称、图标或颜色
func (s *Store) UpdateCategory(ctx context.Context, userID, id uint, patch CategoryPatch) (*models.Category, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		cat, err := findCategory(tx, userID, id)
		if err != nil {
			return err
		}
		updates := map[string]any{}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return invalid("类别名称不能为空")
			}
			if name != cat.Name {
				if err := ensureCategoryNameFree(tx, userID, name, id); err != nil {
					return err
				}
			}
			updates["name"] = name
		}
		if patch.Icon != nil {
			updates["icon"] = strings.TrimSpace(*patch.Icon)
		}
		if patch.Color != nil {
			updates["color"] = strings.TrimSpace(*patch.Color)
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(cat).Updates(updates).Error
	})
	if err != nil {
		return nil, classify(err, "更新类别")
	}
	return findCategory(s.conn(ctx), userID, id)
}

// DeleteCategory 删除类别；仍有流水引用时拒绝，关联的预算自动失去该类别
func (s *Store) DeleteCategory(ctx context.Context, userID, id uint) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return classify(s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		cat, err := findCategory(tx, userID, id)
		if err != nil {
			return err
		}
		var refs int64
		if err := tx.Model(&models.Transaction{}).Where("user_id = ? AND category_id = ?", userID, id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return conflict("类别 %s 下存在 %d 条交易记录，无法删除", cat.Name, refs)
		}
		return tx.Delete(cat).Error
	}), "删除类别")
}
