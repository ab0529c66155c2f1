package postgres

import (
	"context"

	"gorm.io/gorm"
)

// UserRepo 封装对 users 表的所有操作
type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create 创建新用户
func (r *UserRepo) Create(ctx context.Context, user *User) error {
	// WithContext 允许你在超时的时候取消数据库操作
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByUsername 登录时按用户名查哈希
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uint) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteWithDebts 删除用户时级联删掉它的所有债务，放在一个事务里
func (r *UserRepo) DeleteWithDebts(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&Debt{}).Error; err != nil {
			return err
		}
		return tx.Delete(&User{}, id).Error
	})
}

// DebtRepo 封装对 debts 表的所有操作
type DebtRepo struct {
	db *gorm.DB
}

func NewDebtRepo(db *gorm.DB) *DebtRepo {
	return &DebtRepo{db: db}
}

func (r *DebtRepo) Create(ctx context.Context, debt *Debt) error {
	return r.db.WithContext(ctx).Create(debt).Error
}

func (r *DebtRepo) GetByID(ctx context.Context, id uint) (*Debt, error) {
	var debt Debt
	err := r.db.WithContext(ctx).First(&debt, id).Error
	if err != nil {
		return nil, err
	}
	return &debt, nil
}

// ListByUser 按创建时间返回一个用户的全部债务
func (r *DebtRepo) ListByUser(ctx context.Context, userID uint) ([]Debt, error) {
	var debts []Debt
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&debts).Error
	return debts, err
}
