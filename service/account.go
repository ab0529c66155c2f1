package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/angelogustilo19/rag-debt-navigator/storage/postgres"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrDebtNotFound       = errors.New("debt not found")
)

// AccountService 用户和债务的增删查
type AccountService struct {
	users *postgres.UserRepo
	debts *postgres.DebtRepo
}

func NewAccountService(users *postgres.UserRepo, debts *postgres.DebtRepo) *AccountService {
	return &AccountService{users: users, debts: debts}
}

// Register 注册新用户，密码只存 bcrypt 哈希
func (s *AccountService) Register(ctx context.Context, username, password string) (*postgres.User, error) {
	// 先查重，给出友好错误；唯一索引兜底并发场景
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check username failed: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &postgres.User{Username: username, Password: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user failed: %w", err)
	}
	return user, nil
}

// Login 校验密码，成功返回用户
func (s *AccountService) Login(ctx context.Context, username, password string) (*postgres.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// CreateDebt 给用户挂一条债务
func (s *AccountService) CreateDebt(ctx context.Context, userID uint, name string, amount, interestRate float64) (*postgres.Debt, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	debt := &postgres.Debt{
		UserID:       userID,
		Name:         name,
		Amount:       amount,
		InterestRate: interestRate,
	}
	if err := s.debts.Create(ctx, debt); err != nil {
		return nil, fmt.Errorf("create debt failed: %w", err)
	}
	return debt, nil
}

func (s *AccountService) ListDebts(ctx context.Context, userID uint) ([]postgres.Debt, error) {
	return s.debts.ListByUser(ctx, userID)
}

// DeleteUser 删除用户和它的全部债务
func (s *AccountService) DeleteUser(ctx context.Context, userID uint) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return s.users.DeleteWithDebts(ctx, userID)
}
