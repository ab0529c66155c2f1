package postgres

import (
	"time"
)

// User 对应 users 表，密码只存 bcrypt 哈希
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"column:username;type:varchar(64);uniqueIndex;not null" json:"username"`
	Password  string `gorm:"column:password;type:varchar(128);not null" json:"-"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string {
	return "users"
}

// Debt 对应 debts 表，一个用户可以有多条债务
type Debt struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	UserID       uint    `gorm:"column:user_id;index;not null" json:"user_id"`
	Name         string  `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Amount       float64 `gorm:"column:amount;type:decimal(15,2);not null" json:"amount"`
	InterestRate float64 `gorm:"column:interest_rate;type:decimal(6,3)" json:"interest_rate"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Debt) TableName() string {
	return "debts"
}
