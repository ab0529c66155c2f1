package types

type AuthRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type DebtCreateRequest struct {
	UserID       uint    `json:"user_id" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Amount       float64 `json:"amount" binding:"required"`
	InterestRate float64 `json:"interest_rate"`
}
