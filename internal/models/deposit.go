package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deposit is expected or received income tied to a user
type Deposit struct {
	ID          string          `json:"id" db:"id"`
	UserID      int             `json:"userId" db:"user_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	DepositDate time.Time       `json:"depositDate" db:"deposit_date"`
	Description string          `json:"description" db:"description"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// CreateDepositRequest is the payload for recording a deposit
type CreateDepositRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	DepositDate time.Time       `json:"depositDate" validate:"required"`
	Description string          `json:"description" validate:"max=500"`
}

// UpdateDepositRequest carries a partial update
type UpdateDepositRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	DepositDate *time.Time       `json:"depositDate"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
}
