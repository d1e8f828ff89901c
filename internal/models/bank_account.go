package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankAccount is a simple asset account (checking, savings)
type BankAccount struct {
	ID             string          `json:"id" db:"id"`
	UserID         int             `json:"userId" db:"user_id"`
	Name           string          `json:"name" db:"name"`
	CurrentBalance decimal.Decimal `json:"currentBalance" db:"current_balance"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
}

// CreateBankAccountRequest is the payload for creating a bank account
type CreateBankAccountRequest struct {
	Name           string          `json:"name" validate:"required,min=1,max=100"`
	CurrentBalance decimal.Decimal `json:"currentBalance" validate:"required"`
}

// UpdateBankAccountRequest carries a partial update
type UpdateBankAccountRequest struct {
	Name           *string          `json:"name" validate:"omitempty,min=1,max=100"`
	CurrentBalance *decimal.Decimal `json:"currentBalance"`
}
