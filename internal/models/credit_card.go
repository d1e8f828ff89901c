package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditCard tracks a single card's statement for one user. CurrentBalance is
// what is still owed right now, TotalBalance is the statement balance; the
// invariant TotalBalance >= CurrentBalance is enforced on create and update.
type CreditCard struct {
	ID             string          `json:"id" db:"id"`
	UserID         int             `json:"userId" db:"user_id"`
	Name           string          `json:"name" db:"name"`
	CurrentBalance decimal.Decimal `json:"currentBalance" db:"current_balance"`
	TotalBalance   decimal.Decimal `json:"totalBalance" db:"total_balance"`
	DueDate        time.Time       `json:"dueDate" db:"due_date"`
	FutureDue      decimal.Decimal `json:"futureDue"` // derived, never persisted
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
}

// CreateCreditCardRequest is the payload for creating a card
type CreateCreditCardRequest struct {
	Name           string          `json:"name" validate:"required,min=1,max=100"`
	CurrentBalance decimal.Decimal `json:"currentBalance" validate:"required"`
	TotalBalance   decimal.Decimal `json:"totalBalance" validate:"required"`
	DueDate        time.Time       `json:"dueDate" validate:"required"`
}

// UpdateCreditCardRequest carries a partial update; only non-nil fields are
// applied to the stored card.
type UpdateCreditCardRequest struct {
	Name           *string          `json:"name" validate:"omitempty,min=1,max=100"`
	CurrentBalance *decimal.Decimal `json:"currentBalance"`
	TotalBalance   *decimal.Decimal `json:"totalBalance"`
	DueDate        *time.Time       `json:"dueDate"`
}
