package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment records money applied toward a credit card. Payments are created and
// deleted, never edited; the card's balances move by Amount on both events.
type Payment struct {
	ID           string          `json:"id" db:"id"`
	CreditCardID string          `json:"creditCardId" db:"credit_card_id"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	PaymentDate  time.Time       `json:"paymentDate" db:"payment_date"`
	Notes        string          `json:"notes" db:"notes"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
}

// CreatePaymentRequest is the payload for applying a payment to a card
type CreatePaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	PaymentDate time.Time       `json:"paymentDate" validate:"required"`
	Notes       string          `json:"notes" validate:"max=500"`
}
