package ledger

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fintracker/backend/internal/models"
)

// Service runs the balance-transfer protocol: applying a payment decrements a
// card's current and total balances by the payment amount, reversing it
// restores both exactly. Each operation is a single database transaction; the
// card row is locked before the amount check so two concurrent payments cannot
// validate against the same stale balance.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// guardOwner is the single ownership check for both entity types. Direct card
// lookups hide foreign cards as not-found; payments reached through their card
// report forbidden, since the resource itself was already located.
func guardOwner(resourceOwner, callerID int, direct bool) *Error {
	if resourceOwner == callerID {
		return nil
	}
	if direct {
		return notFound("credit card not found")
	}
	return forbidden("payment belongs to another user")
}

// ApplyPayment records a payment against a card and decrements both balances
// in one transaction. The amount is validated against the locked row, so the
// balance it is compared with is the balance that gets decremented.
func (s *Service) ApplyPayment(ctx context.Context, cardID string, callerID int, amount decimal.Decimal, paymentDate time.Time, notes string) (*models.Payment, *models.CreditCard, error) {
	if !amount.IsPositive() {
		return nil, nil, invalidAmount("payment amount must be positive")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("[LEDGER] Failed to begin transaction for card %s: %v", cardID, err)
		return nil, nil, storeUnavailable("failed to start transaction", err)
	}
	defer tx.Rollback()

	card, err := s.lockCard(ctx, tx, cardID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, notFound("credit card not found")
		}
		log.Printf("[LEDGER] Failed to lock card %s: %v", cardID, err)
		return nil, nil, storeUnavailable("failed to load credit card", err)
	}

	if gErr := guardOwner(card.UserID, callerID, true); gErr != nil {
		return nil, nil, gErr
	}

	if amount.GreaterThan(card.CurrentBalance) {
		return nil, nil, invalidAmount("payment amount cannot exceed current balance")
	}

	payment := &models.Payment{
		ID:           uuid.NewString(),
		CreditCardID: card.ID,
		Amount:       amount,
		PaymentDate:  paymentDate,
		Notes:        notes,
		CreatedAt:    time.Now(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, credit_card_id, amount, payment_date, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		payment.ID, payment.CreditCardID, payment.Amount, payment.PaymentDate, payment.Notes, payment.CreatedAt)
	if err != nil {
		log.Printf("[LEDGER] Failed to insert payment for card %s: %v", cardID, err)
		return nil, nil, storeUnavailable("failed to record payment", err)
	}

	if err := s.shiftBalances(ctx, tx, card.ID, amount.Neg()); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[LEDGER] Failed to commit payment %s for card %s: %v", payment.ID, cardID, err)
		return nil, nil, storeUnavailable("failed to commit payment", err)
	}

	card.CurrentBalance = card.CurrentBalance.Sub(amount)
	card.TotalBalance = card.TotalBalance.Sub(amount)
	card.FutureDue = FutureDue(*card)
	return payment, card, nil
}

// ReversePayment deletes a payment and restores the card's balances in one
// transaction. Both balances move back by exactly the recorded amount.
func (s *Service) ReversePayment(ctx context.Context, paymentID string, callerID int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("[LEDGER] Failed to begin transaction for payment %s: %v", paymentID, err)
		return storeUnavailable("failed to start transaction", err)
	}
	defer tx.Rollback()

	var payment models.Payment
	err = tx.QueryRowContext(ctx, `
		SELECT id, credit_card_id, amount
		FROM payments
		WHERE id = $1
		FOR UPDATE`, paymentID).Scan(&payment.ID, &payment.CreditCardID, &payment.Amount)
	if err != nil {
		if err == sql.ErrNoRows {
			return notFound("payment not found")
		}
		log.Printf("[LEDGER] Failed to lock payment %s: %v", paymentID, err)
		return storeUnavailable("failed to load payment", err)
	}

	card, err := s.lockCard(ctx, tx, payment.CreditCardID)
	if err != nil {
		if err == sql.ErrNoRows {
			// A payment without its card means a prior write was only half
			// applied. Surface it, never retry it silently.
			log.Printf("[LEDGER] Orphaned payment %s references missing card %s", paymentID, payment.CreditCardID)
			return fatal("payment references a missing credit card", err)
		}
		log.Printf("[LEDGER] Failed to lock card %s for payment %s: %v", payment.CreditCardID, paymentID, err)
		return storeUnavailable("failed to load credit card", err)
	}

	if gErr := guardOwner(card.UserID, callerID, false); gErr != nil {
		return gErr
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, paymentID)
	if err != nil {
		log.Printf("[LEDGER] Failed to delete payment %s: %v", paymentID, err)
		return storeUnavailable("failed to delete payment", err)
	}
	if n, err := result.RowsAffected(); err != nil || n == 0 {
		log.Printf("[LEDGER] Locked payment %s vanished before delete", paymentID)
		return fatal("payment disappeared mid-transaction", err)
	}

	if err := s.shiftBalances(ctx, tx, card.ID, payment.Amount); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[LEDGER] Failed to commit reversal of payment %s: %v", paymentID, err)
		return storeUnavailable("failed to commit reversal", err)
	}

	restored := card.CurrentBalance.Add(payment.Amount)
	if restored.GreaterThan(card.TotalBalance.Add(payment.Amount)) {
		// Only possible if the card was edited outside the protocol.
		log.Printf("[LEDGER] Consistency warning: card %s current balance exceeds total after reversing payment %s", card.ID, paymentID)
	}
	return nil
}

func (s *Service) lockCard(ctx context.Context, tx *sql.Tx, cardID string) (*models.CreditCard, error) {
	var card models.CreditCard
	err := tx.QueryRowContext(ctx, `
		SELECT id, user_id, name, current_balance, total_balance, due_date
		FROM credit_cards
		WHERE id = $1
		FOR UPDATE`, cardID).Scan(&card.ID, &card.UserID, &card.Name, &card.CurrentBalance, &card.TotalBalance, &card.DueDate)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// shiftBalances moves current and total balance together by delta, negative
// for apply and positive for reversal.
func (s *Service) shiftBalances(ctx context.Context, tx *sql.Tx, cardID string, delta decimal.Decimal) *Error {
	result, err := tx.ExecContext(ctx, `
		UPDATE credit_cards
		SET current_balance = current_balance + $1, total_balance = total_balance + $1, updated_at = $2
		WHERE id = $3`,
		delta, time.Now(), cardID)
	if err != nil {
		log.Printf("[LEDGER] Failed to update balances for card %s: %v", cardID, err)
		return storeUnavailable("failed to update balances", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		log.Printf("[LEDGER] Failed to read affected rows for card %s: %v", cardID, err)
		return storeUnavailable("failed to update balances", err)
	}
	if n == 0 {
		// The row is locked by this transaction, so it cannot go missing.
		log.Printf("[LEDGER] Locked card %s vanished before balance update", cardID)
		return fatal("credit card disappeared mid-transaction", nil)
	}
	return nil
}

// ListPayments returns a card's payments, newest first. The card must be
// visible to the caller.
func (s *Service) ListPayments(ctx context.Context, cardID string, callerID int) ([]models.Payment, error) {
	var owner int
	err := s.db.QueryRowContext(ctx, `SELECT user_id FROM credit_cards WHERE id = $1`, cardID).Scan(&owner)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound("credit card not found")
		}
		return nil, storeUnavailable("failed to load credit card", err)
	}
	if gErr := guardOwner(owner, callerID, true); gErr != nil {
		return nil, gErr
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, credit_card_id, amount, payment_date, notes, created_at
		FROM payments
		WHERE credit_card_id = $1
		ORDER BY payment_date DESC`, cardID)
	if err != nil {
		return nil, storeUnavailable("failed to fetch payments", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.CreditCardID, &p.Amount, &p.PaymentDate, &p.Notes, &p.CreatedAt); err != nil {
			return nil, storeUnavailable("failed to scan payment", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeUnavailable("failed to fetch payments", err)
	}
	return payments, nil
}
