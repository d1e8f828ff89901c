package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

const (
	lockCardQuery      = "SELECT id, user_id, name, current_balance, total_balance, due_date FROM credit_cards WHERE id = \\$1 FOR UPDATE"
	lockPaymentQuery   = "SELECT id, credit_card_id, amount FROM payments WHERE id = \\$1 FOR UPDATE"
	shiftBalancesQuery = "UPDATE credit_cards SET current_balance = current_balance \\+ \\$1, total_balance = total_balance \\+ \\$1, updated_at = \\$2 WHERE id = \\$3"
)

func cardRows(id string, userID int, current, total string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "name", "current_balance", "total_balance", "due_date"}).
		AddRow(id, userID, "Chase Sapphire", current, total, time.Now())
}

func TestService_ApplyPayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewService(db)
	ctx := context.Background()
	paymentDate := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)

	t.Run("successful payment updates both balances", func(t *testing.T) {
		amount := decimal.RequireFromString("500.00")

		mock.ExpectBegin()
		mock.ExpectQuery(lockCardQuery).
			WithArgs("card1").
			WillReturnRows(cardRows("card1", 1, "1200.50", "2500.00"))
		mock.ExpectExec("INSERT INTO payments").
			WithArgs(sqlmock.AnyArg(), "card1", amount, paymentDate, "Monthly payment", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(shiftBalancesQuery).
			WithArgs(amount.Neg(), sqlmock.AnyArg(), "card1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		payment, card, err := service.ApplyPayment(ctx, "card1", 1, amount, paymentDate, "Monthly payment")
		assert.NoError(t, err)
		assert.NotEmpty(t, payment.ID)
		assert.Equal(t, "card1", payment.CreditCardID)
		assert.True(t, amount.Equal(payment.Amount))
		assert.True(t, decimal.RequireFromString("700.50").Equal(card.CurrentBalance))
		assert.True(t, decimal.RequireFromString("2000.00").Equal(card.TotalBalance))
		assert.True(t, decimal.RequireFromString("1299.50").Equal(card.FutureDue))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("amount one cent over current balance is rejected", func(t *testing.T) {
		amount := decimal.RequireFromString("1200.51")

		mock.ExpectBegin()
		mock.ExpectQuery(lockCardQuery).
			WithArgs("card1").
			WillReturnRows(cardRows("card1", 1, "1200.50", "2500.00"))
		mock.ExpectRollback()

		_, _, err := service.ApplyPayment(ctx, "card1", 1, amount, paymentDate, "")
		var lErr *Error
		assert.ErrorAs(t, err, &lErr)
		assert.Equal(t, KindInvalidAmount, lErr.Kind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-positive amount is rejected before touching the store", func(t *testing.T) {
		_, _, err := service.ApplyPayment(ctx, "card1", 1, decimal.Zero, paymentDate, "")
		var lErr *Error
		assert.ErrorAs(t, err, &lErr)
		assert.Equal(t, KindInvalidAmount, lErr.Kind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing card reports not found", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(lockCardQuery).
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, _, err := service.ApplyPayment(ctx, "nope", 1, decimal.NewFromInt(10), paymentDate, "")
		var lErr *Error
		assert.ErrorAs(t, err, &lErr)
		assert.Equal(t, KindNotFound, lErr.Kind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign card reports not found, not forbidden", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(lockCardQuery).
			WithArgs("card1").
			WillReturnRows(cardRows("card1", 2, "1200.50", "2500.00"))
		mock.ExpectRollback()

		_, _, err := service.ApplyPayment(ctx, "card1", 1, decimal.NewFromInt(10), paymentDate, "")
		var lErr *Error
		assert.ErrorAs(t, err, &lErr)
		assert.Equal(t, KindNotFound, lErr.Kind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed balance update rolls back the payment row", func(t *testing.T) {
		amount := decimal.RequireFromString("500.00")

		mock.ExpectBegin()
		mock.ExpectQuery(lockCardQuery).
			WithArgs("card1").
			WillReturnRows(cardRows("card1", 1, "1200.50", "2500.00"))
		mock.ExpectExec("INSERT INTO payments").
			WithArgs(sqlmock.AnyArg(), "card1", amount, paymentDate, "", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(shiftBalancesQuery).
			WithArgs(amount.Neg(), sqlmock.AnyArg(), "card1").
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, _, err := service.ApplyPayment(ctx, "card1", 1, amount, paymentDate, "")
		var lErr *Error
		assert.ErrorAs(t, err, &lErr)
		assert.Equal(t, KindStoreUnavailable, lErr.Kind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("locked card vanishing is fatal", func(t *testing.T) {
		amount := decimal.RequireFromString("500.00")

		mock.ExpectBegin()
		mock.ExpectQuery(lockCardQuery).
			WithArgs("card1").
			WillReturnRows(cardRows("card1", 1, "1200.50", "2500.00"))
		mock.ExpectExec("INSERT INTO payments").
			WithArgs(sqlmock.AnyArg(), "card1", amount, paymentDate, "", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(shiftBalancesQuery).
			WithArgs(amount.Neg(), sqlmock.AnyArg(), "card1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, _, err := service.ApplyPayment(ctx, "card1", 1, amount, paymentDate, "")
		var lErr *Error
		assert.ErrorAs(t, err, &lErr)
		assert.Equal(t, KindFatal, lErr.Kind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestService_ReversePayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewService(db)
	ctx := context.Background()

	t.Run("reversal restores both balances by the payment amount", func(t *testing.T) {
		amount := decimal.RequireFromString("500.00")

		mock.ExpectBegin()
		mock.ExpectQuery(lockPaymentQuery).
			WithArgs("pay1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "credit_card_id", "amount"}).
				AddRow("pay1", "card1", "500.00"))
		mock.ExpectQuery(lockCardQuery).
			WithArgs("card1").
			WillReturnRows(cardRows("card1", 1, "700.50", "2000.00"))
		mock.ExpectExec("DELETE FROM payments WHERE id = \\$1").
			WithArgs("pay1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(shiftBalancesQuery).
			WithArgs(amount, sqlmock.AnyArg(), "card1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := service.ReversePayment(ctx, "pay1", 1)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing payment reports not found", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(lockPaymentQuery).
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		err := service.ReversePayment(ctx, "nope", 1)
		var lErr *Error
		assert.ErrorAs(t, err, &lErr)
		assert.Equal(t, KindNotFound, lErr.Kind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign owner is forbidden and nothing is written", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(lockPaymentQuery).
			WithArgs("pay1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "credit_card_id", "amount"}).
				AddRow("pay1", "card1", "500.00"))
		mock.ExpectQuery(lockCardQuery).
			WithArgs("card1").
			WillReturnRows(cardRows("card1", 1, "700.50", "2000.00"))
		mock.ExpectRollback()

		err := service.ReversePayment(ctx, "pay1", 2)
		var lErr *Error
		assert.ErrorAs(t, err, &lErr)
		assert.Equal(t, KindForbidden, lErr.Kind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("orphaned payment is a fatal consistency error", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(lockPaymentQuery).
			WithArgs("pay1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "credit_card_id", "amount"}).
				AddRow("pay1", "ghost", "500.00"))
		mock.ExpectQuery(lockCardQuery).
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		err := service.ReversePayment(ctx, "pay1", 1)
		var lErr *Error
		assert.ErrorAs(t, err, &lErr)
		assert.Equal(t, KindFatal, lErr.Kind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed balance restore rolls back the delete", func(t *testing.T) {
		amount := decimal.RequireFromString("500.00")

		mock.ExpectBegin()
		mock.ExpectQuery(lockPaymentQuery).
			WithArgs("pay1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "credit_card_id", "amount"}).
				AddRow("pay1", "card1", "500.00"))
		mock.ExpectQuery(lockCardQuery).
			WithArgs("card1").
			WillReturnRows(cardRows("card1", 1, "700.50", "2000.00"))
		mock.ExpectExec("DELETE FROM payments WHERE id = \\$1").
			WithArgs("pay1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(shiftBalancesQuery).
			WithArgs(amount, sqlmock.AnyArg(), "card1").
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		err := service.ReversePayment(ctx, "pay1", 1)
		var lErr *Error
		assert.ErrorAs(t, err, &lErr)
		assert.Equal(t, KindStoreUnavailable, lErr.Kind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestService_ListPayments(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewService(db)
	ctx := context.Background()

	t.Run("returns payments newest first", func(t *testing.T) {
		mock.ExpectQuery("SELECT user_id FROM credit_cards WHERE id = \\$1").
			WithArgs("card1").
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(1))
		mock.ExpectQuery("SELECT id, credit_card_id, amount, payment_date, notes, created_at FROM payments").
			WithArgs("card1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "credit_card_id", "amount", "payment_date", "notes", "created_at"}).
				AddRow("pay2", "card1", "100.00", time.Now(), "", time.Now()).
				AddRow("pay1", "card1", "500.00", time.Now().Add(-24*time.Hour), "Monthly payment", time.Now()))

		payments, err := service.ListPayments(ctx, "card1", 1)
		assert.NoError(t, err)
		assert.Len(t, payments, 2)
		assert.Equal(t, "pay2", payments[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign card is hidden", func(t *testing.T) {
		mock.ExpectQuery("SELECT user_id FROM credit_cards WHERE id = \\$1").
			WithArgs("card1").
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(2))

		_, err := service.ListPayments(ctx, "card1", 1)
		var lErr *Error
		assert.ErrorAs(t, err, &lErr)
		assert.Equal(t, KindNotFound, lErr.Kind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
