package services

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/fintracker/backend/internal/models"
)

const selectDepositQuery = "SELECT id, user_id, amount, deposit_date, description, created_at, updated_at FROM deposits"

func TestDepositService_ListDeposits(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewDepositService(db)

	t.Run("deposits listed earliest first", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(selectDepositQuery).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "deposit_date", "description", "created_at", "updated_at"}).
				AddRow("dep-1", 1, "3200.00", now, "Salary", now, now).
				AddRow("dep-2", 1, "150.00", now.AddDate(0, 0, 14), "Refund", now, now))

		r := authedRequest(httptest.NewRequest("GET", "/deposits", nil), 1)
		w := httptest.NewRecorder()

		service.ListDeposits(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response struct {
			Deposits []models.Deposit `json:"deposits"`
			Count    int              `json:"count"`
		}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, 2, response.Count)
		assert.Equal(t, "dep-1", response.Deposits[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDepositService_GetDeposit(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewDepositService(db)

	t.Run("deposit owned by caller", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(selectDepositQuery).
			WithArgs("dep-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "deposit_date", "description", "created_at", "updated_at"}).
				AddRow("dep-1", 1, "3200.00", now, "Salary", now, now))

		r := withURLParam(authedRequest(httptest.NewRequest("GET", "/deposits/dep-1", nil), 1), "depositId", "dep-1")
		w := httptest.NewRecorder()

		service.GetDeposit(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var deposit models.Deposit
		json.Unmarshal(w.Body.Bytes(), &deposit)
		assert.True(t, deposit.Amount.Equal(decimal.RequireFromString("3200.00")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign deposit is forbidden, not hidden", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(selectDepositQuery).
			WithArgs("dep-2").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "deposit_date", "description", "created_at", "updated_at"}).
				AddRow("dep-2", 99, "500.00", now, "", now, now))

		r := withURLParam(authedRequest(httptest.NewRequest("GET", "/deposits/dep-2", nil), 1), "depositId", "dep-2")
		w := httptest.NewRecorder()

		service.GetDeposit(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing deposit", func(t *testing.T) {
		mock.ExpectQuery(selectDepositQuery).
			WithArgs("dep-9").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "deposit_date", "description", "created_at", "updated_at"}))

		r := withURLParam(authedRequest(httptest.NewRequest("GET", "/deposits/dep-9", nil), 1), "depositId", "dep-9")
		w := httptest.NewRecorder()

		service.GetDeposit(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDepositService_CreateDeposit(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewDepositService(db)

	t.Run("successful creation", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO deposits").
			WithArgs(sqlmock.AnyArg(), 1, sqlmock.AnyArg(), sqlmock.AnyArg(), "Salary", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		body, _ := json.Marshal(map[string]any{
			"amount":      "3200.00",
			"depositDate": time.Now().Format(time.RFC3339),
			"description": "Salary",
		})
		r := authedRequest(httptest.NewRequest("POST", "/deposits", bytes.NewBuffer(body)), 1)
		w := httptest.NewRecorder()

		service.CreateDeposit(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{
			"amount":      "-50.00",
			"depositDate": time.Now().Format(time.RFC3339),
		})
		r := authedRequest(httptest.NewRequest("POST", "/deposits", bytes.NewBuffer(body)), 1)
		w := httptest.NewRecorder()

		service.CreateDeposit(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDepositService_UpdateDeposit(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewDepositService(db)

	t.Run("amount patch keeps the description", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(selectDepositQuery).
			WithArgs("dep-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "deposit_date", "description", "created_at", "updated_at"}).
				AddRow("dep-1", 1, "3200.00", now, "Salary", now, now))
		mock.ExpectExec("UPDATE deposits").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "Salary", sqlmock.AnyArg(), "dep-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		body := []byte(`{"amount":"3500.00"}`)
		r := withURLParam(authedRequest(httptest.NewRequest("PUT", "/deposits/dep-1", bytes.NewBuffer(body)), 1), "depositId", "dep-1")
		w := httptest.NewRecorder()

		service.UpdateDeposit(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var deposit models.Deposit
		json.Unmarshal(w.Body.Bytes(), &deposit)
		assert.True(t, deposit.Amount.Equal(decimal.RequireFromString("3500.00")))
		assert.Equal(t, "Salary", deposit.Description)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign deposit is forbidden", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(selectDepositQuery).
			WithArgs("dep-2").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "deposit_date", "description", "created_at", "updated_at"}).
				AddRow("dep-2", 99, "500.00", now, "", now, now))

		body := []byte(`{"amount":"600.00"}`)
		r := withURLParam(authedRequest(httptest.NewRequest("PUT", "/deposits/dep-2", bytes.NewBuffer(body)), 1), "depositId", "dep-2")
		w := httptest.NewRecorder()

		service.UpdateDeposit(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDepositService_DeleteDeposit(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewDepositService(db)

	t.Run("successful deletion", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(selectDepositQuery).
			WithArgs("dep-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "deposit_date", "description", "created_at", "updated_at"}).
				AddRow("dep-1", 1, "3200.00", now, "Salary", now, now))
		mock.ExpectExec("DELETE FROM deposits").
			WithArgs("dep-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		r := withURLParam(authedRequest(httptest.NewRequest("DELETE", "/deposits/dep-1", nil), 1), "depositId", "dep-1")
		w := httptest.NewRecorder()

		service.DeleteDeposit(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign deposit is forbidden", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(selectDepositQuery).
			WithArgs("dep-2").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "deposit_date", "description", "created_at", "updated_at"}).
				AddRow("dep-2", 99, "500.00", now, "", now, now))

		r := withURLParam(authedRequest(httptest.NewRequest("DELETE", "/deposits/dep-2", nil), 1), "depositId", "dep-2")
		w := httptest.NewRecorder()

		service.DeleteDeposit(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
