package services

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fintracker/backend/internal/models"
)

// DepositService manages expected income records. Deposits are looked up by
// id first and report forbidden when owned by someone else, unlike cards and
// bank accounts which stay hidden.
type DepositService struct {
	db        *sql.DB
	validator *ValidationHelper
}

func NewDepositService(db *sql.DB) *DepositService {
	return &DepositService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

// ListDeposits returns the caller's deposits, earliest first
// @Summary List deposits
// @Tags deposits
// @Produce json
// @Success 200 {object} object{deposits=[]models.Deposit,count=int}
// @Failure 500 {object} ErrorResponse
// @Router /deposits [get]
func (s *DepositService) ListDeposits(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, amount, deposit_date, description, created_at, updated_at
		FROM deposits
		WHERE user_id = $1
		ORDER BY deposit_date ASC`, userID)
	if err != nil {
		log.Printf("[DEPOSITS] Failed to fetch deposits for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch deposits", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	deposits := []models.Deposit{}
	for rows.Next() {
		var deposit models.Deposit
		if err := rows.Scan(&deposit.ID, &deposit.UserID, &deposit.Amount, &deposit.DepositDate,
			&deposit.Description, &deposit.CreatedAt, &deposit.UpdatedAt); err != nil {
			SendErrorResponse(w, "Failed to fetch deposits", http.StatusInternalServerError, nil)
			return
		}
		deposits = append(deposits, deposit)
	}
	if err := rows.Err(); err != nil {
		SendErrorResponse(w, "Failed to fetch deposits", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"deposits": deposits,
		"count":    len(deposits),
	})
}

// GetDeposit returns a single deposit
// @Summary Get deposit by ID
// @Tags deposits
// @Produce json
// @Param depositId path string true "Deposit ID"
// @Success 200 {object} models.Deposit
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /deposits/{depositId} [get]
func (s *DepositService) GetDeposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	depositID := chi.URLParam(r, "depositId")

	deposit, ok := s.findOwnedDeposit(w, depositID, userID)
	if !ok {
		return
	}

	SendJSON(w, http.StatusOK, deposit)
}

// CreateDeposit records a deposit for the caller
// @Summary Create a deposit
// @Tags deposits
// @Accept json
// @Produce json
// @Param request body models.CreateDepositRequest true "Deposit data"
// @Success 201 {object} models.Deposit
// @Failure 400 {object} ErrorResponse
// @Router /deposits [post]
func (s *DepositService) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.CreateDepositRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if !req.Amount.IsPositive() {
		SendErrorResponse(w, "Amount must be a positive number", http.StatusBadRequest, nil)
		return
	}

	deposit := models.Deposit{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      req.Amount,
		DepositDate: req.DepositDate,
		Description: req.Description,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO deposits (id, user_id, amount, deposit_date, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		deposit.ID, deposit.UserID, deposit.Amount, deposit.DepositDate, deposit.Description,
		deposit.CreatedAt, deposit.UpdatedAt)
	if err != nil {
		log.Printf("[DEPOSITS] Failed to create deposit for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to create deposit", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusCreated, deposit)
}

// UpdateDeposit applies a partial update to a deposit
// @Summary Update a deposit
// @Tags deposits
// @Accept json
// @Produce json
// @Param depositId path string true "Deposit ID"
// @Param request body models.UpdateDepositRequest true "Fields to update"
// @Success 200 {object} models.Deposit
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /deposits/{depositId} [put]
func (s *DepositService) UpdateDeposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	depositID := chi.URLParam(r, "depositId")

	var req models.UpdateDepositRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	deposit, ok := s.findOwnedDeposit(w, depositID, userID)
	if !ok {
		return
	}

	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			SendErrorResponse(w, "Amount must be a positive number", http.StatusBadRequest, nil)
			return
		}
		deposit.Amount = *req.Amount
	}
	if req.DepositDate != nil {
		deposit.DepositDate = *req.DepositDate
	}
	if req.Description != nil {
		deposit.Description = *req.Description
	}

	deposit.UpdatedAt = time.Now()
	_, err := s.db.Exec(`
		UPDATE deposits
		SET amount = $1, deposit_date = $2, description = $3, updated_at = $4
		WHERE id = $5`,
		deposit.Amount, deposit.DepositDate, deposit.Description, deposit.UpdatedAt, deposit.ID)
	if err != nil {
		log.Printf("[DEPOSITS] Failed to update deposit %s: %v", depositID, err)
		SendErrorResponse(w, "Failed to update deposit", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, deposit)
}

// DeleteDeposit removes a deposit
// @Summary Delete a deposit
// @Tags deposits
// @Produce json
// @Param depositId path string true "Deposit ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /deposits/{depositId} [delete]
func (s *DepositService) DeleteDeposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	depositID := chi.URLParam(r, "depositId")

	if _, ok := s.findOwnedDeposit(w, depositID, userID); !ok {
		return
	}

	if _, err := s.db.Exec(`DELETE FROM deposits WHERE id = $1`, depositID); err != nil {
		log.Printf("[DEPOSITS] Failed to delete deposit %s: %v", depositID, err)
		SendErrorResponse(w, "Failed to delete deposit", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]string{"message": "Deposit deleted successfully"})
}

// findOwnedDeposit loads a deposit and writes the error response itself when
// the row is missing or owned by another user.
func (s *DepositService) findOwnedDeposit(w http.ResponseWriter, depositID string, userID int) (*models.Deposit, bool) {
	var deposit models.Deposit
	err := s.db.QueryRow(`
		SELECT id, user_id, amount, deposit_date, description, created_at, updated_at
		FROM deposits
		WHERE id = $1`, depositID).
		Scan(&deposit.ID, &deposit.UserID, &deposit.Amount, &deposit.DepositDate,
			&deposit.Description, &deposit.CreatedAt, &deposit.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Deposit not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[DEPOSITS] Failed to fetch deposit %s: %v", depositID, err)
			SendErrorResponse(w, "Failed to fetch deposit", http.StatusInternalServerError, nil)
		}
		return nil, false
	}

	if deposit.UserID != userID {
		SendErrorResponse(w, "Access denied", http.StatusForbidden, nil)
		return nil, false
	}
	return &deposit, true
}
