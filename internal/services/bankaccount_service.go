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

type BankAccountService struct {
	db        *sql.DB
	validator *ValidationHelper
}

func NewBankAccountService(db *sql.DB) *BankAccountService {
	return &BankAccountService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

// ListBankAccounts returns the caller's bank accounts sorted by name
// @Summary List bank accounts
// @Tags bank-accounts
// @Produce json
// @Success 200 {object} object{bankAccounts=[]models.BankAccount,count=int}
// @Failure 500 {object} ErrorResponse
// @Router /bank-accounts [get]
func (s *BankAccountService) ListBankAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, name, current_balance, created_at, updated_at
		FROM bank_accounts
		WHERE user_id = $1
		ORDER BY name ASC`, userID)
	if err != nil {
		log.Printf("[BANK] Failed to fetch accounts for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch bank accounts", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	accounts := []models.BankAccount{}
	for rows.Next() {
		var account models.BankAccount
		if err := rows.Scan(&account.ID, &account.UserID, &account.Name, &account.CurrentBalance,
			&account.CreatedAt, &account.UpdatedAt); err != nil {
			SendErrorResponse(w, "Failed to fetch bank accounts", http.StatusInternalServerError, nil)
			return
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		SendErrorResponse(w, "Failed to fetch bank accounts", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"bankAccounts": accounts,
		"count":        len(accounts),
	})
}

// GetBankAccount returns a single bank account owned by the caller
// @Summary Get bank account by ID
// @Tags bank-accounts
// @Produce json
// @Param accountId path string true "Bank account ID"
// @Success 200 {object} models.BankAccount
// @Failure 404 {object} ErrorResponse
// @Router /bank-accounts/{accountId} [get]
func (s *BankAccountService) GetBankAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	accountID := chi.URLParam(r, "accountId")

	account, err := s.fetchAccount(accountID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Bank account not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[BANK] Failed to fetch account %s: %v", accountID, err)
			SendErrorResponse(w, "Failed to fetch bank account", http.StatusInternalServerError, nil)
		}
		return
	}

	SendJSON(w, http.StatusOK, account)
}

// CreateBankAccount creates a bank account for the caller
// @Summary Create a bank account
// @Tags bank-accounts
// @Accept json
// @Produce json
// @Param request body models.CreateBankAccountRequest true "Bank account data"
// @Success 201 {object} models.BankAccount
// @Failure 400 {object} ErrorResponse
// @Router /bank-accounts [post]
func (s *BankAccountService) CreateBankAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.CreateBankAccountRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if req.CurrentBalance.IsNegative() {
		SendErrorResponse(w, "Current balance cannot be negative", http.StatusBadRequest, nil)
		return
	}

	account := models.BankAccount{
		ID:             uuid.NewString(),
		UserID:         userID,
		Name:           req.Name,
		CurrentBalance: req.CurrentBalance,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO bank_accounts (id, user_id, name, current_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		account.ID, account.UserID, account.Name, account.CurrentBalance, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		log.Printf("[BANK] Failed to create account for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to create bank account", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusCreated, account)
}

// UpdateBankAccount applies a partial update to a bank account
// @Summary Update a bank account
// @Tags bank-accounts
// @Accept json
// @Produce json
// @Param accountId path string true "Bank account ID"
// @Param request body models.UpdateBankAccountRequest true "Fields to update"
// @Success 200 {object} models.BankAccount
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /bank-accounts/{accountId} [put]
func (s *BankAccountService) UpdateBankAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	accountID := chi.URLParam(r, "accountId")

	var req models.UpdateBankAccountRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	account, err := s.fetchAccount(accountID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Bank account not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[BANK] Failed to fetch account %s: %v", accountID, err)
			SendErrorResponse(w, "Failed to update bank account", http.StatusInternalServerError, nil)
		}
		return
	}

	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.CurrentBalance != nil {
		account.CurrentBalance = *req.CurrentBalance
	}

	if account.CurrentBalance.IsNegative() {
		SendErrorResponse(w, "Current balance cannot be negative", http.StatusBadRequest, nil)
		return
	}

	account.UpdatedAt = time.Now()
	_, err = s.db.Exec(`
		UPDATE bank_accounts
		SET name = $1, current_balance = $2, updated_at = $3
		WHERE id = $4 AND user_id = $5`,
		account.Name, account.CurrentBalance, account.UpdatedAt, account.ID, userID)
	if err != nil {
		log.Printf("[BANK] Failed to update account %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to update bank account", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, account)
}

// DeleteBankAccount removes a bank account owned by the caller
// @Summary Delete a bank account
// @Tags bank-accounts
// @Produce json
// @Param accountId path string true "Bank account ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /bank-accounts/{accountId} [delete]
func (s *BankAccountService) DeleteBankAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	accountID := chi.URLParam(r, "accountId")

	result, err := s.db.Exec(`DELETE FROM bank_accounts WHERE id = $1 AND user_id = $2`, accountID, userID)
	if err != nil {
		log.Printf("[BANK] Failed to delete account %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to delete bank account", http.StatusInternalServerError, nil)
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		SendErrorResponse(w, "Bank account not found", http.StatusNotFound, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]string{"message": "Bank account deleted successfully"})
}

func (s *BankAccountService) fetchAccount(accountID string, userID int) (*models.BankAccount, error) {
	var account models.BankAccount
	err := s.db.QueryRow(`
		SELECT id, user_id, name, current_balance, created_at, updated_at
		FROM bank_accounts
		WHERE id = $1 AND user_id = $2`, accountID, userID).
		Scan(&account.ID, &account.UserID, &account.Name, &account.CurrentBalance,
			&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &account, nil
}
