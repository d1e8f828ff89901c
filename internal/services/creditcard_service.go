package services

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fintracker/backend/internal/ledger"
	"github.com/fintracker/backend/internal/models"
)

type CreditCardService struct {
	db        *sql.DB
	validator *ValidationHelper
}

func NewCreditCardService(db *sql.DB) *CreditCardService {
	return &CreditCardService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

// ListCreditCards returns the caller's cards sorted by due date
// @Summary List credit cards
// @Description Get all credit cards for the authenticated user with future due amounts
// @Tags credit-cards
// @Produce json
// @Success 200 {object} object{creditCards=[]models.CreditCard,count=int}
// @Failure 500 {object} ErrorResponse
// @Router /credit-cards [get]
func (s *CreditCardService) ListCreditCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, name, current_balance, total_balance, due_date, created_at, updated_at
		FROM credit_cards
		WHERE user_id = $1
		ORDER BY due_date ASC`, userID)
	if err != nil {
		log.Printf("[CARDS] Failed to fetch cards for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch credit cards", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	cards := []models.CreditCard{}
	for rows.Next() {
		var card models.CreditCard
		if err := rows.Scan(&card.ID, &card.UserID, &card.Name, &card.CurrentBalance, &card.TotalBalance,
			&card.DueDate, &card.CreatedAt, &card.UpdatedAt); err != nil {
			log.Printf("[CARDS] Failed to scan card for user %d: %v", userID, err)
			SendErrorResponse(w, "Failed to fetch credit cards", http.StatusInternalServerError, nil)
			return
		}
		card.FutureDue = ledger.FutureDue(card)
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		SendErrorResponse(w, "Failed to fetch credit cards", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"creditCards": cards,
		"count":       len(cards),
	})
}

// GetCreditCard returns a single card owned by the caller
// @Summary Get credit card by ID
// @Description Retrieve a credit card with its future due amount
// @Tags credit-cards
// @Produce json
// @Param cardId path string true "Credit card ID"
// @Success 200 {object} models.CreditCard
// @Failure 404 {object} ErrorResponse
// @Router /credit-cards/{cardId} [get]
func (s *CreditCardService) GetCreditCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	cardID := chi.URLParam(r, "cardId")

	card, err := s.fetchCard(cardID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Credit card not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[CARDS] Failed to fetch card %s: %v", cardID, err)
			SendErrorResponse(w, "Failed to fetch credit card", http.StatusInternalServerError, nil)
		}
		return
	}

	SendJSON(w, http.StatusOK, card)
}

// CreateCreditCard creates a new card for the caller
// @Summary Create a credit card
// @Description Create a credit card; total balance must cover the current balance
// @Tags credit-cards
// @Accept json
// @Produce json
// @Param request body models.CreateCreditCardRequest true "Credit card data"
// @Success 201 {object} models.CreditCard
// @Failure 400 {object} ErrorResponse
// @Router /credit-cards [post]
func (s *CreditCardService) CreateCreditCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.CreateCreditCardRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if req.CurrentBalance.IsNegative() || req.TotalBalance.IsNegative() {
		SendErrorResponse(w, "Balances cannot be negative", http.StatusBadRequest, nil)
		return
	}
	if req.TotalBalance.LessThan(req.CurrentBalance) {
		SendErrorResponse(w, "Total balance must be greater than or equal to current balance", http.StatusBadRequest, nil)
		return
	}

	card := models.CreditCard{
		ID:             uuid.NewString(),
		UserID:         userID,
		Name:           req.Name,
		CurrentBalance: req.CurrentBalance,
		TotalBalance:   req.TotalBalance,
		DueDate:        req.DueDate,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO credit_cards (id, user_id, name, current_balance, total_balance, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		card.ID, card.UserID, card.Name, card.CurrentBalance, card.TotalBalance, card.DueDate, card.CreatedAt, card.UpdatedAt)
	if err != nil {
		log.Printf("[CARDS] Failed to create card for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to create credit card", http.StatusInternalServerError, nil)
		return
	}

	card.FutureDue = ledger.FutureDue(card)
	SendJSON(w, http.StatusCreated, card)
}

// UpdateCreditCard applies a partial update to a card
// @Summary Update a credit card
// @Description Update supplied fields of a credit card
// @Tags credit-cards
// @Accept json
// @Produce json
// @Param cardId path string true "Credit card ID"
// @Param request body models.UpdateCreditCardRequest true "Fields to update"
// @Success 200 {object} models.CreditCard
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /credit-cards/{cardId} [put]
func (s *CreditCardService) UpdateCreditCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	cardID := chi.URLParam(r, "cardId")

	var req models.UpdateCreditCardRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	card, err := s.fetchCard(cardID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Credit card not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[CARDS] Failed to fetch card %s: %v", cardID, err)
			SendErrorResponse(w, "Failed to update credit card", http.StatusInternalServerError, nil)
		}
		return
	}

	// Apply the patch field by field
	if req.Name != nil {
		card.Name = *req.Name
	}
	if req.CurrentBalance != nil {
		card.CurrentBalance = *req.CurrentBalance
	}
	if req.TotalBalance != nil {
		card.TotalBalance = *req.TotalBalance
	}
	if req.DueDate != nil {
		card.DueDate = *req.DueDate
	}

	if card.CurrentBalance.IsNegative() || card.TotalBalance.IsNegative() {
		SendErrorResponse(w, "Balances cannot be negative", http.StatusBadRequest, nil)
		return
	}
	if card.TotalBalance.LessThan(card.CurrentBalance) {
		SendErrorResponse(w, "Total balance must be greater than or equal to current balance", http.StatusBadRequest, nil)
		return
	}

	card.UpdatedAt = time.Now()
	_, err = s.db.Exec(`
		UPDATE credit_cards
		SET name = $1, current_balance = $2, total_balance = $3, due_date = $4, updated_at = $5
		WHERE id = $6 AND user_id = $7`,
		card.Name, card.CurrentBalance, card.TotalBalance, card.DueDate, card.UpdatedAt, card.ID, userID)
	if err != nil {
		log.Printf("[CARDS] Failed to update card %s: %v", cardID, err)
		SendErrorResponse(w, "Failed to update credit card", http.StatusInternalServerError, nil)
		return
	}

	card.FutureDue = ledger.FutureDue(*card)
	SendJSON(w, http.StatusOK, card)
}

// DeleteCreditCard removes a card owned by the caller
// @Summary Delete a credit card
// @Description Delete a credit card and its payments
// @Tags credit-cards
// @Produce json
// @Param cardId path string true "Credit card ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /credit-cards/{cardId} [delete]
func (s *CreditCardService) DeleteCreditCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	cardID := chi.URLParam(r, "cardId")

	result, err := s.db.Exec(`DELETE FROM credit_cards WHERE id = $1 AND user_id = $2`, cardID, userID)
	if err != nil {
		log.Printf("[CARDS] Failed to delete card %s: %v", cardID, err)
		SendErrorResponse(w, "Failed to delete credit card", http.StatusInternalServerError, nil)
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		SendErrorResponse(w, "Credit card not found", http.StatusNotFound, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]string{"message": "Credit card deleted successfully"})
}

func (s *CreditCardService) fetchCard(cardID string, userID int) (*models.CreditCard, error) {
	var card models.CreditCard
	err := s.db.QueryRow(`
		SELECT id, user_id, name, current_balance, total_balance, due_date, created_at, updated_at
		FROM credit_cards
		WHERE id = $1 AND user_id = $2`, cardID, userID).
		Scan(&card.ID, &card.UserID, &card.Name, &card.CurrentBalance, &card.TotalBalance,
			&card.DueDate, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return nil, err
	}
	card.FutureDue = ledger.FutureDue(card)
	return &card, nil
}
