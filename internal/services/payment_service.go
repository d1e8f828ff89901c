package services

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fintracker/backend/internal/ledger"
	"github.com/fintracker/backend/internal/models"
)

// PaymentService is the HTTP surface over the ledger protocol. All balance
// rules live in the ledger package; this layer decodes, validates shape, and
// maps ledger error kinds to statuses.
type PaymentService struct {
	ledger    *ledger.Service
	validator *ValidationHelper
}

func NewPaymentService(ledgerService *ledger.Service) *PaymentService {
	return &PaymentService{
		ledger:    ledgerService,
		validator: NewValidationHelper(),
	}
}

// ListPayments returns a card's payments, newest first
// @Summary List payments for a credit card
// @Description Get all payments recorded against a credit card
// @Tags payments
// @Produce json
// @Param cardId path string true "Credit card ID"
// @Success 200 {object} object{payments=[]models.Payment,count=int}
// @Failure 404 {object} ErrorResponse
// @Router /credit-cards/{cardId}/payments [get]
func (s *PaymentService) ListPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	cardID := chi.URLParam(r, "cardId")

	payments, err := s.ledger.ListPayments(r.Context(), cardID, userID)
	if err != nil {
		s.sendLedgerError(w, err)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"payments": payments,
		"count":    len(payments),
	})
}

// CreatePayment applies a payment to a card
// @Summary Apply a payment
// @Description Record a payment and decrement the card's balances atomically
// @Tags payments
// @Accept json
// @Produce json
// @Param cardId path string true "Credit card ID"
// @Param request body models.CreatePaymentRequest true "Payment data"
// @Success 201 {object} object{payment=models.Payment,creditCard=models.CreditCard}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /credit-cards/{cardId}/payments [post]
func (s *PaymentService) CreatePayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	cardID := chi.URLParam(r, "cardId")

	var req models.CreatePaymentRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	payment, card, err := s.ledger.ApplyPayment(r.Context(), cardID, userID, req.Amount, req.PaymentDate, req.Notes)
	if err != nil {
		s.sendLedgerError(w, err)
		return
	}

	SendJSON(w, http.StatusCreated, map[string]any{
		"payment":    payment,
		"creditCard": card,
	})
}

// DeletePayment reverses a payment
// @Summary Reverse a payment
// @Description Delete a payment and restore the card's balances atomically
// @Tags payments
// @Produce json
// @Param paymentId path string true "Payment ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /payments/{paymentId} [delete]
func (s *PaymentService) DeletePayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	paymentID := chi.URLParam(r, "paymentId")

	if err := s.ledger.ReversePayment(r.Context(), paymentID, userID); err != nil {
		s.sendLedgerError(w, err)
		return
	}

	SendJSON(w, http.StatusOK, map[string]string{"message": "Payment deleted successfully"})
}

func (s *PaymentService) sendLedgerError(w http.ResponseWriter, err error) {
	var lErr *ledger.Error
	if errors.As(err, &lErr) {
		SendErrorResponse(w, lErr.Message, lErr.HTTPStatus(), nil)
		return
	}
	log.Printf("[PAYMENTS] Unexpected error: %v", err)
	SendErrorResponse(w, "Failed to process payment", http.StatusInternalServerError, nil)
}
