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

type PortfolioService struct {
	db        *sql.DB
	validator *ValidationHelper
}

func NewPortfolioService(db *sql.DB) *PortfolioService {
	return &PortfolioService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

// ListPortfolios returns the caller's portfolios
// @Summary List portfolios
// @Tags portfolios
// @Produce json
// @Success 200 {object} object{portfolios=[]models.Portfolio,count=int}
// @Failure 500 {object} ErrorResponse
// @Router /portfolios [get]
func (s *PortfolioService) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, name, created_at
		FROM portfolios
		WHERE user_id = $1
		ORDER BY name ASC`, userID)
	if err != nil {
		log.Printf("[PORTFOLIO] Failed to fetch portfolios for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch portfolios", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	portfolios := []models.Portfolio{}
	for rows.Next() {
		var p models.Portfolio
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt); err != nil {
			SendErrorResponse(w, "Failed to fetch portfolios", http.StatusInternalServerError, nil)
			return
		}
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		SendErrorResponse(w, "Failed to fetch portfolios", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"portfolios": portfolios,
		"count":      len(portfolios),
	})
}

// CreatePortfolio creates a portfolio for the caller
// @Summary Create a portfolio
// @Tags portfolios
// @Accept json
// @Produce json
// @Param request body models.CreatePortfolioRequest true "Portfolio data"
// @Success 201 {object} models.Portfolio
// @Failure 400 {object} ErrorResponse
// @Router /portfolios [post]
func (s *PortfolioService) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.CreatePortfolioRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	portfolio := models.Portfolio{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      req.Name,
		CreatedAt: time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO portfolios (id, user_id, name, created_at)
		VALUES ($1, $2, $3, $4)`,
		portfolio.ID, portfolio.UserID, portfolio.Name, portfolio.CreatedAt)
	if err != nil {
		log.Printf("[PORTFOLIO] Failed to create portfolio for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to create portfolio", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusCreated, portfolio)
}

// DeletePortfolio removes a portfolio and its snapshots
// @Summary Delete a portfolio
// @Tags portfolios
// @Produce json
// @Param portfolioId path string true "Portfolio ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /portfolios/{portfolioId} [delete]
func (s *PortfolioService) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	portfolioID := chi.URLParam(r, "portfolioId")

	result, err := s.db.Exec(`DELETE FROM portfolios WHERE id = $1 AND user_id = $2`, portfolioID, userID)
	if err != nil {
		log.Printf("[PORTFOLIO] Failed to delete portfolio %s: %v", portfolioID, err)
		SendErrorResponse(w, "Failed to delete portfolio", http.StatusInternalServerError, nil)
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		SendErrorResponse(w, "Portfolio not found", http.StatusNotFound, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]string{"message": "Portfolio deleted successfully"})
}

// ListSnapshots returns a portfolio's balance history, earliest first
// @Summary List portfolio snapshots
// @Tags portfolios
// @Produce json
// @Param portfolioId path string true "Portfolio ID"
// @Success 200 {object} object{snapshots=[]models.PortfolioSnapshot,count=int}
// @Failure 404 {object} ErrorResponse
// @Router /portfolios/{portfolioId}/snapshots [get]
func (s *PortfolioService) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	portfolioID := chi.URLParam(r, "portfolioId")

	if !s.ownsPortfolio(w, portfolioID, userID) {
		return
	}

	rows, err := s.db.Query(`
		SELECT id, portfolio_id, balance, snapshot_date, created_at
		FROM portfolio_snapshots
		WHERE portfolio_id = $1
		ORDER BY snapshot_date ASC`, portfolioID)
	if err != nil {
		log.Printf("[PORTFOLIO] Failed to fetch snapshots for %s: %v", portfolioID, err)
		SendErrorResponse(w, "Failed to fetch snapshots", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	snapshots := []models.PortfolioSnapshot{}
	for rows.Next() {
		var snap models.PortfolioSnapshot
		if err := rows.Scan(&snap.ID, &snap.PortfolioID, &snap.Balance, &snap.SnapshotDate, &snap.CreatedAt); err != nil {
			SendErrorResponse(w, "Failed to fetch snapshots", http.StatusInternalServerError, nil)
			return
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		SendErrorResponse(w, "Failed to fetch snapshots", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

// CreateSnapshot records a portfolio balance for a date
// @Summary Record a portfolio snapshot
// @Tags portfolios
// @Accept json
// @Produce json
// @Param portfolioId path string true "Portfolio ID"
// @Param request body models.CreateSnapshotRequest true "Snapshot data"
// @Success 201 {object} models.PortfolioSnapshot
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /portfolios/{portfolioId}/snapshots [post]
func (s *PortfolioService) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	portfolioID := chi.URLParam(r, "portfolioId")

	var req models.CreateSnapshotRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if req.Balance.IsNegative() {
		SendErrorResponse(w, "Balance cannot be negative", http.StatusBadRequest, nil)
		return
	}

	if !s.ownsPortfolio(w, portfolioID, userID) {
		return
	}

	snap := models.PortfolioSnapshot{
		ID:           uuid.NewString(),
		PortfolioID:  portfolioID,
		Balance:      req.Balance,
		SnapshotDate: req.SnapshotDate,
		CreatedAt:    time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO portfolio_snapshots (id, portfolio_id, balance, snapshot_date, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		snap.ID, snap.PortfolioID, snap.Balance, snap.SnapshotDate, snap.CreatedAt)
	if err != nil {
		log.Printf("[PORTFOLIO] Failed to create snapshot for %s: %v", portfolioID, err)
		SendErrorResponse(w, "Failed to create snapshot", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusCreated, snap)
}

func (s *PortfolioService) ownsPortfolio(w http.ResponseWriter, portfolioID string, userID int) bool {
	var owner int
	err := s.db.QueryRow(`SELECT user_id FROM portfolios WHERE id = $1`, portfolioID).Scan(&owner)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Portfolio not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[PORTFOLIO] Failed to fetch portfolio %s: %v", portfolioID, err)
			SendErrorResponse(w, "Failed to fetch portfolio", http.StatusInternalServerError, nil)
		}
		return false
	}
	if owner != userID {
		SendErrorResponse(w, "Portfolio not found", http.StatusNotFound, nil)
		return false
	}
	return true
}
