package services

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fintracker/backend/internal/ledger"
	"github.com/fintracker/backend/internal/models"
)

// SummaryService computes the dashboard view: totals across every asset and
// debt the user tracks, and the net-worth history built from them.
type SummaryService struct {
	db        *sql.DB
	validator *ValidationHelper
}

// Summary is the dashboard payload
type Summary struct {
	TotalCurrentBalance decimal.Decimal     `json:"totalCurrentBalance"` // owed across all cards
	TotalBalance        decimal.Decimal     `json:"totalBalance"`        // statement balances across all cards
	TotalFutureDue      decimal.Decimal     `json:"totalFutureDue"`
	TotalBankBalance    decimal.Decimal     `json:"totalBankBalance"`
	TotalDeposits       decimal.Decimal     `json:"totalDeposits"`
	TotalPortfolios     decimal.Decimal     `json:"totalPortfolios"` // latest snapshot per portfolio
	TotalAssets         decimal.Decimal     `json:"totalAssets"`
	TotalDebts          decimal.Decimal     `json:"totalDebts"`
	NetWorth            decimal.Decimal     `json:"netWorth"`
	UpcomingCards       []models.CreditCard `json:"upcomingCards"` // due within 7 days
}

// CreateNetWorthSnapshotRequest optionally overrides the snapshot date
type CreateNetWorthSnapshotRequest struct {
	SnapshotDate *time.Time `json:"snapshotDate"`
}

func NewSummaryService(db *sql.DB) *SummaryService {
	return &SummaryService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

// GetSummary returns current totals and net worth for the caller
// @Summary Get financial summary
// @Description Totals across cards, bank accounts, deposits, and portfolios, with net worth
// @Tags summary
// @Produce json
// @Success 200 {object} Summary
// @Failure 500 {object} ErrorResponse
// @Router /summary [get]
func (s *SummaryService) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	summary, err := s.buildSummary(userID, time.Now())
	if err != nil {
		log.Printf("[SUMMARY] Failed to build summary for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to build summary", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, summary)
}

// CreateNetWorthSnapshot persists the current assets/debts/net worth
// @Summary Record a net worth snapshot
// @Tags summary
// @Accept json
// @Produce json
// @Param request body CreateNetWorthSnapshotRequest false "Snapshot date override"
// @Success 201 {object} models.NetWorthSnapshot
// @Failure 500 {object} ErrorResponse
// @Router /net-worth/snapshots [post]
func (s *SummaryService) CreateNetWorthSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	snapshotDate := time.Now()
	if r.ContentLength > 0 {
		var req CreateNetWorthSnapshotRequest
		if err := DecodeJSONBody(w, r, &req); err != nil {
			SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
			return
		}
		if req.SnapshotDate != nil {
			snapshotDate = *req.SnapshotDate
		}
	}

	summary, err := s.buildSummary(userID, snapshotDate)
	if err != nil {
		log.Printf("[SUMMARY] Failed to build summary for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to record net worth", http.StatusInternalServerError, nil)
		return
	}

	snap := models.NetWorthSnapshot{
		ID:           uuid.NewString(),
		UserID:       userID,
		TotalAssets:  summary.TotalAssets,
		TotalDebts:   summary.TotalDebts,
		NetWorth:     summary.NetWorth,
		SnapshotDate: snapshotDate,
		CreatedAt:    time.Now(),
	}

	_, err = s.db.Exec(`
		INSERT INTO net_worth_snapshots (id, user_id, total_assets, total_debts, net_worth, snapshot_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		snap.ID, snap.UserID, snap.TotalAssets, snap.TotalDebts, snap.NetWorth, snap.SnapshotDate, snap.CreatedAt)
	if err != nil {
		log.Printf("[SUMMARY] Failed to store net worth snapshot for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to record net worth", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusCreated, snap)
}

// GetNetWorthHistory lists net worth snapshots, earliest first
// @Summary Get net worth history
// @Tags summary
// @Produce json
// @Success 200 {object} object{snapshots=[]models.NetWorthSnapshot,count=int}
// @Failure 500 {object} ErrorResponse
// @Router /net-worth/history [get]
func (s *SummaryService) GetNetWorthHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, total_assets, total_debts, net_worth, snapshot_date, created_at
		FROM net_worth_snapshots
		WHERE user_id = $1
		ORDER BY snapshot_date ASC`, userID)
	if err != nil {
		log.Printf("[SUMMARY] Failed to fetch net worth history for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch net worth history", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	snapshots := []models.NetWorthSnapshot{}
	for rows.Next() {
		var snap models.NetWorthSnapshot
		if err := rows.Scan(&snap.ID, &snap.UserID, &snap.TotalAssets, &snap.TotalDebts,
			&snap.NetWorth, &snap.SnapshotDate, &snap.CreatedAt); err != nil {
			SendErrorResponse(w, "Failed to fetch net worth history", http.StatusInternalServerError, nil)
			return
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		SendErrorResponse(w, "Failed to fetch net worth history", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

func (s *SummaryService) buildSummary(userID int, asOf time.Time) (*Summary, error) {
	cards, err := s.loadCards(userID)
	if err != nil {
		return nil, err
	}

	accounts, err := s.loadBankAccounts(userID)
	if err != nil {
		return nil, err
	}

	deposits, err := s.loadDeposits(userID)
	if err != nil {
		return nil, err
	}

	portfolioTotal, err := s.latestPortfolioTotal(userID)
	if err != nil {
		return nil, err
	}

	totalAssets := ledger.TotalBankBalance(accounts).Add(portfolioTotal)
	totalDebts := ledger.TotalCurrentBalance(cards)

	return &Summary{
		TotalCurrentBalance: ledger.TotalCurrentBalance(cards),
		TotalBalance:        ledger.TotalBalance(cards),
		TotalFutureDue:      ledger.TotalFutureDue(cards),
		TotalBankBalance:    ledger.TotalBankBalance(accounts),
		TotalDeposits:       ledger.TotalDeposits(deposits),
		TotalPortfolios:     portfolioTotal,
		TotalAssets:         totalAssets,
		TotalDebts:          totalDebts,
		NetWorth:            ledger.NetWorth(totalAssets, totalDebts),
		UpcomingCards:       ledger.CardsDueWithin(cards, 7, asOf),
	}, nil
}

func (s *SummaryService) loadCards(userID int) ([]models.CreditCard, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, name, current_balance, total_balance, due_date
		FROM credit_cards
		WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := []models.CreditCard{}
	for rows.Next() {
		var card models.CreditCard
		if err := rows.Scan(&card.ID, &card.UserID, &card.Name, &card.CurrentBalance,
			&card.TotalBalance, &card.DueDate); err != nil {
			return nil, err
		}
		card.FutureDue = ledger.FutureDue(card)
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func (s *SummaryService) loadBankAccounts(userID int) ([]models.BankAccount, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, name, current_balance
		FROM bank_accounts
		WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []models.BankAccount{}
	for rows.Next() {
		var account models.BankAccount
		if err := rows.Scan(&account.ID, &account.UserID, &account.Name, &account.CurrentBalance); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (s *SummaryService) loadDeposits(userID int) ([]models.Deposit, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, amount, deposit_date
		FROM deposits
		WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deposits := []models.Deposit{}
	for rows.Next() {
		var deposit models.Deposit
		if err := rows.Scan(&deposit.ID, &deposit.UserID, &deposit.Amount, &deposit.DepositDate); err != nil {
			return nil, err
		}
		deposits = append(deposits, deposit)
	}
	return deposits, rows.Err()
}

// latestPortfolioTotal sums the most recent snapshot of each portfolio
func (s *SummaryService) latestPortfolioTotal(userID int) (decimal.Decimal, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT ON (p.id) ps.balance
		FROM portfolios p
		JOIN portfolio_snapshots ps ON ps.portfolio_id = p.id
		WHERE p.user_id = $1
		ORDER BY p.id, ps.snapshot_date DESC`, userID)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var balance decimal.Decimal
		if err := rows.Scan(&balance); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(balance)
	}
	return total, rows.Err()
}
