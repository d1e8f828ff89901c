package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio is an investment account tracked by periodic balance snapshots
type Portfolio struct {
	ID        string    `json:"id" db:"id"`
	UserID    int       `json:"userId" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// PortfolioSnapshot is the portfolio's balance on a given date
type PortfolioSnapshot struct {
	ID           string          `json:"id" db:"id"`
	PortfolioID  string          `json:"portfolioId" db:"portfolio_id"`
	Balance      decimal.Decimal `json:"balance" db:"balance"`
	SnapshotDate time.Time       `json:"snapshotDate" db:"snapshot_date"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
}

// NetWorthSnapshot is a point-in-time record of assets minus debts
type NetWorthSnapshot struct {
	ID           string          `json:"id" db:"id"`
	UserID       int             `json:"userId" db:"user_id"`
	TotalAssets  decimal.Decimal `json:"totalAssets" db:"total_assets"`
	TotalDebts   decimal.Decimal `json:"totalDebts" db:"total_debts"`
	NetWorth     decimal.Decimal `json:"netWorth" db:"net_worth"`
	SnapshotDate time.Time       `json:"snapshotDate" db:"snapshot_date"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
}

// CreatePortfolioRequest is the payload for creating a portfolio
type CreatePortfolioRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// CreateSnapshotRequest records a portfolio balance on a date
type CreateSnapshotRequest struct {
	Balance      decimal.Decimal `json:"balance" validate:"required"`
	SnapshotDate time.Time       `json:"snapshotDate" validate:"required"`
}
