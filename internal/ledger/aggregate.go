package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintracker/backend/internal/models"
)

// Pure reductions over already-loaded rows. No I/O in this file.

// FutureDue is the portion of the statement balance not yet paid
func FutureDue(card models.CreditCard) decimal.Decimal {
	return card.TotalBalance.Sub(card.CurrentBalance)
}

func TotalCurrentBalance(cards []models.CreditCard) decimal.Decimal {
	total := decimal.Zero
	for _, card := range cards {
		total = total.Add(card.CurrentBalance)
	}
	return total
}

func TotalBalance(cards []models.CreditCard) decimal.Decimal {
	total := decimal.Zero
	for _, card := range cards {
		total = total.Add(card.TotalBalance)
	}
	return total
}

func TotalFutureDue(cards []models.CreditCard) decimal.Decimal {
	total := decimal.Zero
	for _, card := range cards {
		total = total.Add(FutureDue(card))
	}
	return total
}

// CardsDueWithin returns cards whose due date falls in [asOf, asOf+days],
// bounds inclusive.
func CardsDueWithin(cards []models.CreditCard, days int, asOf time.Time) []models.CreditCard {
	cutoff := asOf.AddDate(0, 0, days)
	due := []models.CreditCard{}
	for _, card := range cards {
		if card.DueDate.Before(asOf) || card.DueDate.After(cutoff) {
			continue
		}
		due = append(due, card)
	}
	return due
}

func TotalBankBalance(accounts []models.BankAccount) decimal.Decimal {
	total := decimal.Zero
	for _, account := range accounts {
		total = total.Add(account.CurrentBalance)
	}
	return total
}

func TotalDeposits(deposits []models.Deposit) decimal.Decimal {
	total := decimal.Zero
	for _, deposit := range deposits {
		total = total.Add(deposit.Amount)
	}
	return total
}

func NetWorth(totalAssets, totalDebts decimal.Decimal) decimal.Decimal {
	return totalAssets.Sub(totalDebts)
}
