package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus represents the state of a payout request.
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusFailed    WithdrawalStatus = "failed"
)

func (s WithdrawalStatus) Valid() bool {
	switch s {
	case WithdrawalStatusPending, WithdrawalStatusCompleted, WithdrawalStatusFailed:
		return true
	}
	return false
}

// Withdrawal is a request to convert points to USDC. Amount is fixed at
// creation time; only status and tx hash change afterwards.
type Withdrawal struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	Amount     int              `json:"amount"`
	USDCAmount decimal.Decimal  `json:"usdc_amount"`
	Timestamp  time.Time        `json:"timestamp"`
	Status     WithdrawalStatus `json:"status"`
	TxHash     string           `json:"tx_hash,omitempty"`
}

// USDCValue converts an integer point amount to USDC at the given
// points-per-USDC rate, rounded to 2 decimal places. The stored point
// amount stays the source of truth; this is presentation only.
func USDCValue(points int, rate int64) decimal.Decimal {
	if rate <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(points)).
		Div(decimal.NewFromInt(rate)).
		Round(2)
}

// WithdrawalFilter narrows Withdrawals listings.
type WithdrawalFilter struct {
	UserID string
	Status WithdrawalStatus
	Since  time.Time
	Limit  int
	Offset int
}
