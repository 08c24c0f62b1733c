package models

import "github.com/shopspring/decimal"

// Analytics is a derived snapshot of the current data set. It is computed
// on demand and never cached across mutations.
type Analytics struct {
	TotalAirdrops              int             `json:"total_airdrops"`
	ActiveAirdrops             int             `json:"active_airdrops"`
	TotalUsers                 int             `json:"total_users"`
	ConnectedUsers             int             `json:"connected_users"`
	TotalPoints                int             `json:"total_points"`
	TotalWithdrawals           int             `json:"total_withdrawals"`
	PendingWithdrawals         int             `json:"pending_withdrawals"`
	TotalRewardsDistributedUSD decimal.Decimal `json:"total_rewards_distributed_usd"`
}

// LeaderboardEntry is one row of the points leaderboard.
type LeaderboardEntry struct {
	Rank              int    `json:"rank"`
	UserID            string `json:"user_id"`
	WalletAddress     string `json:"wallet_address"`
	TotalPoints       int    `json:"total_points"`
	CompletedAirdrops int    `json:"completed_airdrops"`
}
