package models

import (
	"errors"
	"time"
)

// GuestUserID is the id assigned to visitors without a connected wallet.
const GuestUserID = "guest"

// ErrNegativePoints rejects point or balance values below zero.
var ErrNegativePoints = errors.New("points and balance cannot be negative")

// CompletedTasks maps an airdrop id to the set of task ids the user has
// completed inside it. Stored as a JSON text column by the SQL engine.
type CompletedTasks map[string][]string

// Contains reports whether the (airdropID, taskID) pair is recorded.
func (c CompletedTasks) Contains(airdropID, taskID string) bool {
	for _, id := range c[airdropID] {
		if id == taskID {
			return true
		}
	}
	return false
}

// Add records a completed task. Returns false if it was already present.
func (c CompletedTasks) Add(airdropID, taskID string) bool {
	if c.Contains(airdropID, taskID) {
		return false
	}
	c[airdropID] = append(c[airdropID], taskID)
	return true
}

// User is a platform participant, keyed by wallet address once connected.
type User struct {
	ID             string         `json:"id"`
	WalletAddress  string         `json:"wallet_address,omitempty"`
	Telegram       string         `json:"telegram,omitempty"`
	Twitter        string         `json:"twitter,omitempty"`
	Discord        string         `json:"discord,omitempty"`
	CompletedTasks CompletedTasks `json:"completed_tasks"`
	TotalPoints    int            `json:"total_points"`
	IsConnected    bool           `json:"is_connected"`
	Balance        int            `json:"balance"`
	JoinedAt       time.Time      `json:"joined_at"`
	LastActive     time.Time      `json:"last_active"`
}

// UserFilter narrows Users listings. Connected=nil means "no filter".
type UserFilter struct {
	Connected *bool
	MinPoints int
	Limit     int
	Offset    int
}
