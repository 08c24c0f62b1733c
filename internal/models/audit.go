package models

import (
	"encoding/json"
	"time"
)

// AuditEntry is one append-only record of a mutating action. Entries are
// never updated or deleted; insertion order is the only ordering guarantee.
type AuditEntry struct {
	ID         int64           `json:"id"`
	ActorID    string          `json:"actor_id"`
	Action     string          `json:"action"`
	TargetType string          `json:"target_type"`
	TargetID   string          `json:"target_id"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Audit actions recorded by the services.
const (
	AuditActionCreate       = "CREATE"
	AuditActionUpdate       = "UPDATE"
	AuditActionDelete       = "DELETE"
	AuditActionCompleteTask = "COMPLETE_TASK"
	AuditActionWithdraw     = "WITHDRAW_POINTS"
	AuditActionUpdatePoints = "UPDATE_POINTS"
	AuditActionSetSetting   = "SET_SETTING"
	AuditActionImport       = "IMPORT_DATABASE"
)

// Audit target types.
const (
	AuditTargetAirdrop    = "airdrop"
	AuditTargetUser       = "user"
	AuditTargetTask       = "task"
	AuditTargetWithdrawal = "withdrawal"
	AuditTargetSetting    = "setting"
	AuditTargetDatabase   = "database"
)
