package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Patch is a partial update keyed by the entity's JSON field names.
// Unknown or immutable fields are rejected with ErrUnknownField so that
// shape drift in callers surfaces as an input error, not silent data loss.
type Patch map[string]any

// UnknownFieldError names the rejected patch field.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown or immutable field %q", e.Field)
}

// assign coerces an arbitrary patch value (typically decoded JSON, so
// numbers arrive as float64 and times as strings) into the target type by
// round-tripping through the JSON codec.
func assign(dst any, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func assignTime(dst *time.Time, v any) error {
	switch t := v.(type) {
	case time.Time:
		*dst = t
		return nil
	default:
		return assign(dst, v)
	}
}

// ApplyAirdropPatch applies p to a. The id and created_at fields are
// immutable; anything not named in the Airdrop model is rejected.
func ApplyAirdropPatch(a *Airdrop, p Patch) error {
	for field, v := range p {
		var err error
		switch field {
		case "title":
			err = assign(&a.Title, v)
		case "description":
			err = assign(&a.Description, v)
		case "logo":
			err = assign(&a.Logo, v)
		case "reward":
			err = assign(&a.Reward, v)
		case "total_reward":
			err = assign(&a.TotalReward, v)
		case "participants":
			err = assign(&a.Participants, v)
		case "max_participants":
			err = assign(&a.MaxParticipants, v)
		case "start_date":
			err = assignTime(&a.StartDate, v)
		case "end_date":
			err = assignTime(&a.EndDate, v)
		case "status":
			err = assign(&a.Status, v)
		case "category":
			err = assign(&a.Category, v)
		case "blockchain":
			err = assign(&a.Blockchain, v)
		case "tasks":
			err = assign(&a.Tasks, v)
		case "requirements":
			err = assign(&a.Requirements, v)
		default:
			return &UnknownFieldError{Field: field}
		}
		if err != nil {
			return fmt.Errorf("patch field %q: %w", field, err)
		}
	}
	return nil
}

// ApplyUserPatch applies p to u. The id and joined_at fields are immutable.
func ApplyUserPatch(u *User, p Patch) error {
	for field, v := range p {
		var err error
		switch field {
		case "wallet_address":
			err = assign(&u.WalletAddress, v)
		case "telegram":
			err = assign(&u.Telegram, v)
		case "twitter":
			err = assign(&u.Twitter, v)
		case "discord":
			err = assign(&u.Discord, v)
		case "completed_tasks":
			err = assign(&u.CompletedTasks, v)
		case "total_points":
			err = assign(&u.TotalPoints, v)
		case "is_connected":
			err = assign(&u.IsConnected, v)
		case "balance":
			err = assign(&u.Balance, v)
		case "last_active":
			err = assignTime(&u.LastActive, v)
		default:
			return &UnknownFieldError{Field: field}
		}
		if err != nil {
			return fmt.Errorf("patch field %q: %w", field, err)
		}
	}
	if u.TotalPoints < 0 || u.Balance < 0 {
		return ErrNegativePoints
	}
	return nil
}

// ApplyWithdrawalPatch applies p to w. Only status and tx_hash may change
// after creation; amount, user and timestamps are immutable.
func ApplyWithdrawalPatch(w *Withdrawal, p Patch) error {
	for field, v := range p {
		var err error
		switch field {
		case "status":
			err = assign(&w.Status, v)
		case "tx_hash":
			err = assign(&w.TxHash, v)
		default:
			return &UnknownFieldError{Field: field}
		}
		if err != nil {
			return fmt.Errorf("patch field %q: %w", field, err)
		}
	}
	return nil
}
