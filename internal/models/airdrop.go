package models

import (
	"errors"
	"time"
)

var (
	ErrInvalidDates      = errors.New("airdrop start date must be before end date")
	ErrInvalidStatus     = errors.New("unknown airdrop status")
	ErrInvalidTaskType   = errors.New("unknown task type")
	ErrInvalidTaskPoints = errors.New("task points must be greater than 0")
	ErrNegativeCount     = errors.New("participant count cannot be negative")
	ErrMissingTitle      = errors.New("airdrop title is required")
)

// AirdropStatus represents the lifecycle state of an airdrop campaign.
type AirdropStatus string

const (
	AirdropStatusUpcoming  AirdropStatus = "upcoming"
	AirdropStatusActive    AirdropStatus = "active"
	AirdropStatusCompleted AirdropStatus = "completed"
)

func (s AirdropStatus) Valid() bool {
	switch s {
	case AirdropStatusUpcoming, AirdropStatusActive, AirdropStatusCompleted:
		return true
	}
	return false
}

// TaskType identifies the kind of action a task asks the user to perform.
type TaskType string

const (
	TaskTypeTelegram TaskType = "telegram"
	TaskTypeTwitter  TaskType = "twitter"
	TaskTypeDiscord  TaskType = "discord"
	TaskTypeWebsite  TaskType = "website"
	TaskTypeWallet   TaskType = "wallet"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeTelegram, TaskTypeTwitter, TaskTypeDiscord, TaskTypeWebsite, TaskTypeWallet:
		return true
	}
	return false
}

// Task is a single completable action inside an airdrop, worth a fixed
// number of points. Tasks are owned by their parent airdrop and never
// shared between campaigns.
type Task struct {
	ID          string   `json:"id"`
	Type        TaskType `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url,omitempty"`
	Points      int      `json:"points"`
	Required    bool     `json:"required"`
}

func (t *Task) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidTaskType
	}
	if t.Points <= 0 {
		return ErrInvalidTaskPoints
	}
	return nil
}

// Airdrop represents a reward campaign.
type Airdrop struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Logo            string        `json:"logo"`
	Reward          string        `json:"reward"`
	TotalReward     string        `json:"total_reward"`
	Participants    int           `json:"participants"`
	MaxParticipants int           `json:"max_participants"`
	StartDate       time.Time     `json:"start_date"`
	EndDate         time.Time     `json:"end_date"`
	Status          AirdropStatus `json:"status"`
	Category        string        `json:"category"`
	Blockchain      string        `json:"blockchain"`
	Tasks           []Task        `json:"tasks"`
	Requirements    []string      `json:"requirements"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (a *Airdrop) Validate() error {
	if a.Title == "" {
		return ErrMissingTitle
	}
	if !a.Status.Valid() {
		return ErrInvalidStatus
	}
	if !a.StartDate.Before(a.EndDate) {
		return ErrInvalidDates
	}
	if a.Participants < 0 {
		return ErrNegativeCount
	}
	for i := range a.Tasks {
		if err := a.Tasks[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Task returns the task with the given id, or nil.
func (a *Airdrop) Task(taskID string) *Task {
	for i := range a.Tasks {
		if a.Tasks[i].ID == taskID {
			return &a.Tasks[i]
		}
	}
	return nil
}

// AirdropFilter narrows Airdrops listings. Zero values mean "no filter".
type AirdropFilter struct {
	Status     AirdropStatus
	Category   string
	Blockchain string
	Limit      int
	Offset     int
}
