package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "airdrophub-backend/internal/common/errors"
	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/storage"
)

// SQLImporter is implemented by engines that can replay an exported dump.
type SQLImporter interface {
	ImportSQL(ctx context.Context, dump string) error
}

// ExportService renders the whole database as SQL text. The output is
// deterministic for a given dataset: tables come in a fixed order and rows
// are sorted by primary key, so two exports of the same state are
// byte-identical and diffable.
type ExportService interface {
	ExportSQL(ctx context.Context) (string, error)
	ImportSQL(ctx context.Context, dump string) error
}

type exportService struct {
	store storage.Store
	audit AuditService
}

func NewExportService(store storage.Store, audit AuditService) ExportService {
	return &exportService{store: store, audit: audit}
}

func (s *exportService) ExportSQL(ctx context.Context) (string, error) {
	airdrops, err := s.store.Airdrops(ctx, models.AirdropFilter{})
	if err != nil {
		return "", mapStorageError("export", err)
	}
	users, err := s.store.Users(ctx, models.UserFilter{})
	if err != nil {
		return "", mapStorageError("export", err)
	}
	withdrawals, err := s.store.Withdrawals(ctx, models.WithdrawalFilter{})
	if err != nil {
		return "", mapStorageError("export", err)
	}
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return "", mapStorageError("export", err)
	}

	sort.Slice(airdrops, func(i, j int) bool { return airdrops[i].ID < airdrops[j].ID })
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	sort.Slice(withdrawals, func(i, j int) bool { return withdrawals[i].ID < withdrawals[j].ID })

	var b strings.Builder
	b.WriteString("-- AirdropHub Database Export\n\n")
	b.WriteString("DELETE FROM withdrawals;\n")
	b.WriteString("DELETE FROM users;\n")
	b.WriteString("DELETE FROM airdrops;\n")

	if len(airdrops) > 0 {
		b.WriteString("\n-- Insert airdrops\n")
		for _, a := range airdrops {
			tasks, err := jsonText(a.Tasks)
			if err != nil {
				return "", apperrors.NewStorageError("export", err)
			}
			requirements, err := jsonText(a.Requirements)
			if err != nil {
				return "", apperrors.NewStorageError("export", err)
			}
			fmt.Fprintf(&b, "INSERT INTO airdrops (id, title, description, logo, reward, totalReward, participants, maxParticipants, startDate, endDate, status, category, blockchain, tasks, requirements, created_at, updated_at) VALUES (%s, %s, %s, %s, %s, %s, %d, %d, %s, %s, %s, %s, %s, %s, %s, %s, %s);\n",
				quote(a.ID), quote(a.Title), quote(a.Description), quote(a.Logo),
				quote(a.Reward), quote(a.TotalReward), a.Participants, a.MaxParticipants,
				quoteTime(a.StartDate), quoteTime(a.EndDate), quote(string(a.Status)),
				quote(a.Category), quote(a.Blockchain), quote(tasks), quote(requirements),
				quoteTime(a.CreatedAt), quoteTime(a.UpdatedAt))
		}
	}

	if len(users) > 0 {
		b.WriteString("\n-- Insert users\n")
		for _, u := range users {
			completed, err := jsonText(u.CompletedTasks)
			if err != nil {
				return "", apperrors.NewStorageError("export", err)
			}
			fmt.Fprintf(&b, "INSERT INTO users (id, walletAddress, telegram, twitter, discord, completedTasks, totalPoints, isConnected, balance, joinedAt, lastActive) VALUES (%s, %s, %s, %s, %s, %s, %d, %d, %d, %s, %s);\n",
				quote(u.ID), quote(u.WalletAddress), quote(u.Telegram), quote(u.Twitter),
				quote(u.Discord), quote(completed), u.TotalPoints, boolLiteral(u.IsConnected),
				u.Balance, quoteTime(u.JoinedAt), quoteTime(u.LastActive))
		}
	}

	if len(withdrawals) > 0 {
		b.WriteString("\n-- Insert withdrawals\n")
		for _, w := range withdrawals {
			fmt.Fprintf(&b, "INSERT INTO withdrawals (id, userId, amount, usdcAmount, timestamp, status, txHash) VALUES (%s, %s, %d, %s, %s, %s, %s);\n",
				quote(w.ID), quote(w.UserID), w.Amount, quote(w.USDCAmount.String()),
				quoteTime(w.Timestamp), quote(string(w.Status)), quote(w.TxHash))
		}
	}

	if len(settings) > 0 {
		b.WriteString("\n-- Insert settings\n")
		for _, st := range settings {
			fmt.Fprintf(&b, "INSERT INTO settings (setting_key, setting_value) VALUES (%s, %s) ON CONFLICT(setting_key) DO UPDATE SET setting_value = excluded.setting_value;\n",
				quote(st.Key), quote(st.Value))
		}
	}

	return b.String(), nil
}

func (s *exportService) ImportSQL(ctx context.Context, dump string) error {
	importer, ok := s.store.(SQLImporter)
	if !ok {
		return apperrors.New(apperrors.ErrCodeBadRequest, "Engine does not support SQL import")
	}
	if err := importer.ImportSQL(ctx, dump); err != nil {
		return mapStorageError("import", err)
	}
	s.audit.Record(ctx, models.GuestUserID, models.AuditActionImport, models.AuditTargetDatabase,
		"import", map[string]any{"bytes": len(dump)})
	return nil
}

// quote renders a single-quoted SQL literal, doubling embedded quotes.
func quote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func quoteTime(t time.Time) string {
	return quote(t.UTC().Format(time.RFC3339Nano))
}

func boolLiteral(v bool) int {
	if v {
		return 1
	}
	return 0
}

func jsonText(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
