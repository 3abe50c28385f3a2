package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"chatbot-backend/internal/database"
	"chatbot-backend/internal/model"
)

const (
	DefaultReportDays = 30
	MaxReportDays     = 365
)

// Delta is an increment applied to analytics counters.
type Delta struct {
	Conversations int64
	Messages      int64
	UniqueUsers   int64
}

// Turn describes one committed chat turn.
type Turn struct {
	BotID string
	// NewConversation is true when the turn created the conversation row.
	NewConversation bool
	At              time.Time
}

type Totals struct {
	Conversations int64
	Messages      int64
	UniqueUsers   int64
}

type Report struct {
	BotID  string
	From   string
	To     string
	Days   []model.DailyAnalyticsItem
	Totals Totals
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func New(db *database.Database) *Service {
	return &Service{
		repo: NewDynamoRepository(db),
		now:  time.Now,
	}
}

func NewWithRepository(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo: repo,
		now:  now,
	}
}

// RecordTurn bumps the daily row and the bot totals for one turn. Both writes
// are attempted even when the first one fails.
func (s *Service) RecordTurn(ctx context.Context, turn Turn) error {
	if strings.TrimSpace(turn.BotID) == "" {
		return errors.New("analytics: bot id is required")
	}
	at := turn.At
	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()

	delta := Delta{Messages: 1}
	if turn.NewConversation {
		delta.Conversations = 1
		delta.UniqueUsers = 1
	}

	var errs []error
	if err := s.repo.IncrementDaily(ctx, turn.BotID, at.Format(model.DateLayout), delta); err != nil {
		errs = append(errs, fmt.Errorf("increment daily: %w", err))
	}
	if err := s.repo.IncrementBotTotals(ctx, turn.BotID, delta, at.Format(time.RFC3339)); err != nil {
		errs = append(errs, fmt.Errorf("increment bot totals: %w", err))
	}
	return errors.Join(errs...)
}

// Report returns the daily rows of the last days days, today included,
// ordered by date.
func (s *Service) Report(ctx context.Context, botID string, days int) (Report, error) {
	if days <= 0 {
		days = DefaultReportDays
	}
	if days > MaxReportDays {
		days = MaxReportDays
	}

	end := s.now().UTC()
	start := end.AddDate(0, 0, -(days - 1))
	from := start.Format(model.DateLayout)
	to := end.Format(model.DateLayout)

	rows, err := s.repo.ListDaily(ctx, botID, from, to)
	if err != nil {
		return Report{}, err
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Date < rows[j].Date
	})

	report := Report{
		BotID: botID,
		From:  from,
		To:    to,
		Days:  rows,
	}
	for _, row := range rows {
		report.Totals.Conversations += row.Conversations
		report.Totals.Messages += row.Messages
		report.Totals.UniqueUsers += row.UniqueUsers
	}
	return report, nil
}
