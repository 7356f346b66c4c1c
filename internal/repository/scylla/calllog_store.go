package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/acme/lead-dialer/internal/repository"
)

// CallLogStore persists finished-call records in Scylla, partitioned by lead
// and day so a lead's call history reads from a single partition.
type CallLogStore struct {
	session *gocql.Session
}

// NewCallLogStore creates a new store.
func NewCallLogStore(session *gocql.Session) *CallLogStore {
	return &CallLogStore{session: session}
}

// Append inserts a call-log record.
func (s *CallLogStore) Append(ctx context.Context, record repository.CallLogRecord) error {
	bucket := bucketDate(record.CallTime)
	if err := s.session.Query(`INSERT INTO call_logs_by_lead (lead_id, bucket, record_id, user_id, call_time, duration_seconds, outcome, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.LeadID.String(), bucket, record.ID.String(), record.UserID.String(),
		record.CallTime, record.DurationSeconds, record.Outcome, record.Notes, record.CreatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("call log store: insert call_logs_by_lead: %w", err)
	}

	if err := s.session.Query(`INSERT INTO call_logs_by_user (user_id, bucket, record_id, lead_id, call_time, duration_seconds, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.UserID.String(), bucket, record.ID.String(), record.LeadID.String(),
		record.CallTime, record.DurationSeconds, record.Outcome, record.CreatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("call log store: insert call_logs_by_user: %w", err)
	}

	return nil
}

// ListByLead lists call logs for a lead with pagination.
func (s *CallLogStore) ListByLead(ctx context.Context, leadID uuid.UUID, limit int, pagingState []byte) ([]repository.CallLogRecord, []byte, error) {
	if limit <= 0 {
		limit = 100
	}

	query := s.session.Query(`SELECT bucket, record_id, user_id, call_time, duration_seconds, outcome, notes, created_at
		FROM call_logs_by_lead WHERE lead_id = ?`, leadID.String()).WithContext(ctx)
	query = query.PageSize(limit)
	if len(pagingState) > 0 {
		query = query.PageState(pagingState)
	}

	iter := query.Iter()
	records := make([]repository.CallLogRecord, 0, limit)

	var (
		bucket          time.Time
		recordIDStr     string
		userIDStr       string
		callTime        time.Time
		durationSeconds int64
		outcome         string
		notes           string
		createdAt       time.Time
	)

	for iter.Scan(&bucket, &recordIDStr, &userIDStr, &callTime, &durationSeconds, &outcome, &notes, &createdAt) {
		recordID, err := uuid.Parse(recordIDStr)
		if err != nil {
			continue
		}
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			continue
		}

		records = append(records, repository.CallLogRecord{
			ID:              recordID,
			LeadID:          leadID,
			UserID:          userID,
			CallTime:        callTime,
			DurationSeconds: durationSeconds,
			Outcome:         outcome,
			Notes:           notes,
			CreatedAt:       createdAt,
		})
	}

	if err := iter.Close(); err != nil {
		return nil, nil, fmt.Errorf("call log store: iter close: %w", err)
	}

	return records, iter.PageState(), nil
}

func bucketDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
