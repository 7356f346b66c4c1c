package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/acme/lead-dialer/internal/domain"
)

// CallLogPublisher emits finished-call records to Kafka. It is the
// controller's call-log submitter: the controller only depends on its
// accept/reject contract.
type CallLogPublisher struct {
	writer *kafka.Writer
}

// NewCallLogPublisher constructs a publisher for the given topic.
func NewCallLogPublisher(k *Kafka, topic string) *CallLogPublisher {
	return &CallLogPublisher{writer: k.NewWriter(topic)}
}

// Submit writes the record to the call-log topic.
func (p *CallLogPublisher) Submit(ctx context.Context, record domain.CallLogRecord) error {
	msg := CallLogMessage{
		RecordID:        record.ID,
		LeadID:          record.LeadID,
		UserID:          record.UserID,
		CallTime:        record.CallTime,
		DurationSeconds: int64(record.Duration / time.Second),
		Outcome:         string(record.Outcome),
		Notes:           record.Notes,
		SubmittedAt:     time.Now().UTC(),
	}

	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("call log publisher: marshal message: %w", err)
	}

	rec := kafka.Message{
		Key:   record.ID[:],
		Value: value,
		Time:  time.Now().UTC(),
	}

	if err := p.writer.WriteMessages(ctx, rec); err != nil {
		return fmt.Errorf("call log publisher: write message: %w", err)
	}
	return nil
}

// Close closes the underlying writer.
func (p *CallLogPublisher) Close() error {
	return p.writer.Close()
}
