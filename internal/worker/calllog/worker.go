package calllog

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/acme/lead-dialer/internal/app"
	"github.com/acme/lead-dialer/internal/queue"
	"github.com/acme/lead-dialer/internal/repository"
)

// Worker consumes finished-call records from Kafka and persists them.
type Worker struct {
	container *app.Container
}

// New creates a new call-log worker.
func New(container *app.Container) *Worker {
	return &Worker{container: container}
}

// Run processes call-log events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	cfg := w.container.Config
	reader := w.container.Kafka.NewReader(cfg.Kafka.CallLogTopic, cfg.Kafka.ConsumerGroupID)
	defer reader.Close()

	store := w.container.Repositories().CallLogs
	logger := w.container.Logger

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("call log worker: fetch", zap.Error(err))
			continue
		}

		var record queue.CallLogMessage
		if err := json.Unmarshal(msg.Value, &record); err != nil {
			logger.Error("call log worker: unmarshal", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		tracer := otel.Tracer("dialer.calllogworker")
		sctx, span := tracer.Start(ctx, "calllog.persist", trace.WithAttributes(
			attribute.String("record.id", record.RecordID.String()),
			attribute.String("lead.id", record.LeadID.String()),
			attribute.String("outcome", record.Outcome),
		))

		stored := repository.CallLogRecord{
			ID:              record.RecordID,
			LeadID:          record.LeadID,
			UserID:          record.UserID,
			CallTime:        record.CallTime,
			DurationSeconds: record.DurationSeconds,
			Outcome:         record.Outcome,
			Notes:           record.Notes,
			CreatedAt:       time.Now().UTC(),
		}
		if err := store.Append(sctx, stored); err != nil {
			span.RecordError(err)
			logger.Error("call log worker: append", zap.Error(err))
			span.End()
			// leave the message uncommitted so it is redelivered
			continue
		}

		if err := reader.CommitMessages(sctx, msg); err != nil {
			span.RecordError(err)
			logger.Error("call log worker: commit", zap.Error(err))
		}
		span.End()
	}
}
