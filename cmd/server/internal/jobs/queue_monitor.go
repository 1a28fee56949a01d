package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/openoj/judge-api/internal/models"
	"github.com/openoj/judge-api/internal/judge"
	"github.com/openoj/judge-api/internal/queue"
)

// ResultMsgHandler stores verdicts reported by the judging engine.
type ResultMsgHandler struct {
	db *gorm.DB
}

var _ queue.MessageHandler = (*ResultMsgHandler)(nil)

func (h *ResultMsgHandler) Handle(ctx context.Context, message []byte) error {
	ctx, span := tracer.Start(ctx, "ResultMsgHandler.Handle")
	defer span.End()

	msg, err := judge.ParseResult(message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "result message failed validation")
		return queue.WrapPoisonError(err)
	}

	span.SetAttributes(attribute.String("submission.id.raw", msg.SubmissionID))

	id, err := uuid.Parse(msg.SubmissionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission id is not a uuid")
		return queue.WrapPoisonError(err)
	}

	db := h.db.WithContext(ctx)

	result := db.Model(&models.Submission{}).
		Where("id = ?", id).
		Update("groups", datatypes.NewJSONSlice(msg.Groups))
	if result.Error != nil {
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, "failed to store verdict")
		return result.Error
	}

	if result.RowsAffected == 0 {
		err := errors.New("verdict for unknown submission")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return queue.WrapPoisonError(err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "stored verdict")
	return nil
}

// Monitors the results queue and stores verdicts until `ctx` is cancelled
func MonitorResultsQueue(ctx context.Context, db *gorm.DB, qr queue.Queuer) {
	ctx, span := tracer.Start(ctx, "MonitorResultsQueue")
	defer span.End()
	handler := &ResultMsgHandler{db: db}
OUTER:
	for {
		func() {
			//nolint:govet // shadow: intentionally shadow ctx and span to avoid using the incorrect one.
			ctx, span := tracer.Start(ctx, "MonitorResultsQueue.Loop")
			defer span.End()

			if err := qr.Dequeue(ctx, 10*time.Minute, handler); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to dequeue and handle message")
				return
			}
		}()

		select {
		case <-ctx.Done():
			break OUTER
		default:
			continue
		}
	}
}
