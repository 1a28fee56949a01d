package codestore

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/codes"
)

// Ensure RetryStore implements Store interface.
var _ Store = (*RetryStore)(nil)

// Meta store that wraps store operations in backoff loops
type RetryStore struct {
	store   Store
	backoff func() retry.Backoff
}

func NewRetryStoreBackoff(store Store, backoff func() retry.Backoff) *RetryStore {
	return &RetryStore{
		store:   store,
		backoff: backoff,
	}
}

// For non latency sensitive writes
func NewRetryStore(store Store) *RetryStore {
	return &RetryStore{
		store: store,
		backoff: func() retry.Backoff {
			b := retry.NewExponential(time.Second)
			b = retry.WithMaxDuration(time.Second*120, b)
			return b
		},
	}
}

func (r *RetryStore) Write(ctx context.Context, submissionID string, files []string) error {
	ctx, span := tracer.Start(ctx, "RetryStore.Write")
	defer span.End()

	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		//nolint:govet // shadow: intentionally shadow ctx and span to avoid using the incorrect one.
		ctx, span := tracer.Start(ctx, "RetryStore.Write.Retry")
		defer span.End()

		if err := r.store.Write(ctx, submissionID, files); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to write")
			return retry.RetryableError(err)
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "successfully retried")
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "wrote code artifact")
	return nil
}

func (r *RetryStore) Read(
	ctx context.Context,
	submissionID string,
	count int,
) ([]string, error) {
	ctx, span := tracer.Start(ctx, "RetryStore.Read")
	defer span.End()

	var files []string
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		//nolint:govet // shadow: intentionally shadow ctx and span to avoid using the incorrect one.
		ctx, span := tracer.Start(ctx, "RetryStore.Read.Retry")
		defer span.End()

		var err error
		files, err = r.store.Read(ctx, submissionID, count)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to read")
			return retry.RetryableError(err)
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "successfully retried")
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "read code artifact")
	return files, nil
}
