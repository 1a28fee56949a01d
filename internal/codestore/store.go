package codestore

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/openoj/judge-api/internal/codestore")

//go:generate mockgen -destination ./mock/mock.go -package mock . Store

// Store persists a submission's code artifact: an ordered sequence of
// source files keyed by the submission identifier. Artifacts are written
// once at intake and immutable afterwards.
type Store interface {
	// Write persists the ordered file contents for a submission.
	Write(ctx context.Context, submissionID string, files []string) error
	// Read loads back exactly count files for a submission, in write order.
	Read(ctx context.Context, submissionID string, count int) ([]string, error)
}

// blobName is the object key for one file of a submission's artifact.
func blobName(submissionID string, index int) string {
	return fmt.Sprintf("%s/%d", submissionID, index)
}
