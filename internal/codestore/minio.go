package codestore

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ensure MinioStore implements Store interface.
var _ Store = (*MinioStore)(nil)

// Minio (S3) backed code artifact store
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(
	endpoint, id, secret string,
	ssl bool,
	bucket string,
) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(id, secret, ""),
		Secure: ssl,
	})
	if err != nil {
		return nil, err
	}

	return &MinioStore{
		client: client,
		bucket: bucket,
	}, nil
}

func NewMinioStoreFromClient(client *minio.Client, bucket string) *MinioStore {
	return &MinioStore{
		client: client,
		bucket: bucket,
	}
}

func (s *MinioStore) Write(ctx context.Context, submissionID string, files []string) error {
	ctx, span := tracer.Start(ctx, "MinioStore.Write", trace.WithAttributes(
		attribute.String("submission.id", submissionID),
		attribute.Int("files", len(files)),
	))
	defer span.End()

	for i, file := range files {
		_, err := s.client.PutObject(
			ctx,
			s.bucket,
			blobName(submissionID, i),
			strings.NewReader(file),
			int64(len(file)),
			minio.PutObjectOptions{ContentType: "text/plain"},
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to put object")
			return err
		}
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "wrote code artifact")
	return nil
}

func (s *MinioStore) Read(
	ctx context.Context,
	submissionID string,
	count int,
) ([]string, error) {
	ctx, span := tracer.Start(ctx, "MinioStore.Read", trace.WithAttributes(
		attribute.String("submission.id", submissionID),
		attribute.Int("files", count),
	))
	defer span.End()

	files := make([]string, 0, count)
	for i := range count {
		object, err := s.client.GetObject(
			ctx,
			s.bucket,
			blobName(submissionID, i),
			minio.GetObjectOptions{},
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to get object")
			return nil, err
		}

		var buf bytes.Buffer
		_, err = io.Copy(&buf, object)
		closeErr := object.Close()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to read object")
			return nil, err
		}
		if closeErr != nil {
			span.RecordError(closeErr)
			span.SetStatus(codes.Error, "failed to close object")
			return nil, closeErr
		}

		files = append(files, buf.String())
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "read code artifact")
	return files, nil
}
