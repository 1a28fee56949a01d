package codestore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ensure AzureStore implements Store interface.
var _ Store = (*AzureStore)(nil)

// Azure Blob store backed code artifact store
type AzureStore struct {
	client *azblob.Client
	// `container` in the storage account where files are saved
	container string
}

// `container` must be part of the storage account provided
func NewAzureStore(
	accountName, accountKey, serviceURL, container string,
) (*AzureStore, error) {
	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, err
	}

	if container == "" {
		return nil, errors.New("container is required")
	}

	return &AzureStore{
		client:    client,
		container: container,
	}, nil
}

// `container` must be part of the storage account of `client`
func NewAzureStoreFromClient(client *azblob.Client, container string) *AzureStore {
	return &AzureStore{
		client:    client,
		container: container,
	}
}

func (s *AzureStore) Write(ctx context.Context, submissionID string, files []string) error {
	ctx, span := tracer.Start(ctx, "AzureStore.Write", trace.WithAttributes(
		attribute.String("submission.id", submissionID),
		attribute.Int("files", len(files)),
	))
	defer span.End()

	for i, file := range files {
		_, err := s.client.UploadStream(
			ctx,
			s.container,
			blobName(submissionID, i),
			strings.NewReader(file),
			nil,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to upload blob")
			return err
		}
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "wrote code artifact")
	return nil
}

func (s *AzureStore) Read(
	ctx context.Context,
	submissionID string,
	count int,
) ([]string, error) {
	ctx, span := tracer.Start(ctx, "AzureStore.Read", trace.WithAttributes(
		attribute.String("submission.id", submissionID),
		attribute.Int("files", count),
	))
	defer span.End()

	files := make([]string, 0, count)
	for i := range count {
		res, err := s.client.DownloadStream(ctx, s.container, blobName(submissionID, i), nil)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to download blob")
			return nil, err
		}

		var buf bytes.Buffer
		_, err = io.Copy(&buf, res.Body)
		closeErr := res.Body.Close()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to read blob")
			return nil, err
		}
		if closeErr != nil {
			span.RecordError(closeErr)
			span.SetStatus(codes.Error, "failed to close blob")
			return nil, closeErr
		}

		files = append(files, buf.String())
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "read code artifact")
	return files, nil
}
