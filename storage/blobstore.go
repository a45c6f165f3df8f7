// Package storage implements the Blob Store (C1) and Document Store
// (C5/C6) collaborators the engine is constructed with.
//
// BlobStore is grounded on s3aws.go's S3-compatible client
// construction (config.LoadDefaultConfig with static credentials and
// a custom endpoint resolver, a shared *http.Client, S3AwsListObjects'
// NewFromConfig options pattern) and its MD5-based change-detection
// idiom (CalculateMD5), adapted from a multi-cloud directory-sync tool
// into a single-object, SHA-256-content-addressed put/get/delete
// store: blob_id is the hex SHA-256 digest of the bytes, so put is
// naturally idempotent and a mismatched digest is a programming error
// rather than a storage-layer concern.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"tmf.evalgo.org/tmferrors"
)

// BlobStore is the content-addressed revision store (C1). blob_id is
// always the lowercase-hex SHA-256 digest of the stored bytes.
type BlobStore interface {
	// Put stores payload and returns its blob_id. Put is idempotent:
	// storing the same bytes twice returns the same blob_id and does
	// not error.
	Put(ctx context.Context, payload []byte) (blobID string, err error)

	// Get retrieves the bytes for blobID. Returns a NotFound
	// tmferrors.Error if no such blob exists.
	Get(ctx context.Context, blobID string) ([]byte, error)

	// Delete removes blobID. Deleting an already-absent blob is not
	// an error (idempotent), matching spec §5's "independently
	// idempotent on blob_id" requirement.
	Delete(ctx context.Context, blobID string) error
}

// ContentDigest returns the blob_id payload would be stored under.
func ContentDigest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

var sharedBlobHTTPClient = &http.Client{
	Timeout: 60 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	},
}

// S3BlobStore is the S3-compatible BlobStore implementation.
type S3BlobStore struct {
	client *s3.Client
	bucket string
}

// S3BlobStoreConfig carries the connection parameters for
// NewS3BlobStore; it mirrors config.BlobStoreConfig but keeps this
// package free of an import-cycle dependency on config.
type S3BlobStoreConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// NewS3BlobStore constructs a BlobStore backed by an S3-compatible
// endpoint, following s3aws.go's static-credentials + custom-endpoint-
// resolver client construction.
func NewS3BlobStore(ctx context.Context, cfg S3BlobStoreConfig) (*S3BlobStore, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.HTTPClient = sharedBlobHTTPClient
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &S3BlobStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *S3BlobStore) Put(ctx context.Context, payload []byte) (string, error) {
	const op = "storage.S3BlobStore.Put"
	blobID := ContentDigest(payload)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(blobID),
		Body:   bytes.NewReader(payload),
	})
	if err != nil {
		return "", tmferrors.StorageFailure(op, err)
	}
	return blobID, nil
}

func (s *S3BlobStore) Get(ctx context.Context, blobID string) ([]byte, error) {
	const op = "storage.S3BlobStore.Get"

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(blobID),
	})
	if err != nil {
		var notFound *s3.NoSuchKey
		var respErr *smithyhttp.ResponseError
		if errors.As(err, &notFound) || (errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404) {
			return nil, tmferrors.NotFound(op, "blob %s not found", blobID)
		}
		return nil, tmferrors.StorageFailure(op, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, tmferrors.StorageFailure(op, err)
	}
	return data, nil
}

func (s *S3BlobStore) Delete(ctx context.Context, blobID string) error {
	const op = "storage.S3BlobStore.Delete"

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(blobID),
	})
	if err != nil {
		return tmferrors.StorageFailure(op, err)
	}
	return nil
}
