package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/sremani/artifortress/internal/platform/apperrors"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// S3Backend implements Backend against an S3-compatible bucket.
type S3Backend struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// NewS3Backend wraps client for bucket.
func NewS3Backend(client *s3.Client, bucket string) *S3Backend {
	return &S3Backend{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
	}
}

func stagingKeyFor(tenantID, repoID string) string {
	return fmt.Sprintf("staging/%s/%s/%s", tenantID, repoID, uuid.NewString())
}

func blobKeyFor(digest string) string {
	return fmt.Sprintf("blobs/%s/%s/%s", digest[:2], digest[2:4], digest)
}

func (b *S3Backend) BeginMultipart(ctx context.Context, tenantID, repoID string) (string, string, error) {
	tracer := mtelemetry.Tracer("objectstore.s3")
	ctx, span := tracer.Start(ctx, "s3.begin_multipart")
	defer span.End()

	key := stagingKeyFor(tenantID, repoID)

	out, err := b.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to create multipart upload", err)
		return "", "", err
	}

	return key, aws.ToString(out.UploadId), nil
}

func (b *S3Backend) PresignUploadPart(ctx context.Context, stagingKey, storageUploadID string, partNumber int32, ttl time.Duration) (string, error) {
	tracer := mtelemetry.Tracer("objectstore.s3")
	ctx, span := tracer.Start(ctx, "s3.presign_upload_part")
	defer span.End()

	req, err := b.presign.PresignUploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String(b.bucket),
		Key:        aws.String(stagingKey),
		UploadId:   aws.String(storageUploadID),
		PartNumber: aws.Int32(partNumber),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to presign upload part", err)
		return "", err
	}

	return req.URL, nil
}

func (b *S3Backend) CompleteMultipart(ctx context.Context, stagingKey, storageUploadID string, parts []CompletedPart) (string, error) {
	tracer := mtelemetry.Tracer("objectstore.s3")
	ctx, span := tracer.Start(ctx, "s3.complete_multipart")
	defer span.End()

	completed := make([]s3types.CompletedPart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, s3types.CompletedPart{
			PartNumber: aws.Int32(p.PartNumber),
			ETag:       aws.String(p.ETag),
		})
	}

	out, err := b.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(b.bucket),
		Key:             aws.String(stagingKey),
		UploadId:        aws.String(storageUploadID),
		MultipartUpload: &s3types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to complete multipart upload", err)
		return "", err
	}

	return aws.ToString(out.ETag), nil
}

func (b *S3Backend) AbortMultipart(ctx context.Context, stagingKey, storageUploadID string) error {
	tracer := mtelemetry.Tracer("objectstore.s3")
	ctx, span := tracer.Start(ctx, "s3.abort_multipart")
	defer span.End()

	_, err := b.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(b.bucket),
		Key:      aws.String(stagingKey),
		UploadId: aws.String(storageUploadID),
	})
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to abort multipart upload", err)
		return err
	}

	return nil
}

func (b *S3Backend) PromoteToBlobKey(ctx context.Context, stagingKey, digest string) (string, error) {
	tracer := mtelemetry.Tracer("objectstore.s3")
	ctx, span := tracer.Start(ctx, "s3.promote_to_blob_key")
	defer span.End()

	blobKey := blobKeyFor(digest)

	if _, err := b.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(b.bucket),
		Key:        aws.String(blobKey),
		CopySource: aws.String(b.bucket + "/" + stagingKey),
	}); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to copy staged object to blob key", err)
		return "", err
	}

	if _, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(stagingKey),
	}); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to delete staging object after promotion", err)
		return "", err
	}

	return blobKey, nil
}

func (b *S3Backend) GetObject(ctx context.Context, key string) (ObjectReader, error) {
	tracer := mtelemetry.Tracer("objectstore.s3")
	ctx, span := tracer.Start(ctx, "s3.get_object")
	defer span.End()

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get object", err)
		return nil, err
	}

	return &s3ObjectReader{body: out.Body, length: aws.ToInt64(out.ContentLength)}, nil
}

// GetObjectRange issues a ranged GET via the SDK's native Range request
// parameter, so a byte-range download never has to stream and discard
// leading bytes itself.
func (b *S3Backend) GetObjectRange(ctx context.Context, key string, start, end int64) (ObjectReader, error) {
	tracer := mtelemetry.Tracer("objectstore.s3")
	ctx, span := tracer.Start(ctx, "s3.get_object_range")
	defer span.End()

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end)),
	})
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get object range", err)
		return nil, err
	}

	return &s3ObjectReader{body: out.Body, length: aws.ToInt64(out.ContentLength)}, nil
}

func (b *S3Backend) DeleteObject(ctx context.Context, key string) error {
	tracer := mtelemetry.Tracer("objectstore.s3")
	ctx, span := tracer.Start(ctx, "s3.delete_object")
	defer span.End()

	if _, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}); err != nil {
		var notFound *s3types.NotFound
		if errors.As(err, &notFound) {
			return apperrors.EntityNotFoundError{EntityType: "ObjectStore.Object", Err: err}
		}

		mtelemetry.HandleSpanError(&span, "failed to delete object", err)

		return err
	}

	return nil
}

func (b *S3Backend) CheckAvailability(ctx context.Context, key string) (bool, error) {
	tracer := mtelemetry.Tracer("objectstore.s3")
	ctx, span := tracer.Start(ctx, "s3.check_availability")
	defer span.End()

	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *s3types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}

		mtelemetry.HandleSpanError(&span, "failed to head object", err)

		return false, err
	}

	return true, nil
}

type s3ObjectReader struct {
	body   io.ReadCloser
	length int64
}

func (r *s3ObjectReader) Read(p []byte) (int, error) { return r.body.Read(p) }
func (r *s3ObjectReader) Close() error                { return r.body.Close() }
func (r *s3ObjectReader) ContentLength() int64        { return r.length }
