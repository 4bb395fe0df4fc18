package spaces

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/jobstore"
	"jobboard-gateway/internal/logging"
)

// Backend keeps blobs as objects in a DigitalOcean Spaces (S3 compatible)
// bucket. The object ETag is the version token; conditional writes use
// If-Match and If-None-Match.
type Backend struct {
	client     *s3.S3
	bucketName string
	logger     logging.Logger
}

// New builds an S3 session for the bucket configured in cfg.DigitalOcean.Spaces
func New(cfg *config.Config, logger logging.Logger) (*Backend, error) {
	sc := cfg.DigitalOcean.Spaces
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	if sc.AccessKeyID == "" || sc.AccessKeySecret == "" {
		return nil, fmt.Errorf("DigitalOcean Spaces credentials are required")
	}
	if sc.BucketName == "" {
		return nil, fmt.Errorf("DigitalOcean Spaces bucket name is required")
	}

	endpoint := sc.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.digitaloceanspaces.com", sc.Region)
	}

	sess, err := session.NewSession(&aws.Config{
		Credentials:      credentials.NewStaticCredentials(sc.AccessKeyID, sc.AccessKeySecret, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(sc.Region),
		S3ForcePathStyle: aws.Bool(sc.ForcePathStyle),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DigitalOcean Spaces session: %w", err)
	}

	logger.Info("DigitalOcean Spaces backend initialized", map[string]interface{}{
		"bucket_name": sc.BucketName,
		"region":      sc.Region,
		"endpoint":    endpoint,
	})

	return &Backend{
		client:     s3.New(sess),
		bucketName: sc.BucketName,
		logger:     logger.WithField("backend", "spaces"),
	}, nil
}

func (b *Backend) Name() string {
	return "spaces"
}

func (b *Backend) Get(ctx context.Context, path string) (jobstore.Blob, error) {
	out, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(path),
	})
	if err != nil {
		if isNotFound(err) {
			return jobstore.Blob{}, jobstore.ErrNotFound
		}
		return jobstore.Blob{}, jobstore.Unavailable("spaces get", err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return jobstore.Blob{}, jobstore.Unavailable("spaces read body", err)
	}

	return jobstore.Blob{Content: content, Version: aws.StringValue(out.ETag)}, nil
}

func (b *Backend) Put(ctx context.Context, path string, content []byte, expectedVersion string) (string, error) {
	header := map[string]string{"If-None-Match": "*"}
	if expectedVersion != jobstore.AbsentVersion {
		header = map[string]string{"If-Match": expectedVersion}
	}

	out, err := b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucketName),
		Key:         aws.String(path),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("application/json"),
		ACL:         aws.String("private"),
	}, request.WithSetRequestHeaders(header))
	if err != nil {
		if isConflict(err) {
			b.logger.Debug("conditional put rejected", map[string]interface{}{
				"object_key": path,
				"expected":   expectedVersion,
			})
			return "", jobstore.ErrVersionConflict
		}
		return "", jobstore.Unavailable("spaces put", err)
	}

	return aws.StringValue(out.ETag), nil
}

func (b *Backend) Ping(ctx context.Context) error {
	_, err := b.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.bucketName)})
	return err
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound") {
		return true
	}
	var reqErr awserr.RequestFailure
	return errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound &&
		!strings.EqualFold(reqErr.Code(), s3.ErrCodeNoSuchBucket)
}

// isConflict covers a failed precondition and the 409 some S3 implementations
// return when two conditional writes race
func isConflict(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) {
		switch reqErr.StatusCode() {
		case http.StatusPreconditionFailed, http.StatusConflict:
			return true
		}
	}
	var aerr awserr.Error
	return errors.As(err, &aerr) && aerr.Code() == "PreconditionFailed"
}
