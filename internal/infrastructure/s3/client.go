package s3infra

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aidbridge-api/internal/config"
	"github.com/aidbridge-api/internal/domain"
	"github.com/aidbridge-api/internal/infrastructure/dynamo"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the part of the S3 client the image store needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ImageStore keeps request photos in a bucket served publicly by its
// bucket policy.
type ImageStore struct {
	client  ObjectPutter
	bucket  string
	baseURL string
}

// NewClient creates an S3 client. When cfg.AWSEndpointURL is set (LocalStack),
// it overrides the endpoint and enables path-style addressing.
func NewClient(cfg *config.Config) *s3.Client {
	awsCfg, err := dynamo.LoadAWSConfig(context.Background(), cfg, cfg.AWSRegion)
	if err != nil {
		panic("failed to load AWS config for S3: " + err.Error())
	}

	clientOpts := []func(*s3.Options){}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(awsCfg, clientOpts...)
}

// PublicBaseURL is the URL prefix objects of the configured bucket are
// served from.
func PublicBaseURL(cfg *config.Config) string {
	switch {
	case cfg.S3PublicBaseURL != "":
		return strings.TrimRight(cfg.S3PublicBaseURL, "/")
	case cfg.AWSEndpointURL != "":
		return strings.TrimRight(cfg.AWSEndpointURL, "/") + "/" + cfg.S3BucketName
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3BucketName, cfg.AWSRegion)
	}
}

func NewImageStore(client ObjectPutter, bucket, baseURL string) *ImageStore {
	return &ImageStore{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

// Put uploads body under key and returns its public URL.
func (s *ImageStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("max-age=3600"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w: %w", domain.ErrNetwork, err)
	}
	return s.PublicURL(key), nil
}

func (s *ImageStore) PublicURL(key string) string {
	return s.baseURL + "/" + key
}
