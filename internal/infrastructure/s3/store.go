package s3infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-notify-nosql/internal/config"
	"github.com/go-notify-nosql/internal/pkg/id"
)

type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// DeadLetterStore archives undeliverable events and failed dispatch reports to S3.
type DeadLetterStore struct {
	client putter
	bucket string
	now    func() time.Time
}

// NewClient creates an S3 client. When cfg.AWSEndpointURL is set (LocalStack),
// it overrides the endpoint and enables path-style addressing.
func NewClient(cfg *config.Config) *s3.Client {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}

	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
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

func NewDeadLetterStore(client *s3.Client, bucket string) *DeadLetterStore {
	return newDeadLetterStore(client, bucket)
}

func newDeadLetterStore(client putter, bucket string) *DeadLetterStore {
	return &DeadLetterStore{client: client, bucket: bucket, now: time.Now}
}

// Archive stores body as JSON under <kind>/<yyyy>/<mm>/<dd>/<ulid>.json.
func (s *DeadLetterStore) Archive(ctx context.Context, kind string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	return s.put(ctx, kind, "json", "application/json", data)
}

// ArchiveRaw stores bytes that could not be decoded, unchanged.
func (s *DeadLetterStore) ArchiveRaw(ctx context.Context, kind string, data []byte) error {
	return s.put(ctx, kind, "bin", "application/octet-stream", data)
}

func (s *DeadLetterStore) put(ctx context.Context, kind, ext, contentType string, data []byte) error {
	key := s.key(kind, ext)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 put object %s: %w", key, err)
	}
	return nil
}

func (s *DeadLetterStore) key(kind, ext string) string {
	return fmt.Sprintf("%s/%s/%s.%s", kind, s.now().UTC().Format("2006/01/02"), id.New(), ext)
}
