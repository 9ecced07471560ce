package objects

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

const DefaultRegion = "us-east-1"

type Settings struct {
	Bucket  string
	Prefix  string
	Profile string
	Region  string
}

// Uploader writes rendered reports to an object store.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, body []byte) (string, error)
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Uploader struct {
	client putObjectAPI
	bucket string
	prefix string
}

func NewS3Uploader(ctx context.Context, settings Settings) (Uploader, error) {
	if settings.Bucket == "" {
		return nil, fmt.Errorf("export bucket is required")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithDefaultRegion(DefaultRegion),
	}
	if settings.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(settings.Profile))
	}
	if settings.Region != "" {
		opts = append(opts, config.WithRegion(settings.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	return newUploader(s3.NewFromConfig(awsCfg), settings), nil
}

func newUploader(client putObjectAPI, settings Settings) *s3Uploader {
	return &s3Uploader{
		client: client,
		bucket: settings.Bucket,
		prefix: strings.Trim(settings.Prefix, "/"),
	}
}

// Upload stores body under prefix/name and returns the s3:// URI of the object.
func (u *s3Uploader) Upload(ctx context.Context, name, contentType string, body []byte) (string, error) {
	if name == "" {
		return "", fmt.Errorf("object name is required")
	}

	key := name
	if u.prefix != "" {
		key = path.Join(u.prefix, name)
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to bucket %s: %w", key, u.bucket, err)
	}

	uri := fmt.Sprintf("s3://%s/%s", u.bucket, key)
	zerolog.Ctx(ctx).Info().Str("uri", uri).Int("bytes", len(body)).Msg("report uploaded")
	return uri, nil
}
