package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/saqr-syn/portfolio-backend/config"
	"github.com/saqr-syn/portfolio-backend/errs"
)

// MaxMediaSize bounds a single upload.
const MaxMediaSize = 50 << 20

var mediaExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"video/mp4":  ".mp4",
}

type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// MediaStore uploads project screenshots and videos to S3 and returns their public URLs.
type MediaStore struct {
	client     ObjectPutter
	bucket     string
	publicBase string
	logger     zerolog.Logger
}

func NewMediaStore(client ObjectPutter, bucket, publicBase string) *MediaStore {
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return &MediaStore{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		logger:     log.With().Str("component", "media").Logger(),
	}
}

// NewMediaStoreFromConfig returns nil when MEDIA_BUCKET is unset.
func NewMediaStoreFromConfig(ctx context.Context, c map[string]string) (*MediaStore, error) {
	bucket := config.GetString(c, "MEDIA_BUCKET", "")
	if bucket == "" {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.GetString(c, "AWS_REGION", "us-east-1")))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewMediaStore(s3.NewFromConfig(awsCfg), bucket, config.GetString(c, "MEDIA_PUBLIC_BASE_URL", "")), nil
}

// Upload stores body under projects/<folder>/ and returns the public URL.
func (m *MediaStore) Upload(ctx context.Context, folder, contentType string, body io.Reader, size int64) (string, error) {
	ext, ok := mediaExtensions[contentType]
	if !ok {
		return "", errs.NewInvalidFieldError("file", "unsupported media type "+contentType)
	}
	if size > MaxMediaSize {
		return "", errs.NewMaxBodySizeExceededError(MaxMediaSize)
	}

	folder = strings.Trim(path.Clean("/"+folder), "/")
	if folder == "" {
		folder = "shared"
	}
	key := path.Join("projects", folder, uuid.NewString()+ext)

	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		m.logger.Error().Err(err).Str("key", key).Msg("media upload failed")
		return "", errs.NewWriteFailedError("media", err)
	}

	return m.publicBase + "/" + key, nil
}
