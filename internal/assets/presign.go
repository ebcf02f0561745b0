// Package assets mints presigned S3 URLs for source-image upload slots and
// time-limited delivery of stored originals. The transformed renditions
// live in the external media service; this covers only our own bucket.
package assets

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// presignExpiry bounds how long a minted URL stays valid.
const presignExpiry = 15 * time.Minute

// Seams for tests.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Config carries the object-storage settings for the source bucket.
type Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	BaseEndpoint string
}

// Signer mints presigned URLs against the configured bucket.
type Signer struct {
	cfg Config
}

func NewSigner(cfg Config) *Signer {
	return &Signer{cfg: cfg}
}

// newStorageKey spreads source uploads by date to keep prefixes shallow.
func newStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("sources/%d/%02d/%02d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *Signer) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKey, s.cfg.SecretKey, "",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.cfg.BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// UploadSlot returns a fresh storage key and a presigned PUT URL a client
// can upload the source image to before requesting a transformation.
func (s *Signer) UploadSlot(ctx context.Context) (string, string, error) {
	pc, err := s.presignClient(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := s.cfg.Bucket
	key := newStorageKey()

	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// DeliveryURL returns a presigned GET URL for a stored source image.
func (s *Signer) DeliveryURL(ctx context.Context, key string) (string, error) {
	pc, err := s.presignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.cfg.Bucket

	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
