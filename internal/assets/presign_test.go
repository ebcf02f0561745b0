package assets

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func testConfig() Config {
	return Config{
		Region:       "us-east-1",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		Bucket:       "pixvault",
		BaseEndpoint: "http://127.0.0.1:9000",
	}
}

func stubClients(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://127.0.0.1:9000" {
			t.Fatalf("base endpoint not applied")
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
}

func TestUploadSlot_ReturnsKeyAndURL(t *testing.T) {
	stubClients(t)

	origPut := presignPutObject
	t.Cleanup(func() { presignPutObject = origPut })

	var capturedKey string
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		if *in.Bucket != "pixvault" {
			t.Fatalf("bucket not applied: %q", *in.Bucket)
		}
		capturedKey = *in.Key
		return &v4.PresignedHTTPRequest{URL: "https://signed.example/put"}, nil
	}

	s := NewSigner(testConfig())
	key, url, err := s.UploadSlot(context.Background())
	if err != nil {
		t.Fatalf("UploadSlot error: %v", err)
	}
	if url != "https://signed.example/put" {
		t.Fatalf("unexpected url: %q", url)
	}
	if key != capturedKey || !strings.HasPrefix(key, "sources/") {
		t.Fatalf("unexpected storage key: %q", key)
	}
}

func TestUploadSlot_PresignError(t *testing.T) {
	stubClients(t)

	origPut := presignPutObject
	t.Cleanup(func() { presignPutObject = origPut })

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign failed")
	}

	s := NewSigner(testConfig())
	if _, _, err := s.UploadSlot(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDeliveryURL_UsesGivenKey(t *testing.T) {
	stubClients(t)

	origGet := presignGetObject
	t.Cleanup(func() { presignGetObject = origGet })

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		if *in.Key != "sources/2026/01/01/abc" {
			t.Fatalf("key not applied: %q", *in.Key)
		}
		return &v4.PresignedHTTPRequest{URL: "https://signed.example/get"}, nil
	}

	s := NewSigner(testConfig())
	url, err := s.DeliveryURL(context.Background(), "sources/2026/01/01/abc")
	if err != nil {
		t.Fatalf("DeliveryURL error: %v", err)
	}
	if url != "https://signed.example/get" {
		t.Fatalf("unexpected url: %q", url)
	}
}

func TestSigner_ConfigLoadError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no creds")
	}

	s := NewSigner(testConfig())
	if _, _, err := s.UploadSlot(context.Background()); err == nil {
		t.Fatalf("expected config error")
	}
	if _, err := s.DeliveryURL(context.Background(), "k"); err == nil {
		t.Fatalf("expected config error")
	}
}
