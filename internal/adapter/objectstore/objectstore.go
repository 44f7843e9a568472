package objectstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	domainErrors "github.com/polkiloo/archstore/internal/domain/errors"
)

// Presigner mints time-limited read links for stored objects.
type Presigner interface {
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Options configures S3Presigner.
type S3Options struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Presigner signs GetObject requests for a single bucket.
type S3Presigner struct {
	client presignAPI
	bucket string
}

// NewS3Presigner uses static credentials when both keys are set and the
// default AWS credential chain otherwise.
func NewS3Presigner(ctx context.Context, opts S3Options) (*S3Presigner, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket must be provided")
	}

	var cfg aws.Config
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		cfg = aws.Config{
			Region:      opts.Region,
			Credentials: credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		}
	} else {
		loaded, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		cfg = loaded
	}

	return &S3Presigner{
		client: s3.NewPresignClient(s3.NewFromConfig(cfg)),
		bucket: opts.Bucket,
	}, nil
}

func (p *S3Presigner) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	req, err := p.client.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("%w: presign %s: %w", domainErrors.ErrUpstream, key, err)
	}
	return req.URL, nil
}

// OfflinePresigner builds unsigned links under a fixed base URL. It is meant
// for local development without AWS access.
type OfflinePresigner struct {
	baseURL string
}

// NewOfflinePresigner validates the base URL.
func NewOfflinePresigner(baseURL string) (*OfflinePresigner, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse offline base url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("offline base url must be absolute")
	}
	return &OfflinePresigner{baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (p *OfflinePresigner) PresignGet(_ context.Context, key string, expires time.Duration) (string, error) {
	query := url.Values{}
	query.Set("expires", strconv.Itoa(int(expires.Seconds())))
	return p.baseURL + "/" + strings.TrimLeft(key, "/") + "?" + query.Encode(), nil
}
