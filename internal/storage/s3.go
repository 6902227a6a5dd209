package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/wheelscan/go-wheel-trainer/internal/reliability"
)

// S3API is the subset of the S3 client the store needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Options configures an S3Store.
type S3Options struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint points the client at an S3-compatible service.
	Endpoint string
	// PublicBaseURL replaces the virtual-hosted AWS URL in returned links.
	PublicBaseURL string
	UsePathStyle  bool
	ACL           string
}

// S3Store uploads objects with a canned ACL and hands back their public URL.
type S3Store struct {
	api     S3API
	opts    S3Options
	breaker *reliability.CircuitBreaker
}

// NewS3Store builds an AWS client from opts. Static credentials are used when
// given, otherwise the default AWS credential chain applies.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})
	return NewS3StoreWithClient(client, opts), nil
}

// NewS3StoreWithClient wraps an existing client.
func NewS3StoreWithClient(api S3API, opts S3Options) *S3Store {
	return &S3Store{
		api:     api,
		opts:    opts,
		breaker: reliability.GetCircuitBreaker("object-store"),
	}
}

// Upload streams the file at filePath to key.
func (s *S3Store) Upload(ctx context.Context, key, filePath string) (string, error) {
	file, err := os.Open(filepath.Clean(filePath))
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", filePath, err)
	}
	contentType, err := detectContentType(file)
	if err != nil {
		return "", err
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.opts.Bucket),
		Key:           aws.String(key),
		Body:          file,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType),
	}
	if s.opts.ACL != "" {
		input.ACL = types.ObjectCannedACL(s.opts.ACL)
	}

	err = s.breaker.Execute(ctx, func(ctx context.Context) error {
		_, err := s.api.PutObject(ctx, input)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return s.URL(key), nil
}

// URL returns the public address of key.
func (s *S3Store) URL(key string) string {
	escaped := escapeKey(key)
	switch {
	case s.opts.PublicBaseURL != "":
		return strings.TrimRight(s.opts.PublicBaseURL, "/") + "/" + escaped
	case s.opts.Endpoint != "" && s.opts.UsePathStyle:
		return strings.TrimRight(s.opts.Endpoint, "/") + "/" + s.opts.Bucket + "/" + escaped
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.opts.Bucket, s.opts.Region, escaped)
	}
}

// Check verifies the bucket is reachable with the configured credentials.
func (s *S3Store) Check(ctx context.Context) error {
	_, err := s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.opts.Bucket)})
	if err != nil {
		return fmt.Errorf("bucket %s is not reachable: %w", s.opts.Bucket, err)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (s *S3Store) Bucket() string { return s.opts.Bucket }

func detectContentType(file *os.File) (string, error) {
	if ct := mime.TypeByExtension(filepath.Ext(file.Name())); ct != "" {
		return ct, nil
	}
	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read %s: %w", file.Name(), err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind %s: %w", file.Name(), err)
	}
	return http.DetectContentType(head[:n]), nil
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
