// Package s3 provides an S3-compatible blob store (AWS S3, MinIO, or
// any API-compatible service).
package s3

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

const locatorPrefix = "s3:"

// Config contains configuration for the S3 blob store.
type Config struct {
	Endpoint  string `hcl:"endpoint,optional"` // Custom endpoint for MinIO or compatible services
	Region    string `hcl:"region"`
	Bucket    string `hcl:"bucket"`
	Prefix    string `hcl:"prefix,optional"` // Optional key namespace (e.g. "documents/")
	AccessKey string `hcl:"access_key,optional"`
	SecretKey string `hcl:"secret_key,optional"`

	RequestTimeoutSeconds int  `hcl:"request_timeout_seconds,optional"` // default 30
	InsecureSkipVerify    bool `hcl:"insecure_skip_verify,optional"`    // testing only
}

// Validate validates the S3 configuration.
func (c *Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	return nil
}

// SetDefaults sets default values for optional configuration fields.
func (c *Config) SetDefaults() {
	if c.RequestTimeoutSeconds == 0 {
		c.RequestTimeoutSeconds = 30
	}
}

// Store is an S3-backed blob store. Locators have the form
// "s3:<bucket>/<key>".
type Store struct {
	client *s3.Client
	cfg    *Config
	logger hclog.Logger
}

// New creates a new S3 blob store and verifies the bucket is
// accessible.
func New(cfg *Config, logger hclog.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid S3 configuration: %w", err)
	}
	cfg.SetDefaults()
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	awsCfg, err := createAWSConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Force path-style addressing for MinIO
			o.UsePathStyle = true
		}
	})

	s := &Store{client: client, cfg: cfg, logger: logger.Named("blobstore.s3")}
	if err := s.verifyBucket(context.Background()); err != nil {
		return nil, err
	}

	logger.Info("S3 blob store initialized",
		"bucket", cfg.Bucket,
		"prefix", cfg.Prefix)
	return s, nil
}

// createAWSConfig creates AWS SDK configuration from the store config.
func createAWSConfig(cfg *Config) (aws.Config, error) {
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify,
			},
		},
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(httpClient),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	return awsconfig.LoadDefaultConfig(context.Background(), opts...)
}

func (s *Store) verifyBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.cfg.Bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s is not accessible: %w", s.cfg.Bucket, err)
	}
	return nil
}

// Put stores the payload under a generated key.
func (s *Store) Put(ctx context.Context, payload []byte) (string, error) {
	key := path.Join(s.cfg.Prefix, uuid.New().String())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return "", vaulterrors.Newf("Put", vaulterrors.ErrUpstreamFetch,
			"failed to put object to S3: %v", err)
	}
	return fmt.Sprintf("%s%s/%s", locatorPrefix, s.cfg.Bucket, key), nil
}

// Get retrieves the payload for a locator.
func (s *Store) Get(ctx context.Context, locator string) ([]byte, error) {
	key, err := s.parseLocator(locator)
	if err != nil {
		return nil, err
	}
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, vaulterrors.Newf("Get", vaulterrors.ErrNotFound, "blob %s", locator)
		}
		return nil, vaulterrors.Newf("Get", vaulterrors.ErrUpstreamFetch,
			"failed to get object from S3: %v", err)
	}
	defer result.Body.Close()

	payload, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, vaulterrors.Newf("Get", vaulterrors.ErrUpstreamFetch,
			"failed to read object body: %v", err)
	}
	return payload, nil
}

// Delete removes the payload for a locator.
func (s *Store) Delete(ctx context.Context, locator string) error {
	key, err := s.parseLocator(locator)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return vaulterrors.Newf("Delete", vaulterrors.ErrUpstreamFetch,
			"failed to delete object from S3: %v", err)
	}
	return nil
}

// parseLocator extracts the object key from a "s3:<bucket>/<key>"
// locator.
func (s *Store) parseLocator(locator string) (string, error) {
	rest, ok := strings.CutPrefix(locator, locatorPrefix)
	if !ok {
		return "", vaulterrors.Newf("parseLocator", vaulterrors.ErrValidation,
			"malformed locator %q", locator)
	}
	key, ok := strings.CutPrefix(rest, s.cfg.Bucket+"/")
	if !ok || key == "" {
		return "", vaulterrors.Newf("parseLocator", vaulterrors.ErrValidation,
			"malformed locator %q", locator)
	}
	return key, nil
}
