// Package export uploads cost reports to S3.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/tsanders-rh/dockctl/internal/cost"
)

// Config holds S3 export configuration
type Config struct {
	// Bucket is the destination bucket; empty disables export
	Bucket string `yaml:"bucket" env:"BUCKET"`
	Prefix string `yaml:"prefix" env:"PREFIX"`
	Region string `yaml:"region" env:"REGION"`
	// Endpoint overrides the S3 endpoint for S3-compatible stores
	Endpoint     string `yaml:"endpoint" env:"ENDPOINT"`
	UsePathStyle bool   `yaml:"use_path_style" env:"USE_PATH_STYLE"`

	// MaxAttempts bounds upload attempts per report, backing off exponentially from RetryInterval
	MaxAttempts   int           `yaml:"max_attempts" env:"MAX_ATTEMPTS" validate:"gte=0"`
	RetryInterval time.Duration `yaml:"retry_interval" env:"RETRY_INTERVAL" validate:"gte=0"`
}

// DefaultConfig returns default export configuration
func DefaultConfig() *Config {
	return &Config{
		Prefix:        "cost-reports",
		MaxAttempts:   3,
		RetryInterval: time.Second,
	}
}

// Enabled returns true if a bucket is configured
func (c *Config) Enabled() bool {
	return c.Bucket != ""
}

// ObjectPutter is the S3 call the exporter needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// IdentityGetter is the STS call used to verify credentials
type IdentityGetter interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Document is the exported JSON body
type Document struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Report      *cost.Report `json:"report"`
}

// Exporter writes cost reports to s3://<bucket>/<prefix>/<timestamp>.json
type Exporter struct {
	config   *Config
	s3       ObjectPutter
	identity IdentityGetter
	logger   *zap.Logger
	now      func() time.Time
}

// New creates an exporter from the default AWS credential chain
func New(ctx context.Context, cfg *Config, logger *zap.Logger) (*Exporter, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewWithClients(cfg, client, sts.NewFromConfig(awsCfg), logger), nil
}

// NewWithClients creates an exporter over existing clients
func NewWithClients(cfg *Config, putter ObjectPutter, identity IdentityGetter, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		config:   cfg,
		s3:       putter,
		identity: identity,
		logger:   logger,
		now:      time.Now,
	}
}

// VerifyCredentials checks that the configured credentials resolve to an identity
func (e *Exporter) VerifyCredentials(ctx context.Context) error {
	out, err := e.identity.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("failed to verify AWS credentials: %w", err)
	}

	e.logger.Info("AWS credentials verified",
		zap.String("account", aws.ToString(out.Account)),
		zap.String("arn", aws.ToString(out.Arn)))
	return nil
}

// Export uploads report and returns the object URI
func (e *Exporter) Export(ctx context.Context, report *cost.Report) (string, error) {
	now := e.now().UTC()

	body, err := json.MarshalIndent(Document{GeneratedAt: now, Report: report}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal cost report: %w", err)
	}

	key := ObjectKey(e.config.Prefix, now)
	upload := func() error {
		_, err := e.s3.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(e.config.Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("application/json"),
		})
		return err
	}

	err = backoff.RetryNotify(upload, e.retryPolicy(ctx), func(err error, wait time.Duration) {
		e.logger.Warn("cost report upload failed, will retry",
			zap.String("key", key),
			zap.Duration("retry_in", wait),
			zap.Error(err))
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload cost report: %w", err)
	}

	uri := fmt.Sprintf("s3://%s/%s", e.config.Bucket, key)
	e.logger.Info("cost report exported", zap.String("uri", uri))
	return uri, nil
}

func (e *Exporter) retryPolicy(ctx context.Context) backoff.BackOff {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = e.config.RetryInterval
	expBackoff.MaxElapsedTime = 0

	retries := uint64(0)
	if e.config.MaxAttempts > 1 {
		retries = uint64(e.config.MaxAttempts - 1)
	}
	return backoff.WithContext(backoff.WithMaxRetries(expBackoff, retries), ctx)
}

// ObjectKey builds the object key for a report generated at t
func ObjectKey(prefix string, t time.Time) string {
	return path.Join(prefix, t.UTC().Format("20060102T150405Z")+".json")
}
