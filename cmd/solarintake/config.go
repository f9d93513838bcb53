package main

import (
	"context"
	"fmt"
	"time"

	"solarintake/internal/cep"
	"solarintake/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func loadConfig(cCtx *cli.Context) (*types.Config, error) {
	c := new(types.Config)
	if err := envconfig.Process(cCtx.String("env-prefix"), c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if c.ImageQuality <= 0 || c.ImageQuality > 1 {
		return nil, fmt.Errorf("IMAGE_QUALITY must be in (0, 1], got %v", c.ImageQuality)
	}

	switch c.SubmitTransport {
	case types.TransportLog:
	case types.TransportWebhook:
		if c.SubmitWebhookURL == "" {
			return nil, fmt.Errorf("set SUBMIT_WEBHOOK_URL for the webhook transport")
		}
	case types.TransportS3:
		if c.S3Bucket == "" {
			return nil, fmt.Errorf("set S3_BUCKET for the s3 transport")
		}
	case types.TransportPostgres:
		if c.DatabaseURL == "" {
			return nil, fmt.Errorf("set DATABASE_URL for the postgres transport")
		}
	default:
		return nil, fmt.Errorf("unknown SUBMIT_TRANSPORT %q", c.SubmitTransport)
	}

	return c, nil
}

func newLogger(c *types.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logger.WithError(err).Warn("invalid LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	config, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	return config, nil
}

// newLookuper builds the ViaCEP client, cached in Redis when REDIS_URL is
// set. The returned func closes the Redis client.
func newLookuper(ctx context.Context, c *types.Config, logger *logrus.Logger) (cep.Lookuper, func(), error) {
	client := cep.NewClient(c.CEPBaseURL, time.Duration(c.CEPTimeoutSec)*time.Second, logger)
	if c.RedisURL == "" {
		return client, func() {}, nil
	}

	opts, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	ttl := time.Duration(c.CEPCacheTTLSec) * time.Second
	return cep.NewCachedLookuper(client, rdb, ttl, logger), func() { _ = rdb.Close() }, nil
}
