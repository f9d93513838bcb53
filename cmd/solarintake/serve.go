package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solarintake/internal/attachment"
	"solarintake/internal/db"
	"solarintake/internal/intake"
	"solarintake/internal/server"
	"solarintake/internal/storage"
	"solarintake/internal/store"
	"solarintake/internal/submit"
	"solarintake/pkg/types"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := loadConfig(cCtx)
	if err != nil {
		return err
	}

	logger := newLogger(config)

	lookuper, closeLookuper, err := newLookuper(ctx, config, logger)
	if err != nil {
		return err
	}
	defer closeLookuper()

	transport, closeTransport, err := newTransport(ctx, config, logger)
	if err != nil {
		return err
	}
	defer closeTransport()

	guard := attachment.NewGuard(config.MaxPayloadBytes, config.MaxFileBytes)
	normalizer := attachment.NewNormalizer(attachment.Options{
		MaxDimension: config.MaxImageDimension,
		Quality:      config.ImageQuality,
	})

	drafts := intake.NewRegistry(intake.Deps{
		Normalizer:   normalizer,
		Guard:        guard,
		Logger:       logger,
		SlotMaxFiles: config.SlotMaxFiles,
	}, time.Duration(config.DraftMaxAgeSec)*time.Second)

	srv, err := server.New(config, logger, drafts, lookuper, transport, guard)
	if err != nil {
		return err
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":      config.ServerPort,
			"transport": transport.Name(),
		}).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

// newTransport builds the configured submission transport. The returned
// func releases whatever connections it holds.
func newTransport(ctx context.Context, config *types.Config, logger *logrus.Logger) (submit.Transport, func(), error) {
	switch config.SubmitTransport {
	case types.TransportWebhook:
		client := &http.Client{Timeout: time.Duration(config.WriteTimeoutSec) * time.Second}
		return submit.NewWebhookTransport(config.SubmitWebhookURL, client, logger), func() {}, nil

	case types.TransportS3:
		awsConfig, err := loadAWSConfig(ctx)
		if err != nil {
			return nil, nil, err
		}
		archive := storage.NewArchive(s3.NewFromConfig(awsConfig), config.S3Bucket, config.S3Prefix)
		return submit.NewS3Transport(archive), func() {}, nil

	case types.TransportPostgres:
		pool, err := db.Connect(ctx, config)
		if err != nil {
			return nil, nil, err
		}
		return submit.NewPostgresTransport(store.NewSubmissionRepository(pool)), pool.Close, nil

	case types.TransportLog:
		delay := time.Duration(config.SubmitSimulatedDelayMS) * time.Millisecond
		return submit.NewLogTransport(logger, delay), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown submit transport %q", config.SubmitTransport)
}
