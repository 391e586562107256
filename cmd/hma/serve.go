package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/urfave/cli/v2"

	"github.com/osaleh1i1/threatexchange/internal/telemetry"
	"github.com/osaleh1i1/threatexchange/pkg/aws"
)

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "Run the HTTP API on a local port, outside the lambda runtime.",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Value:   8080,
			Usage:   "Port to bind the server to.",
			EnvVars: []string{"HMA_PORT"},
			Action: func(c *cli.Context, v int) error {
				if v <= 0 || v > 65535 {
					return fmt.Errorf("invalid port: must be between 1 and 65535")
				}
				return nil
			},
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Usage:   "Run against local datastores under this directory instead of AWS services.",
			EnvVars: []string{"HMA_DATA_DIR"},
		},
		&cli.StringFlag{
			Name:    "endpoint",
			Usage:   "AWS-compatible endpoint (e.g. localstack) every service client talks to instead of AWS.",
			EnvVars: []string{"HMA_AWS_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:    "access-key-id",
			Usage:   "Static access key id for the endpoint.",
			EnvVars: []string{"HMA_AWS_ACCESS_KEY_ID"},
		},
		&cli.StringFlag{
			Name:    "secret-access-key",
			Usage:   "Static secret access key for the endpoint.",
			EnvVars: []string{"HMA_AWS_SECRET_ACCESS_KEY"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := cctx.Context

		var router http.Handler
		if dataDir := cctx.String("data-dir"); dataDir != "" {
			var err error
			router, err = buildLocalRouter(dataDir)
			if err != nil {
				return fmt.Errorf("constructing local router: %w", err)
			}
		} else {
			cfg := aws.FromEnv(ctx)
			telemetry.SetupErrorReporting(cfg.SentryDSN, cfg.SentryEnvironment)

			if endpoint := cctx.String("endpoint"); endpoint != "" {
				creds := credentials.NewStaticCredentialsProvider(
					cctx.String("access-key-id"),
					cctx.String("secret-access-key"),
					"",
				)
				cfg.S3Options = append(cfg.S3Options, func(opts *s3.Options) {
					opts.BaseEndpoint = &endpoint
					opts.UsePathStyle = true
					opts.Credentials = creds
				})
				cfg.DynamoOptions = append(cfg.DynamoOptions, func(opts *dynamodb.Options) {
					opts.BaseEndpoint = &endpoint
					opts.Credentials = creds
				})
				cfg.SNSOptions = append(cfg.SNSOptions, func(opts *sns.Options) {
					opts.BaseEndpoint = &endpoint
					opts.Credentials = creds
				})
				cfg.SQSOptions = append(cfg.SQSOptions, func(opts *sqs.Options) {
					opts.BaseEndpoint = &endpoint
					opts.Credentials = creds
				})
			}

			var err error
			router, err = aws.ConstructRouter(cfg)
			if err != nil {
				return fmt.Errorf("constructing router: %w", err)
			}
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cctx.Int("port")),
			Handler: router,
		}
		go func() {
			<-ctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
			defer cancel()
			if err := srv.Shutdown(stopCtx); err != nil {
				log.Errorf("shutting down server: %s", err)
			}
		}()

		log.Infof("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("running server: %w", err)
		}
		return nil
	},
}
