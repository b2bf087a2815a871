package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"content-importer/core/config"
	"content-importer/core/logger"
	"content-importer/core/storage"
	"content-importer/feature/assets"

	"go.uber.org/zap"
)

// setup loads the configuration and builds the application logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, l, nil
}

// openSink builds the asset sink for the configured backend. The s3 backend
// creates its bucket when missing.
func openSink(ctx context.Context, cfg *config.Config) (assets.Sink, error) {
	if cfg.Assets.Backend != config.BackendS3 {
		return assets.NewLocalSink(cfg.Assets.LocalDir, cfg.Assets.PublicPrefix), nil
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage: %w", err)
	}
	if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
		return nil, fmt.Errorf("failed to prepare bucket %s: %w", cfg.Storage.Bucket, err)
	}
	return assets.NewObjectSink(client, cfg.Storage.Bucket, cfg.Assets.PublicPrefix), nil
}

// confirm prompts the user unless assumeYes is set.
func confirm(prompt string, assumeYes bool) bool {
	if assumeYes {
		return true
	}

	fmt.Printf("%s Type 'yes' to continue: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}
