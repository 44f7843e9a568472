package objectstore

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/archstore/internal/config"
)

// Module provides the presigner selected by the configured storage mode.
var Module = fx.Provide(newPresigner)

type presignerParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

func newPresigner(p presignerParams) (Presigner, error) {
	switch p.Config.StorageMode {
	case config.StorageModeOffline:
		p.Logger.Warn("download links are served in offline mode", slog.String("base_url", p.Config.OfflineBaseURL))
		return NewOfflinePresigner(p.Config.OfflineBaseURL)
	case config.StorageModeS3, "":
		return NewS3Presigner(p.Ctx, S3Options{
			Region:          p.Config.AWSRegion,
			Bucket:          p.Config.AWSBucketName,
			AccessKeyID:     p.Config.AWSAccessKeyID,
			SecretAccessKey: p.Config.AWSSecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown storage mode %q", p.Config.StorageMode)
	}
}
