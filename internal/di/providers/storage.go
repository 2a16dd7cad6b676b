package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/listenupapp/bookstore-server/internal/config"
	"github.com/listenupapp/bookstore-server/internal/logger"
	"github.com/listenupapp/bookstore-server/internal/media/files"
)

// ProvideFileStorage provides the upload storage selected by configuration.
func ProvideFileStorage(i do.Injector) (files.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Storage.Driver {
	case config.StorageMinio:
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		storage, err := files.NewMinioStorage(ctx, files.MinioConfig{
			Endpoint:  cfg.Storage.MinioEndpoint,
			AccessKey: cfg.Storage.MinioAccessKey,
			SecretKey: cfg.Storage.MinioSecretKey,
			Bucket:    cfg.Storage.MinioBucket,
			UseSSL:    cfg.Storage.MinioUseSSL,
		})
		if err != nil {
			return nil, err
		}
		log.Info("File storage initialized", "driver", config.StorageMinio,
			"endpoint", cfg.Storage.MinioEndpoint, "bucket", cfg.Storage.MinioBucket)
		return storage, nil

	case config.StorageLocal:
		storage, err := files.NewLocalStorage(cfg.Data.PublicPath())
		if err != nil {
			return nil, err
		}
		log.Info("File storage initialized", "driver", config.StorageLocal, "path", storage.Root())
		return storage, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
