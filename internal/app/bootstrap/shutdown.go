// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the workers, drains queued pushes, closes realtime
// publishing, and disconnects MongoDB last.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if rt := deps.Runtime; rt != nil {
		if rt.cleanup != nil {
			rt.cleanup.Stop()
		}
		if rt.push != nil {
			logger.Info("draining push queue")
			rt.push.Stop()
		}
		if rt.Joins != nil {
			rt.Joins.Close()
		}
		if rt.Realtime != nil {
			rt.Realtime.Close()
		}
	}

	if deps.PathwayMongoClient != nil {
		logger.Info("disconnecting Pathway MongoDB client")
		if err := deps.PathwayMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
