// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/pathway/internal/app/services"
	notificationstore "github.com/dalemusser/pathway/internal/app/store/notifications"
	pushsubstore "github.com/dalemusser/pathway/internal/app/store/pushsubs"
	"github.com/dalemusser/pathway/internal/app/system/auth"
	"github.com/dalemusser/pathway/internal/app/system/metrics"
	"github.com/dalemusser/pathway/internal/app/system/push"
	"github.com/dalemusser/pathway/internal/app/system/ratelimit"
	"github.com/dalemusser/pathway/internal/app/system/realtime"
	"github.com/dalemusser/pathway/internal/app/system/timeouts"
	"github.com/dalemusser/pathway/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// cleanupInterval is how often read notifications are pruned.
const cleanupInterval = time.Hour

// Runtime holds the long-lived objects built in Startup and torn down in
// Shutdown.
type Runtime struct {
	Services *services.Set
	Realtime realtime.Publisher
	Verifier *auth.Verifier
	Joins    *ratelimit.JoinLimiter
	Metrics  *prometheus.Registry

	push    *workers.PushDispatcher
	cleanup *workers.NotificationCleanup
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It
// connects realtime publishing, starts the background workers, and wires
// the domain services.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	rt := deps.Runtime
	if rt == nil {
		return errors.New("startup: DBDeps.Runtime is nil")
	}
	db := deps.PathwayMongoDatabase

	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	rt.Realtime = realtime.Nop{}
	if appCfg.NATSURL != "" {
		nc, err := realtime.Connect(appCfg.NATSURL, appCfg.NATSSubjectPrefix, logger)
		if err != nil {
			logger.Error("nats connect failed", zap.String("url", appCfg.NATSURL), zap.Error(err))
			return err
		}
		rt.Realtime = nc
		logger.Info("realtime events enabled", zap.String("prefix", appCfg.NATSSubjectPrefix))
	}

	vapid := push.VAPIDConfig{
		PublicKey:  appCfg.VAPIDPublicKey,
		PrivateKey: appCfg.VAPIDPrivateKey,
		Subscriber: appCfg.VAPIDSubscriber,
	}
	var sender push.Sender
	if vapid.Enabled() {
		sender = push.NewWebPushSender(vapid)
	} else {
		logger.Info("web push disabled: no VAPID keys configured")
	}
	rt.push = workers.NewPushDispatcher(
		push.NewDeliverer(pushsubstore.New(db), sender, logger),
		logger, appCfg.PushWorkers, appCfg.PushQueueSize)
	rt.push.Start()

	rt.Services = services.New(db, rt.push, rt.Realtime, logger)

	rt.cleanup = workers.NewNotificationCleanup(notificationstore.New(db), logger, cleanupInterval, appCfg.NotificationRetention)
	rt.cleanup.Start()

	rt.Joins = ratelimit.NewJoinLimiter(appCfg.JoinRateLimit, appCfg.JoinRateWindow)
	rt.Verifier = auth.NewVerifier(appCfg.JWTSecret, appCfg.JWTIssuer, appCfg.JWTAudience, logger)
	rt.Metrics = metrics.NewRegistry()

	logger.Info("pathway started",
		zap.String("env", coreCfg.Env),
		zap.Int("push_workers", appCfg.PushWorkers))
	return nil
}
