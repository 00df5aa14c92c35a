// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	healthfeature "github.com/dalemusser/pathway/internal/app/features/health"
	messagesfeature "github.com/dalemusser/pathway/internal/app/features/messages"
	notificationsfeature "github.com/dalemusser/pathway/internal/app/features/notifications"
	pairingsfeature "github.com/dalemusser/pathway/internal/app/features/pairings"
	profilefeature "github.com/dalemusser/pathway/internal/app/features/profile"
	pushfeature "github.com/dalemusser/pathway/internal/app/features/push"
	weeksfeature "github.com/dalemusser/pathway/internal/app/features/weeks"
	"github.com/dalemusser/pathway/internal/app/system/auth"
	"github.com/dalemusser/pathway/internal/app/system/metrics"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed, so deps.Runtime holds the services.
//
// Every route except /health and /metrics requires a verified bearer
// token. Pairing sub-resources are mounted under /pairings/{pairingID}.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	rt := deps.Runtime
	if rt == nil || rt.Services == nil {
		return nil, errors.New("build handler: Startup has not run")
	}
	db := deps.PathwayMongoDatabase

	r := chi.NewRouter()

	// Global auth middleware: loads the token's user into context when a
	// valid bearer token is present.
	r.Use(rt.Verifier.LoadUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.PathwayMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", metrics.Handler(rt.Metrics, logger))

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)

		profileHandler := profilefeature.NewHandler(db, rt.Services.Onboarding, logger)
		r.Mount("/profile", profilefeature.Routes(profileHandler))

		r.Route("/pairings", func(r chi.Router) {
			weeksHandler := weeksfeature.NewHandler(db, rt.Services.Progress, logger)
			r.Mount("/{pairingID}/weeks", weeksfeature.Routes(weeksHandler))

			messagesHandler := messagesfeature.NewHandler(db, rt.Services.Messaging, logger)
			r.Mount("/{pairingID}/messages", messagesfeature.Routes(messagesHandler))

			pairingsHandler := pairingsfeature.NewHandler(db, rt.Services, rt.Joins, logger)
			r.Mount("/", pairingsfeature.Routes(pairingsHandler))
		})

		notificationsHandler := notificationsfeature.NewHandler(db, logger)
		r.Mount("/notifications", notificationsfeature.Routes(notificationsHandler))

		pushHandler := pushfeature.NewHandler(db, appCfg.VAPIDPublicKey, logger)
		r.Mount("/push", pushfeature.Routes(pushHandler))
	})

	logger.Info("routes mounted")
	return r, nil
}
