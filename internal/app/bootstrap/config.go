// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minSecretLen is the shortest JWT secret accepted outside dev.
const minSecretLen = 32

// appConfigKeys defines the configuration keys for Pathway.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: PATHWAY_MONGO_URI, PATHWAY_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "pathway", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},

	// Bearer tokens
	{Name: "jwt_secret", Default: "", Desc: "HS256 secret shared with the identity provider"},
	{Name: "jwt_issuer", Default: "", Desc: "Expected token issuer (blank skips the check)"},
	{Name: "jwt_audience", Default: "authenticated", Desc: "Expected token audience (blank skips the check)"},

	// Realtime
	{Name: "nats_url", Default: "", Desc: "NATS server URL for change events (blank disables)"},
	{Name: "nats_subject_prefix", Default: "pathway", Desc: "Subject prefix for change events"},

	// Web Push
	{Name: "vapid_public_key", Default: "", Desc: "VAPID public key"},
	{Name: "vapid_private_key", Default: "", Desc: "VAPID private key"},
	{Name: "vapid_subscriber", Default: "mailto:admin@localhost", Desc: "VAPID subscriber contact (mailto: or https:)"},
	{Name: "push_workers", Default: 4, Desc: "Concurrent push deliveries"},
	{Name: "push_queue_size", Default: 256, Desc: "Pending push jobs before new ones are dropped"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public origin of the web client"},
	{Name: "notification_retention", Default: "2160h", Desc: "How long read notifications are kept (e.g., 2160h)"},

	// Invite code rate limiting
	{Name: "join_rate_limit", Default: 10, Desc: "Invite code attempts per user per window"},
	{Name: "join_rate_window", Default: "15m", Desc: "Invite code rate limit window"},

	{Name: "curriculum_path", Default: "", Desc: "Curriculum YAML file (blank uses the built-in curriculum)"},

	// Request timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for multi-step operations"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for background batch work"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, PATHWAY_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PATHWAY", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),

		JWTSecret:   appValues.String("jwt_secret"),
		JWTIssuer:   appValues.String("jwt_issuer"),
		JWTAudience: appValues.String("jwt_audience"),

		NATSURL:           appValues.String("nats_url"),
		NATSSubjectPrefix: appValues.String("nats_subject_prefix"),

		VAPIDPublicKey:  appValues.String("vapid_public_key"),
		VAPIDPrivateKey: appValues.String("vapid_private_key"),
		VAPIDSubscriber: appValues.String("vapid_subscriber"),
		PushWorkers:     appValues.Int("push_workers"),
		PushQueueSize:   appValues.Int("push_queue_size"),

		BaseURL:               appValues.String("base_url"),
		NotificationRetention: appValues.Duration("notification_retention", 90*24*time.Hour),

		JoinRateLimit:  appValues.Int("join_rate_limit"),
		JoinRateWindow: appValues.Duration("join_rate_window", 15*time.Minute),

		CurriculumPath: appValues.String("curriculum_path"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI is checked before any connection attempt.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(coreCfg.Env, appCfg)
}

// validateApp holds the checks that do not need WAFFLE's core config.
func validateApp(env string, appCfg AppConfig) error {
	if appCfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if env != "dev" && len(appCfg.JWTSecret) < minSecretLen {
		return fmt.Errorf("jwt_secret must be at least %d bytes outside dev", minSecretLen)
	}
	if (appCfg.VAPIDPublicKey == "") != (appCfg.VAPIDPrivateKey == "") {
		return fmt.Errorf("vapid_public_key and vapid_private_key must be set together")
	}
	if appCfg.JoinRateLimit <= 0 {
		return fmt.Errorf("join_rate_limit must be positive")
	}
	if appCfg.PushWorkers <= 0 || appCfg.PushQueueSize <= 0 {
		return fmt.Errorf("push_workers and push_queue_size must be positive")
	}
	return nil
}
