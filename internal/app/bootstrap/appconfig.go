// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// the framework settings (ports, TLS, logging, CORS); everything specific
// to Pathway lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64

	// Bearer token verification. Tokens are issued by the identity
	// provider and signed with JWTSecret (HS256).
	JWTSecret   string
	JWTIssuer   string // blank skips the iss check
	JWTAudience string // blank skips the aud check

	// Realtime change events. Blank NATSURL disables publishing.
	NATSURL           string
	NATSSubjectPrefix string

	// Web Push (VAPID). Both keys blank disables push delivery.
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string
	PushWorkers     int
	PushQueueSize   int

	// BaseURL is the public origin of the web client.
	BaseURL string

	// Read notifications older than this are deleted.
	NotificationRetention time.Duration

	// Invite code attempts allowed per user in JoinRateWindow.
	JoinRateLimit  int
	JoinRateWindow time.Duration

	// CurriculumPath overrides the embedded curriculum YAML.
	CurriculumPath string

	// Request timeouts (see system/timeouts).
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
