package config

import "time"

// Application constants
const (
	// Application Info
	AppName    = "licport"
	AppVersion = "1.0.0"

	// Storage drivers
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"

	// Pagination
	DefaultPageLimit = 100
	MaxPageLimit     = 100

	// Network Timeouts
	DefaultHTTPTimeout = 30 * time.Second
	StorePingTimeout   = 5 * time.Second

	// Rate Limiting
	DefaultRateLimit = 100
	DefaultBurstSize = 50

	// API Endpoints
	APIBasePath        = "/api/v1"
	LicensesEndpoint   = "/api/v1/licenses"
	VerifyEndpoint     = "/api/v1/verify"
	HealthEndpoint     = "/healthz"
	MetricsEndpoint    = "/metrics"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
