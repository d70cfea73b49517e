package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel    = "info"
	DefaultJSONLog     = false
	DefaultUserAgent   = "Relay/1.0 (https://github.com/yishe-labs/relay)"
	DefaultHTTPTimeout = 30 * time.Second

	DefaultPageSize  = 20
	DefaultPageDelay = 2 * time.Second

	DefaultAssetRateLimitRPS   = 5.0
	DefaultAssetRateLimitBurst = 10

	DefaultListPath    = "/api/admin-api/asset/material-management/page"
	DefaultRefreshPath = "/api/admin-api/system/auth/refresh-token"

	// DefaultConfigDir holds the config file, checkpoint and audit logs
	// under the user's home directory.
	DefaultConfigDir = ".relay"
)
