// Package config holds the default values of command-line flags.
package config

import "time"

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag or environment
	// unless the server runs with --in-memory.
	DefaultDatabaseURL = ""

	// DefaultLogLevel is the default slog level name.
	DefaultLogLevel = "info"

	// DefaultBlobDir is where attachment files are written.
	DefaultBlobDir = "data/attachments"

	// DefaultRedisURL is empty; the unread count cache is disabled without it.
	DefaultRedisURL = ""

	// DefaultUnreadCacheTTL bounds how long a cached unread count may be served.
	DefaultUnreadCacheTTL = 5 * time.Minute

	// DefaultMaxConns is the PostgreSQL pool size.
	DefaultMaxConns = 10

	// ShutdownTimeout is how long in-flight requests get to finish on shutdown.
	ShutdownTimeout = 10 * time.Second
)

// Demo seed used by serve --in-memory. The tokens are public and must never
// be used against a real database.
const (
	DemoProjectName      = "Demo"
	DemoLeadToken        = "demo-lead-token"
	DemoMemberToken      = "demo-member-token"
	DemoContributorToken = "demo-contributor-token"
)
