package constants

import "time"

const (
	RelayName    = "stellar-relay"
	RelayVersion = "0.6.0"
)

const (
	// DeliveryEndpointPath is appended to the configured API base URL.
	DeliveryEndpointPath = "/exploration/events"

	EDSMSystemPath     = "/api-v1/system"
	DefaultEDSMBaseURL = "https://www.edsm.net"
)

const (
	DefaultHTTPTimeout   = 10 * time.Second
	DeliveryDrainTimeout = 5 * time.Second
	ShutdownTimeout      = 5 * time.Second
)

const (
	CacheKeyPrefixDiscovery = "discovery:"
	DefaultLookupTTLSeconds = 3600
)

const (
	DefaultPayloadLogMaxSizeMB  = 5
	DefaultPayloadLogMaxBackups = 3
)

const (
	FallbackAllow = "allow"
	FallbackDeny  = "deny"
)

const (
	DiscoverySourceEDSM            = "EDSM"
	DiscoverySourceJournal         = "journal"
	DiscoverySourceJournalFallback = "journal_fallback"
	DiscoverySourceNotFound        = "not_found"
)
