package lookup

import (
	"context"
	"strconv"

	"stellarelay/internal/constants"
	"stellarelay/internal/logger"
	"stellarelay/internal/settings"
	"stellarelay/pkg/metrics"
)

// SettingsSource yields the current runtime settings snapshot.
type SettingsSource interface {
	Snapshot() settings.Settings
}

// Service resolves a system's discovery status. Resolution order: the
// journal's own flag when lookups are switched off, then cache, then
// EDSM, then the journal flag again as a network-failure fallback.
type Service struct {
	client   *Client
	cache    Cache
	settings SettingsSource
	logger   logger.Logger
}

func NewService(client *Client, cache Cache, src SettingsSource, log logger.Logger) *Service {
	return &Service{
		client:   client,
		cache:    cache,
		settings: src,
		logger:   log,
	}
}

// Resolve returns the discovery flag for a system and the source it came
// from. journalValue is the event's own WasDiscovered field, nil when the
// journal did not carry one. Resolve never fails: when every source is
// exhausted it reports not found.
func (s *Service) Resolve(ctx context.Context, system string, address int64, journalValue *bool) (bool, string) {
	if !s.settings.Snapshot().SystemLookup || (system == "" && address == 0) {
		if journalValue != nil {
			metrics.LookupRequestsTotal.WithLabelValues(constants.DiscoverySourceJournal, "success").Inc()
			return *journalValue, constants.DiscoverySourceJournal
		}
		return false, constants.DiscoverySourceNotFound
	}

	if discovered, ok, err := s.cache.Get(ctx, cacheName(system, address)); err != nil {
		metrics.LookupCacheTotal.WithLabelValues("error").Inc()
		s.logger.WarnwCtx(ctx, "Discovery cache read failed", "system", system, "error", err)
	} else if ok {
		metrics.LookupCacheTotal.WithLabelValues("hit").Inc()
		return discovered, constants.DiscoverySourceEDSM
	} else {
		metrics.LookupCacheTotal.WithLabelValues("miss").Inc()
	}

	known, err := s.client.SystemKnown(ctx, system, address)
	if err == nil {
		if cerr := s.cache.Set(ctx, cacheName(system, address), known); cerr != nil {
			s.logger.WarnwCtx(ctx, "Discovery cache write failed", "system", system, "error", cerr)
		}
		return known, constants.DiscoverySourceEDSM
	}

	s.logger.WarnwCtx(ctx, "EDSM lookup failed, falling back to journal flag",
		"system", system,
		"error", err,
	)

	if journalValue != nil {
		metrics.LookupRequestsTotal.WithLabelValues(constants.DiscoverySourceJournalFallback, "success").Inc()
		return *journalValue, constants.DiscoverySourceJournalFallback
	}
	return false, constants.DiscoverySourceNotFound
}

// cacheName keys address-only lookups by id64 so bodies scanned before any
// jump event still share cache entries.
func cacheName(system string, address int64) string {
	if system != "" {
		return system
	}
	return strconv.FormatInt(address, 10)
}
