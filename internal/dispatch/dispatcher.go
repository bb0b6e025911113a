// Package dispatch runs the event pipeline: raw journal event in, at
// most one delivered canonical event out.
package dispatch

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"stellarelay/internal/constants"
	"stellarelay/internal/journal"
	"stellarelay/internal/logger"
	"stellarelay/internal/mapper"
	"stellarelay/internal/settings"
	"stellarelay/pkg/logging"
	"stellarelay/pkg/metrics"
	"stellarelay/pkg/models"
)

// Sender delivers one canonical event under a settings snapshot.
type Sender interface {
	Send(ctx context.Context, event *models.CanonicalEvent, snap settings.Settings)
}

// DiscoveryResolver reports whether a system was already discovered and
// which source answered.
type DiscoveryResolver interface {
	Resolve(ctx context.Context, system string, address int64, journalValue *bool) (bool, string)
}

// EventFilter vets raw events before mapping.
type EventFilter interface {
	Allow(ctx context.Context, raw journal.RawEvent) bool
}

// SettingsSource yields the current runtime settings snapshot.
type SettingsSource interface {
	Snapshot() settings.Settings
}

// PayloadRecorder receives every mapped payload, delivered or not.
type PayloadRecorder interface {
	Record(entryType string, v interface{}) error
}

type Dispatcher struct {
	sender   Sender
	resolver DiscoveryResolver
	filter   EventFilter
	settings SettingsSource
	recorder PayloadRecorder
	logger   logger.Logger

	// commander and system are only touched from the dispatch loop goroutine.
	commander string
	system    string
}

func NewDispatcher(sender Sender, resolver DiscoveryResolver, filter EventFilter, src SettingsSource, recorder PayloadRecorder, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		sender:   sender,
		resolver: resolver,
		filter:   filter,
		settings: src,
		recorder: recorder,
		logger:   log,
	}
}

// Run consumes raw events until the channel closes or ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, events <-chan journal.RawEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-events:
			if !ok {
				return nil
			}
			d.Handle(ctx, raw)
		}
	}
}

// Handle processes one raw journal event end to end. It never returns an
// error: a bad event is counted, logged, and dropped.
func (d *Dispatcher) Handle(ctx context.Context, raw journal.RawEvent) {
	d.trackSession(raw)

	// One settings snapshot per event: an admin update mid-pipeline must
	// not give a single event a mixed view.
	snap := d.settings.Snapshot()
	if !snap.Enabled {
		metrics.JournalEventsTotal.WithLabelValues(raw.Name, "disabled").Inc()
		return
	}

	if !mapper.IsWatched(raw.Name) {
		metrics.JournalEventsTotal.WithLabelValues(raw.Name, "ignored").Inc()
		return
	}

	ctx = logging.WithEventID(ctx, uuid.NewString())

	if d.filter != nil && !d.filter.Allow(ctx, raw) {
		metrics.JournalEventsTotal.WithLabelValues(raw.Name, "filtered").Inc()
		d.logger.DebugwCtx(ctx, "Event rejected by filter rules", "event", raw.Name)
		return
	}

	event, err := mapper.Map(raw, d.commander)
	if err != nil {
		metrics.JournalEventsTotal.WithLabelValues(raw.Name, "error").Inc()
		d.logger.WarnwCtx(ctx, "Failed to map journal event", "event", raw.Name, "error", err)
		return
	}
	if event == nil {
		metrics.JournalEventsTotal.WithLabelValues(raw.Name, "ignored").Inc()
		return
	}

	metrics.JournalEventsTotal.WithLabelValues(raw.Name, "mapped").Inc()
	metrics.MappedPayloadsTotal.WithLabelValues(string(event.EventType)).Inc()

	d.enrichDiscovery(ctx, event)

	// Mapped payloads are logged whether or not delivery goes anywhere.
	if d.recorder != nil {
		if err := d.recorder.Record("payload", event); err != nil {
			d.logger.WarnwCtx(ctx, "Failed to record mapped payload", "error", err)
		}
	}

	if snap.DevMode {
		if dump, err := json.Marshal(event); err == nil {
			d.logger.InfowCtx(ctx, "Developer mode payload",
				"event_type", event.EventType,
				"payload", string(dump),
			)
		}
	}

	d.sender.Send(ctx, event, snap)
}

// enrichDiscovery folds the resolved discovery status into the payload. A
// not-found answer adds nothing; the payload keeps whatever the journal
// said, including its absence.
func (d *Dispatcher) enrichDiscovery(ctx context.Context, event *models.CanonicalEvent) {
	switch data := event.Data.(type) {
	case *models.SystemEntryData:
		discovered, source := d.resolver.Resolve(ctx, data.System, data.SystemAddress, data.WasDiscovered)
		if source != constants.DiscoverySourceNotFound {
			data.WasDiscovered = &discovered
			data.DiscoverySource = source
		}
	case *models.StellarScanData:
		d.enrichScan(ctx, &data.BodyScanData)
	case *models.PlanetaryScanData:
		d.enrichScan(ctx, &data.BodyScanData)
	case *models.AsteroidScanData:
		d.enrichScan(ctx, &data.BodyScanData)
	case *models.SAASignalsData:
		discovered, source := d.resolver.Resolve(ctx, d.system, data.SystemAddress, data.WasDiscovered)
		if source != constants.DiscoverySourceNotFound {
			data.WasDiscovered = &discovered
			data.DiscoverySource = source
		}
	}
}

func (d *Dispatcher) enrichScan(ctx context.Context, body *models.BodyScanData) {
	discovered, source := d.resolver.Resolve(ctx, d.system, body.SystemAddress, body.WasDiscovered)
	if source != constants.DiscoverySourceNotFound {
		body.WasDiscovered = &discovered
		body.DiscoverySource = source
	}
}

// trackSession remembers the active commander and current star system from
// session events. Scan payloads carry only a system address, so discovery
// lookups for them lean on the last known system name.
func (d *Dispatcher) trackSession(raw journal.RawEvent) {
	switch raw.Name {
	case "Commander":
		if name := raw.StringField("Name"); name != "" {
			d.commander = name
		}
	case "LoadGame":
		if name := raw.StringField("Commander"); name != "" {
			d.commander = name
		}
	case "FSDJump", "CarrierJump", "Location":
		if system := raw.StringField("StarSystem"); system != "" {
			d.system = system
		}
	}
}
