// Package mapper converts raw journal events into the canonical payloads
// accepted by the exploration API. Mapping is pure: the same raw event and
// commander always produce the same canonical event, or nothing at all.
package mapper

import (
	"encoding/json"
	"fmt"
	"time"

	"stellarelay/internal/journal"
	"stellarelay/pkg/models"
)

const (
	EventFSDJump         = "FSDJump"
	EventCarrierJump     = "CarrierJump"
	EventScan            = "Scan"
	EventSAASignalsFound = "SAASignalsFound"
)

var watched = map[string]bool{
	EventFSDJump:         true,
	EventCarrierJump:     true,
	EventScan:            true,
	EventSAASignalsFound: true,
}

// IsWatched reports whether an event name can ever produce a canonical
// event. The set is closed; there is no catch-all mapping.
func IsWatched(name string) bool {
	return watched[name]
}

// Map builds exactly one CanonicalEvent from a watched raw event, or
// returns (nil, nil) for event names outside the watched set. An error
// means the event was watched but could not be mapped (bad timestamp,
// undecodable fields); callers log and drop it.
func Map(raw journal.RawEvent, commander string) (*models.CanonicalEvent, error) {
	if !IsWatched(raw.Name) {
		return nil, nil
	}

	timestamp, err := NormalizeTimestamp(raw.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", raw.Name, err)
	}

	switch raw.Name {
	case EventFSDJump:
		return buildSystemEntry(raw, commander, timestamp, false)
	case EventCarrierJump:
		return buildSystemEntry(raw, commander, timestamp, true)
	case EventScan:
		return buildScan(raw, commander, timestamp)
	case EventSAASignalsFound:
		return buildSAASignals(raw, commander, timestamp)
	}
	return nil, nil
}

// NormalizeTimestamp parses a journal timestamp and re-emits it as
// RFC 3339 UTC. Normalizing an already-normalized value is a no-op.
func NormalizeTimestamp(ts string) (string, error) {
	if ts == "" {
		return "", fmt.Errorf("missing timestamp")
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return "", fmt.Errorf("unparsable timestamp %q: %w", ts, err)
	}
	return t.UTC().Format(time.RFC3339), nil
}

// fsdJumpEvent covers the fields shared by FSDJump and CarrierJump.
type fsdJumpEvent struct {
	StarSystem    string    `json:"StarSystem"`
	SystemAddress int64     `json:"SystemAddress"`
	StarPos       []float64 `json:"StarPos"`
	WasDiscovered *bool     `json:"WasDiscovered"`
	Body          string    `json:"Body"`
	BodyID        *int      `json:"BodyID"`
	BodyType      string    `json:"BodyType"`
}

func buildSystemEntry(raw journal.RawEvent, commander, timestamp string, carrier bool) (*models.CanonicalEvent, error) {
	var entry fsdJumpEvent
	if err := json.Unmarshal(raw.Line, &entry); err != nil {
		return nil, fmt.Errorf("event %s: %w", raw.Name, err)
	}
	if entry.StarSystem == "" {
		return nil, fmt.Errorf("event %s: missing StarSystem", raw.Name)
	}

	data := &models.SystemEntryData{
		System:        entry.StarSystem,
		Coordinates:   entry.StarPos,
		SystemAddress: entry.SystemAddress,
		BodyName:      entry.Body,
		BodyID:        entry.BodyID,
		Commander:     commander,
	}

	if carrier {
		// CarrierJump reports the destination; the journal value for
		// WasDiscovered is not meaningful there.
		data.BodyType = entry.BodyType
	} else {
		data.WasDiscovered = entry.WasDiscovered
	}

	return &models.CanonicalEvent{
		EventType: models.EventTypeSystemEntry,
		Timestamp: timestamp,
		Data:      data,
	}, nil
}

type scanEvent struct {
	BodyName              string           `json:"BodyName"`
	BodyID                *int             `json:"BodyID"`
	SystemAddress         int64            `json:"SystemAddress"`
	DistanceFromArrivalLS *float64         `json:"DistanceFromArrivalLS"`
	WasDiscovered         *bool            `json:"WasDiscovered"`
	WasMapped             *bool            `json:"WasMapped"`
	Parents               []map[string]int `json:"Parents"`

	StarType          string   `json:"StarType"`
	Subclass          *int     `json:"Subclass"`
	StellarMass       *float64 `json:"StellarMass"`
	AbsoluteMagnitude *float64 `json:"AbsoluteMagnitude"`
	AgeMY             *int64   `json:"Age_MY"`
	Luminosity        string   `json:"Luminosity"`

	PlanetClass           string                 `json:"PlanetClass"`
	TerraformState        string                 `json:"TerraformState"`
	AtmosphereType        string                 `json:"AtmosphereType"`
	AtmosphereComposition []journalMaterialShare `json:"AtmosphereComposition"`
	Volcanism             string                 `json:"Volcanism"`
	MassEM                *float64               `json:"MassEM"`
	SurfaceGravity        *float64               `json:"SurfaceGravity"`
	SurfacePressure       *float64               `json:"SurfacePressure"`
	Landable              *bool                  `json:"Landable"`
	Materials             []journalMaterialShare `json:"Materials"`
	Composition           map[string]float64     `json:"Composition"`
	TidalLock             *bool                  `json:"TidalLock"`
	ReserveLevel          string                 `json:"ReserveLevel"`

	Radius             *float64 `json:"Radius"`
	SurfaceTemperature *float64 `json:"SurfaceTemperature"`
	RotationPeriod     *float64 `json:"RotationPeriod"`
	AxialTilt          *float64 `json:"AxialTilt"`

	SemiMajorAxis      *float64 `json:"SemiMajorAxis"`
	Eccentricity       *float64 `json:"Eccentricity"`
	OrbitalInclination *float64 `json:"OrbitalInclination"`
	Periapsis          *float64 `json:"Periapsis"`
	OrbitalPeriod      *float64 `json:"OrbitalPeriod"`

	Rings []journalRing `json:"Rings"`
}

type journalMaterialShare struct {
	Name    string  `json:"Name"`
	Percent float64 `json:"Percent"`
}

type journalRing struct {
	Name      string   `json:"Name"`
	RingClass string   `json:"RingClass"`
	MassMT    *float64 `json:"MassMT"`
	InnerRad  *float64 `json:"InnerRad"`
	OuterRad  *float64 `json:"OuterRad"`
}

// classifyScan picks the scan variant. The order is contractual: a body
// carrying both stellar and planetary signals is a star, and anything
// without either signal falls through to AsteroidClusterScan.
func classifyScan(entry scanEvent) models.EventType {
	if entry.StarType != "" {
		return models.EventTypeStellarScan
	}
	if entry.PlanetClass != "" {
		return models.EventTypePlanetaryScan
	}
	return models.EventTypeAsteroidScan
}

func buildScan(raw journal.RawEvent, commander, timestamp string) (*models.CanonicalEvent, error) {
	var entry scanEvent
	if err := json.Unmarshal(raw.Line, &entry); err != nil {
		return nil, fmt.Errorf("event Scan: %w", err)
	}
	if entry.BodyName == "" {
		return nil, fmt.Errorf("event Scan: missing BodyName")
	}

	eventType := classifyScan(entry)

	base := models.BodyScanData{
		BodyName:              entry.BodyName,
		BodyID:                entry.BodyID,
		SystemAddress:         entry.SystemAddress,
		DistanceFromArrivalLS: entry.DistanceFromArrivalLS,
		WasDiscovered:         entry.WasDiscovered,
		WasMapped:             entry.WasMapped,
		Parents:               entry.Parents,
		Commander:             commander,
	}

	var data interface{}
	switch eventType {
	case models.EventTypeStellarScan:
		data = &models.StellarScanData{
			BodyScanData:       base,
			StarType:           entry.StarType,
			Subclass:           entry.Subclass,
			StellarMass:        entry.StellarMass,
			Radius:             entry.Radius,
			AbsoluteMagnitude:  entry.AbsoluteMagnitude,
			AgeMY:              entry.AgeMY,
			SurfaceTemperature: entry.SurfaceTemperature,
			Luminosity:         entry.Luminosity,
			RotationPeriod:     entry.RotationPeriod,
			AxialTilt:          entry.AxialTilt,
			Orbit:              orbitOf(entry),
			Rings:              ringsOf(entry),
		}

	case models.EventTypePlanetaryScan:
		planetary := &models.PlanetaryScanData{
			BodyScanData:          base,
			PlanetClass:           entry.PlanetClass,
			TerraformState:        entry.TerraformState,
			AtmosphereType:        entry.AtmosphereType,
			AtmosphereComposition: materialsOf(entry.AtmosphereComposition),
			Volcanism:             entry.Volcanism,
			MassEM:                entry.MassEM,
			Radius:                entry.Radius,
			SurfaceGravity:        entry.SurfaceGravity,
			SurfaceTemperature:    entry.SurfaceTemperature,
			SurfacePressure:       entry.SurfacePressure,
			Landable:              entry.Landable,
			Materials:             materialsOf(entry.Materials),
			Composition:           entry.Composition,
			TidalLock:             entry.TidalLock,
			ReserveLevel:          entry.ReserveLevel,
			Orbit:                 orbitOf(entry),
			Rings:                 ringsOf(entry),
		}
		if entry.RotationPeriod != nil {
			planetary.RotationPeriod = entry.RotationPeriod
			planetary.AxialTilt = entry.AxialTilt
		}
		data = planetary

	default:
		data = &models.AsteroidScanData{
			BodyScanData: base,
		}
	}

	return &models.CanonicalEvent{
		EventType: eventType,
		Timestamp: timestamp,
		Data:      data,
	}, nil
}

// orbitOf groups orbital elements: the reference schema wants either the
// full set or nothing, keyed on SemiMajorAxis being present.
func orbitOf(entry scanEvent) *models.OrbitData {
	if entry.SemiMajorAxis == nil {
		return nil
	}
	return &models.OrbitData{
		SemiMajorAxis:      entry.SemiMajorAxis,
		Eccentricity:       entry.Eccentricity,
		OrbitalInclination: entry.OrbitalInclination,
		Periapsis:          entry.Periapsis,
		OrbitalPeriod:      entry.OrbitalPeriod,
	}
}

func ringsOf(entry scanEvent) []models.RingData {
	if len(entry.Rings) == 0 {
		return nil
	}
	rings := make([]models.RingData, 0, len(entry.Rings))
	for _, ring := range entry.Rings {
		rings = append(rings, models.RingData{
			Name:      ring.Name,
			RingClass: ring.RingClass,
			MassMT:    ring.MassMT,
			InnerRad:  ring.InnerRad,
			OuterRad:  ring.OuterRad,
		})
	}
	return rings
}

func materialsOf(shares []journalMaterialShare) []models.MaterialShare {
	if len(shares) == 0 {
		return nil
	}
	out := make([]models.MaterialShare, 0, len(shares))
	for _, share := range shares {
		out = append(out, models.MaterialShare{
			Name:    share.Name,
			Percent: share.Percent,
		})
	}
	return out
}

type saaSignalsEvent struct {
	BodyName      string `json:"BodyName"`
	BodyID        *int   `json:"BodyID"`
	SystemAddress int64  `json:"SystemAddress"`
	Signals       []struct {
		Type          string `json:"Type"`
		TypeLocalised string `json:"Type_Localised"`
		Count         int    `json:"Count"`
	} `json:"Signals"`
	Genuses []struct {
		Genus          string `json:"Genus"`
		GenusLocalised string `json:"Genus_Localised"`
	} `json:"Genuses"`
}

func buildSAASignals(raw journal.RawEvent, commander, timestamp string) (*models.CanonicalEvent, error) {
	var entry saaSignalsEvent
	if err := json.Unmarshal(raw.Line, &entry); err != nil {
		return nil, fmt.Errorf("event SAASignalsFound: %w", err)
	}
	if entry.BodyName == "" {
		return nil, fmt.Errorf("event SAASignalsFound: missing BodyName")
	}

	signals := make([]models.SignalCount, 0, len(entry.Signals))
	for _, signal := range entry.Signals {
		signals = append(signals, models.SignalCount{
			Type:          signal.Type,
			TypeLocalised: signal.TypeLocalised,
			Count:         signal.Count,
		})
	}

	var genuses []models.GenusEntry
	for _, genus := range entry.Genuses {
		genuses = append(genuses, models.GenusEntry{
			Genus:          genus.Genus,
			GenusLocalised: genus.GenusLocalised,
		})
	}

	return &models.CanonicalEvent{
		EventType: models.EventTypeSAASignals,
		Timestamp: timestamp,
		Data: &models.SAASignalsData{
			BodyName:      entry.BodyName,
			BodyID:        entry.BodyID,
			SystemAddress: entry.SystemAddress,
			Signals:       signals,
			Genuses:       genuses,
			Commander:     commander,
		},
	}, nil
}
