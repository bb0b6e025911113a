package models

import "fmt"

// EventType is the closed set of canonical event tags accepted by the
// exploration API. The set is part of an external contract and is not
// extensible.
type EventType string

const (
	EventTypeSystemEntry   EventType = "SystemEntry"
	EventTypeStellarScan   EventType = "StellarBodyScan"
	EventTypePlanetaryScan EventType = "PlanetaryBodyScan"
	EventTypeAsteroidScan  EventType = "AsteroidClusterScan"
	EventTypeSAASignals    EventType = "SAASignalsFoundEvent"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTypeSystemEntry, EventTypeStellarScan, EventTypePlanetaryScan,
		EventTypeAsteroidScan, EventTypeSAASignals:
		return true
	}
	return false
}

// CanonicalEvent is the fixed envelope sent to the exploration API. Data
// holds one of the *Data structs below, keyed by EventType.
type CanonicalEvent struct {
	EventType EventType   `json:"event_type"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func (e *CanonicalEvent) Validate() error {
	if !e.EventType.Valid() {
		return fmt.Errorf("unknown event_type %q", e.EventType)
	}
	if e.Timestamp == "" {
		return fmt.Errorf("empty timestamp")
	}
	if e.Data == nil {
		return fmt.Errorf("empty data")
	}
	return nil
}

// SystemEntryData carries arrival context for FSDJump and CarrierJump
// events. Field names follow the exploration API reference schema.
type SystemEntryData struct {
	System          string    `json:"system"`
	Coordinates     []float64 `json:"coordinates,omitempty"`
	SystemAddress   int64     `json:"system_address,omitempty"`
	BodyName        string    `json:"body_name,omitempty"`
	BodyID          *int      `json:"body_id,omitempty"`
	BodyType        string    `json:"body_type,omitempty"`
	WasDiscovered   *bool     `json:"was_discovered,omitempty"`
	DiscoverySource string    `json:"discovery_source,omitempty"`
	Commander       string    `json:"commander,omitempty"`
}

// BodyScanData is the field set shared by all three scan variants.
type BodyScanData struct {
	BodyName              string           `json:"body_name"`
	BodyID                *int             `json:"body_id,omitempty"`
	SystemAddress         int64            `json:"system_address,omitempty"`
	DistanceFromArrivalLS *float64         `json:"distance_from_arrival_ls,omitempty"`
	WasDiscovered         *bool            `json:"was_discovered,omitempty"`
	WasMapped             *bool            `json:"was_mapped,omitempty"`
	DiscoverySource       string           `json:"discovery_source,omitempty"`
	Parents               []map[string]int `json:"parents,omitempty"`
	Commander             string           `json:"commander,omitempty"`
}

// OrbitData is emitted as a group: either all orbital elements from the
// journal entry or none.
type OrbitData struct {
	SemiMajorAxis      *float64 `json:"semi_major_axis,omitempty"`
	Eccentricity       *float64 `json:"eccentricity,omitempty"`
	OrbitalInclination *float64 `json:"orbital_inclination,omitempty"`
	Periapsis          *float64 `json:"periapsis,omitempty"`
	OrbitalPeriod      *float64 `json:"orbital_period,omitempty"`
}

type StellarScanData struct {
	BodyScanData
	StarType           string     `json:"star_type"`
	Subclass           *int       `json:"subclass,omitempty"`
	StellarMass        *float64   `json:"stellar_mass,omitempty"`
	Radius             *float64   `json:"radius,omitempty"`
	AbsoluteMagnitude  *float64   `json:"absolute_magnitude,omitempty"`
	AgeMY              *int64     `json:"age_my,omitempty"`
	SurfaceTemperature *float64   `json:"surface_temperature,omitempty"`
	Luminosity         string     `json:"luminosity,omitempty"`
	RotationPeriod     *float64   `json:"rotation_period,omitempty"`
	AxialTilt          *float64   `json:"axial_tilt,omitempty"`
	Orbit              *OrbitData `json:"orbit,omitempty"`
	Rings              []RingData `json:"rings,omitempty"`
}

type PlanetaryScanData struct {
	BodyScanData
	PlanetClass           string             `json:"planet_class"`
	TerraformState        string             `json:"terraform_state,omitempty"`
	AtmosphereType        string             `json:"atmosphere_type,omitempty"`
	AtmosphereComposition []MaterialShare    `json:"atmosphere_composition,omitempty"`
	Volcanism             string             `json:"volcanism,omitempty"`
	MassEM                *float64           `json:"mass_em,omitempty"`
	Radius                *float64           `json:"radius,omitempty"`
	SurfaceGravity        *float64           `json:"surface_gravity,omitempty"`
	SurfaceTemperature    *float64           `json:"surface_temperature,omitempty"`
	SurfacePressure       *float64           `json:"surface_pressure,omitempty"`
	Landable              *bool              `json:"landable,omitempty"`
	Materials             []MaterialShare    `json:"materials,omitempty"`
	Composition           map[string]float64 `json:"composition,omitempty"`
	TidalLock             *bool              `json:"tidal_lock,omitempty"`
	ReserveLevel          string             `json:"reserve_level,omitempty"`
	RotationPeriod        *float64           `json:"rotation_period,omitempty"`
	AxialTilt             *float64           `json:"axial_tilt,omitempty"`
	Orbit                 *OrbitData         `json:"orbit,omitempty"`
	Rings                 []RingData         `json:"rings,omitempty"`
}

type AsteroidScanData struct {
	BodyScanData
}

type SAASignalsData struct {
	BodyName        string        `json:"body_name"`
	BodyID          *int          `json:"body_id,omitempty"`
	SystemAddress   int64         `json:"system_address,omitempty"`
	Signals         []SignalCount `json:"signals"`
	Genuses         []GenusEntry  `json:"genuses,omitempty"`
	WasDiscovered   *bool         `json:"was_discovered,omitempty"`
	DiscoverySource string        `json:"discovery_source,omitempty"`
	Commander       string        `json:"commander,omitempty"`
}

type SignalCount struct {
	Type          string `json:"type"`
	TypeLocalised string `json:"type_localised,omitempty"`
	Count         int    `json:"count"`
}

type GenusEntry struct {
	Genus          string `json:"genus"`
	GenusLocalised string `json:"genus_localised,omitempty"`
}

type MaterialShare struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

type RingData struct {
	Name      string   `json:"name"`
	RingClass string   `json:"ring_class,omitempty"`
	MassMT    *float64 `json:"mass_mt,omitempty"`
	InnerRad  *float64 `json:"inner_rad,omitempty"`
	OuterRad  *float64 `json:"outer_rad,omitempty"`
}
