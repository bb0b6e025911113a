package mapper

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarelay/internal/journal"
	"stellarelay/pkg/models"
)

func mustParse(t *testing.T, line string) journal.RawEvent {
	t.Helper()
	raw, err := journal.ParseLine([]byte(line))
	require.NoError(t, err)
	return raw
}

func TestIsWatched(t *testing.T) {
	assert.True(t, IsWatched("FSDJump"))
	assert.True(t, IsWatched("CarrierJump"))
	assert.True(t, IsWatched("Scan"))
	assert.True(t, IsWatched("SAASignalsFound"))

	assert.False(t, IsWatched("Music"))
	assert.False(t, IsWatched("FSSDiscoveryScan"))
	assert.False(t, IsWatched(""))
}

func TestMapUnwatchedEventProducesNothing(t *testing.T) {
	raw := mustParse(t, `{"timestamp":"2025-01-01T00:00:00Z","event":"Music","MusicTrack":"Exploration"}`)

	event, err := Map(raw, "Jameson")
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestMapFSDJump(t *testing.T) {
	raw := mustParse(t, `{"timestamp":"2025-01-01T00:00:00Z","event":"FSDJump","StarSystem":"Sol","SystemAddress":10477373803,"StarPos":[0.0,0.0,0.0],"WasDiscovered":true,"Body":"Sol","BodyID":0}`)

	event, err := Map(raw, "Jameson")
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.Equal(t, models.EventTypeSystemEntry, event.EventType)
	assert.Equal(t, "2025-01-01T00:00:00Z", event.Timestamp)

	data, ok := event.Data.(*models.SystemEntryData)
	require.True(t, ok)
	assert.Equal(t, "Sol", data.System)
	assert.Equal(t, []float64{0, 0, 0}, data.Coordinates)
	assert.Equal(t, int64(10477373803), data.SystemAddress)
	require.NotNil(t, data.WasDiscovered)
	assert.True(t, *data.WasDiscovered)
	assert.Equal(t, "Jameson", data.Commander)
}

func TestMapFSDJumpEnvelopeShape(t *testing.T) {
	raw := mustParse(t, `{"timestamp":"2025-01-01T00:00:00Z","event":"FSDJump","StarSystem":"Sol","StarPos":[0.0,0.0,0.0]}`)

	event, err := Map(raw, "")
	require.NoError(t, err)
	require.NotNil(t, event)

	encoded, err := json.Marshal(event)
	require.NoError(t, err)

	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(encoded, &envelope))
	assert.Len(t, envelope, 3)
	assert.Contains(t, envelope, "event_type")
	assert.Contains(t, envelope, "timestamp")
	assert.Contains(t, envelope, "data")

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(envelope["data"], &data))
	assert.Equal(t, map[string]interface{}{
		"system":      "Sol",
		"coordinates": []interface{}{0.0, 0.0, 0.0},
	}, data)
}

func TestMapCarrierJump(t *testing.T) {
	raw := mustParse(t, `{"timestamp":"2025-03-10T18:30:00Z","event":"CarrierJump","StarSystem":"Colonia","SystemAddress":3238296097059,"StarPos":[-9530.5,-910.28125,19808.125],"Body":"Colonia","BodyID":0,"BodyType":"Star"}`)

	event, err := Map(raw, "Jameson")
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.Equal(t, models.EventTypeSystemEntry, event.EventType)

	data, ok := event.Data.(*models.SystemEntryData)
	require.True(t, ok)
	assert.Equal(t, "Colonia", data.System)
	assert.Equal(t, "Star", data.BodyType)
	assert.Nil(t, data.WasDiscovered)
}

func TestMapScanClassification(t *testing.T) {
	tests := []struct {
		name string
		line string
		want models.EventType
	}{
		{
			name: "star type present",
			line: `{"timestamp":"2025-01-01T00:00:00Z","event":"Scan","BodyName":"Sol","StarType":"G","Subclass":2}`,
			want: models.EventTypeStellarScan,
		},
		{
			name: "planet class present",
			line: `{"timestamp":"2025-01-01T00:00:00Z","event":"Scan","BodyName":"Earth","PlanetClass":"Earthlike body"}`,
			want: models.EventTypePlanetaryScan,
		},
		{
			name: "star type wins over planet class",
			line: `{"timestamp":"2025-01-01T00:00:00Z","event":"Scan","BodyName":"Oddball","StarType":"N","PlanetClass":"Icy body"}`,
			want: models.EventTypeStellarScan,
		},
		{
			name: "neither falls through to asteroid cluster",
			line: `{"timestamp":"2025-01-01T00:00:00Z","event":"Scan","BodyName":"Col 285 A Ring Cluster 7","Parents":[{"Ring":2},{"Star":0}]}`,
			want: models.EventTypeAsteroidScan,
		},
		{
			name: "no ring parent still falls through to asteroid cluster",
			line: `{"timestamp":"2025-01-01T00:00:00Z","event":"Scan","BodyName":"Mystery Body","Parents":[{"Star":0}]}`,
			want: models.EventTypeAsteroidScan,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := Map(mustParse(t, tt.line), "")
			require.NoError(t, err)
			require.NotNil(t, event)
			assert.Equal(t, tt.want, event.EventType)
		})
	}
}

func TestMapStellarScan(t *testing.T) {
	raw := mustParse(t, `{"timestamp":"2025-01-01T00:00:00Z","event":"Scan","BodyName":"Sol","BodyID":0,"SystemAddress":10477373803,"DistanceFromArrivalLS":0.0,"StarType":"G","Subclass":2,"StellarMass":1.0,"Radius":696340000.0,"AbsoluteMagnitude":4.83,"Age_MY":4600,"SurfaceTemperature":5778.0,"Luminosity":"Vab","RotationPeriod":2160000.0,"AxialTilt":0.0,"WasDiscovered":true,"WasMapped":false}`)

	event, err := Map(raw, "Jameson")
	require.NoError(t, err)
	require.NotNil(t, event)

	data, ok := event.Data.(*models.StellarScanData)
	require.True(t, ok)
	assert.Equal(t, "Sol", data.BodyName)
	assert.Equal(t, "G", data.StarType)
	require.NotNil(t, data.Subclass)
	assert.Equal(t, 2, *data.Subclass)
	require.NotNil(t, data.AgeMY)
	assert.Equal(t, int64(4600), *data.AgeMY)
	assert.Equal(t, "Vab", data.Luminosity)
	assert.Nil(t, data.Orbit)
	assert.Equal(t, "Jameson", data.Commander)
}

func TestMapPlanetaryScan(t *testing.T) {
	raw := mustParse(t, `{"timestamp":"2025-01-01T00:00:00Z","event":"Scan","BodyName":"Earth","BodyID":3,"PlanetClass":"Earthlike body","TerraformState":"","AtmosphereType":"EarthLike","AtmosphereComposition":[{"Name":"Nitrogen","Percent":77.88},{"Name":"Oxygen","Percent":20.9}],"MassEM":1.0,"Radius":6371000.0,"SurfaceGravity":9.8,"SurfaceTemperature":288.0,"SurfacePressure":101325.0,"Landable":false,"Composition":{"Ice":0.0,"Rock":0.67,"Metal":0.33},"TidalLock":false,"ReserveLevel":"PristineResources","RotationPeriod":86400.0,"AxialTilt":0.41,"SemiMajorAxis":149598023000.0,"Eccentricity":0.0167,"OrbitalInclination":0.0,"Periapsis":114.2,"OrbitalPeriod":31558149.0,"Rings":[{"Name":"Earth A Ring","RingClass":"eRingClass_Rocky","MassMT":1000.0,"InnerRad":100000.0,"OuterRad":200000.0}]}`)

	event, err := Map(raw, "")
	require.NoError(t, err)
	require.NotNil(t, event)

	data, ok := event.Data.(*models.PlanetaryScanData)
	require.True(t, ok)
	assert.Equal(t, "Earthlike body", data.PlanetClass)
	require.Len(t, data.AtmosphereComposition, 2)
	assert.Equal(t, "Nitrogen", data.AtmosphereComposition[0].Name)
	assert.Equal(t, "PristineResources", data.ReserveLevel)

	require.NotNil(t, data.Orbit)
	require.NotNil(t, data.Orbit.SemiMajorAxis)
	assert.InDelta(t, 149598023000.0, *data.Orbit.SemiMajorAxis, 1)

	require.Len(t, data.Rings, 1)
	assert.Equal(t, "Earth A Ring", data.Rings[0].Name)
	assert.Equal(t, "eRingClass_Rocky", data.Rings[0].RingClass)

	require.NotNil(t, data.RotationPeriod)
	assert.InDelta(t, 86400.0, *data.RotationPeriod, 0.01)
}

func TestMapPlanetaryScanOmitsOrbitWithoutSemiMajorAxis(t *testing.T) {
	raw := mustParse(t, `{"timestamp":"2025-01-01T00:00:00Z","event":"Scan","BodyName":"Earth","PlanetClass":"Earthlike body","OrbitalPeriod":31558149.0}`)

	event, err := Map(raw, "")
	require.NoError(t, err)

	data, ok := event.Data.(*models.PlanetaryScanData)
	require.True(t, ok)
	assert.Nil(t, data.Orbit)
}

func TestMapAsteroidClusterScan(t *testing.T) {
	raw := mustParse(t, `{"timestamp":"2025-01-01T00:00:00Z","event":"Scan","BodyName":"Col 285 A Ring Cluster 7","BodyID":12,"SystemAddress":908486218434,"DistanceFromArrivalLS":512.7,"Parents":[{"Ring":2},{"Star":0}],"WasDiscovered":false,"WasMapped":false}`)

	event, err := Map(raw, "Jameson")
	require.NoError(t, err)
	require.NotNil(t, event)

	data, ok := event.Data.(*models.AsteroidScanData)
	require.True(t, ok)
	assert.Equal(t, "Col 285 A Ring Cluster 7", data.BodyName)
	assert.Equal(t, []map[string]int{{"Ring": 2}, {"Star": 0}}, data.Parents)
	require.NotNil(t, data.WasDiscovered)
	assert.False(t, *data.WasDiscovered)
}

func TestMapSAASignalsFound(t *testing.T) {
	raw := mustParse(t, `{"timestamp":"2025-01-01T00:00:00Z","event":"SAASignalsFound","BodyName":"Earth A Ring","BodyID":4,"SystemAddress":10477373803,"Signals":[{"Type":"LowTemperatureDiamond","Type_Localised":"Low Temperature Diamonds","Count":1},{"Type":"Alexandrite","Count":2}],"Genuses":[{"Genus":"$Codex_Ent_Bacterial_Genus_Name;","Genus_Localised":"Bacterium"}]}`)

	event, err := Map(raw, "Jameson")
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.Equal(t, models.EventTypeSAASignals, event.EventType)

	data, ok := event.Data.(*models.SAASignalsData)
	require.True(t, ok)
	assert.Equal(t, "Earth A Ring", data.BodyName)
	require.Len(t, data.Signals, 2)
	assert.Equal(t, "LowTemperatureDiamond", data.Signals[0].Type)
	assert.Equal(t, "Low Temperature Diamonds", data.Signals[0].TypeLocalised)
	assert.Equal(t, 1, data.Signals[0].Count)
	assert.Equal(t, "", data.Signals[1].TypeLocalised)
	require.Len(t, data.Genuses, 1)
	assert.Equal(t, "Bacterium", data.Genuses[0].GenusLocalised)
}

func TestMapRejectsBadTimestamps(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{
			name: "missing timestamp",
			line: `{"event":"FSDJump","StarSystem":"Sol"}`,
		},
		{
			name: "unparsable timestamp",
			line: `{"timestamp":"yesterday","event":"FSDJump","StarSystem":"Sol"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := Map(mustParse(t, tt.line), "")
			assert.Error(t, err)
			assert.Nil(t, event)
		})
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "utc passthrough", input: "2025-01-01T00:00:00Z", want: "2025-01-01T00:00:00Z"},
		{name: "offset converted to utc", input: "2025-01-01T02:30:00+02:30", want: "2025-01-01T00:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTimestamp(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// Normalization is idempotent.
			again, err := NormalizeTimestamp(got)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestMapRejectsEventsMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "fsdjump without system", line: `{"timestamp":"2025-01-01T00:00:00Z","event":"FSDJump"}`},
		{name: "scan without body name", line: `{"timestamp":"2025-01-01T00:00:00Z","event":"Scan","StarType":"G"}`},
		{name: "saa signals without body name", line: `{"timestamp":"2025-01-01T00:00:00Z","event":"SAASignalsFound"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := Map(mustParse(t, tt.line), "")
			assert.Error(t, err)
			assert.Nil(t, event)
		})
	}
}
