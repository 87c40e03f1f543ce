package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFileJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"app": {"AppPort": "9090", "JWTSecret": "s3cret", "JWTExpireMinutes": 30, "AllowedOrigins": ["https://a.example"]},
		"database": {"Driver": "postgres", "DBHost": "db", "DBName": "att"},
		"redis": {"RedisHost": "cache", "RedisPort": 6380},
		"log": {"Level": "debug", "Compress": true},
		"geofence": {"Zones": [{"id": "hq", "latitude": 1.5, "longitude": 2.5, "radius_meters": 50}]},
		"attendance": {"RejectRepeatCheckout": true},
		"admin": {"Email": "boss@example.com", "Password": "pw"}
	}`)

	var c AppConfig
	require.NoError(t, loadConfigFile(path, &c))

	assert.Equal(t, "9090", c.AppPort)
	assert.Equal(t, "s3cret", c.JWTSecret)
	assert.Equal(t, 30, c.JWTExpireMinutes)
	assert.Equal(t, []string{"https://a.example"}, c.AllowedOrigins)
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, "db", c.DBHost)
	assert.Equal(t, "att", c.DBName)
	assert.Equal(t, "cache", c.RedisHost)
	assert.Equal(t, 6380, c.RedisPort)
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.LogCompress)
	assert.True(t, c.RejectRepeatCheckout)
	assert.Equal(t, "boss@example.com", c.AdminEmail)
	assert.Equal(t, "pw", c.AdminPassword)
	assert.Equal(t, []GeofenceZone{{ID: "hq", Latitude: 1.5, Longitude: 2.5, RadiusMeters: 50}}, c.GeofenceZones)
}

func TestLoadConfigFileYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
app:
  AppPort: "7070"
  JWTSecret: yaml-secret
geofence:
  Zones:
    office:
      latitude: -4.01329
      longitude: 119.62596
      radius_meters: 100
`)

	var c AppConfig
	require.NoError(t, loadConfigFile(path, &c))

	assert.Equal(t, "7070", c.AppPort)
	assert.Equal(t, "yaml-secret", c.JWTSecret)
	require.Len(t, c.GeofenceZones, 1)
	assert.Equal(t, "office", c.GeofenceZones[0].ID)
	assert.InDelta(t, -4.01329, c.GeofenceZones[0].Latitude, 1e-9)
	assert.InDelta(t, 100, c.GeofenceZones[0].RadiusMeters, 1e-9)
}

func TestLoadConfigFileMissingIsIgnored(t *testing.T) {
	var c AppConfig
	require.NoError(t, loadConfigFile(filepath.Join(t.TempDir(), "nope.json"), &c))
	assert.Equal(t, AppConfig{}, c)
}

func TestLoadConfigFileInvalid(t *testing.T) {
	path := writeFile(t, "config.json", `{"app": `)
	var c AppConfig
	assert.Error(t, loadConfigFile(path, &c))
}

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, 60, c.JWTExpireMinutes)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, 10, c.LoginMaxFailures)
	assert.Equal(t, 15, c.LoginLockMinutes)
	assert.Equal(t, "admin@example.com", c.AdminEmail)
	assert.Equal(t, DefaultZones, c.GeofenceZones)
	assert.False(t, c.RejectRepeatCheckout)

	// the defaults slice must not be shared
	c.GeofenceZones[0].RadiusMeters = 1
	assert.Equal(t, 100.0, DefaultZones[0].RadiusMeters)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "1234")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("JWT_EXPIRE_MINUTES", "5")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOGIN_MAX_FAILURES", "0")
	t.Setenv("REJECT_REPEAT_CHECKOUT", "true")
	t.Setenv("GEOFENCE_ZONES", `[{"id":"x","latitude":1,"longitude":2,"radius_meters":3},{"latitude":4,"longitude":5,"radius_meters":6}]`)

	c := AppConfig{AppPort: "8080", LoginMaxFailures: 10}
	applyEnvOverrides(&c)

	assert.Equal(t, "1234", c.AppPort)
	assert.Equal(t, "env-secret", c.JWTSecret)
	assert.Equal(t, 5, c.JWTExpireMinutes)
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	assert.Equal(t, 0, c.LoginMaxFailures)
	assert.True(t, c.RejectRepeatCheckout)
	assert.Equal(t, []GeofenceZone{
		{ID: "x", Latitude: 1, Longitude: 2, RadiusMeters: 3},
		{ID: "zone-2", Latitude: 4, Longitude: 5, RadiusMeters: 6},
	}, c.GeofenceZones)
}

func TestApplyEnvOverridesIgnoresBadValues(t *testing.T) {
	t.Setenv("JWT_EXPIRE_MINUTES", "soon")
	t.Setenv("GEOFENCE_ZONES", "not json")
	t.Setenv("REJECT_REPEAT_CHECKOUT", "maybe")

	c := AppConfig{JWTExpireMinutes: 60, GeofenceZones: DefaultZones}
	applyEnvOverrides(&c)

	assert.Equal(t, 60, c.JWTExpireMinutes)
	assert.Equal(t, DefaultZones, c.GeofenceZones)
	assert.False(t, c.RejectRepeatCheckout)
}

func TestParseZonesListAssignsIDs(t *testing.T) {
	zones := parseZones([]any{
		map[string]any{"latitude": 1.0, "longitude": 2.0, "radius_meters": 10},
	})
	require.Len(t, zones, 1)
	assert.Equal(t, "zone-1", zones[0].ID)
	assert.Equal(t, 10.0, zones[0].RadiusMeters)
}

func TestDialector(t *testing.T) {
	d, err := Dialector(AppConfig{DBDriver: "mysql", DBUser: "u", DBHost: "h", DBName: "n"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	d, err = Dialector(AppConfig{DBDriver: "postgres", DBHost: "h"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = Dialector(AppConfig{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestValidateZones(t *testing.T) {
	require.NoError(t, ValidateZones(DefaultZones))

	cases := map[string][]GeofenceZone{
		"empty":        nil,
		"missing id":   {{Latitude: 1, Longitude: 1, RadiusMeters: 10}},
		"duplicate id": {{ID: "hq", Latitude: 1, Longitude: 1, RadiusMeters: 10}, {ID: "hq", Latitude: 2, Longitude: 2, RadiusMeters: 10}},
		"latitude":     {{ID: "hq", Latitude: 91, Longitude: 1, RadiusMeters: 10}},
		"longitude":    {{ID: "hq", Latitude: 1, Longitude: -181, RadiusMeters: 10}},
		"radius":       {{ID: "hq", Latitude: 1, Longitude: 1}},
	}
	for name, zones := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, ValidateZones(zones))
		})
	}
}

func TestDuplicateZoneIDsFromEnvAreRejected(t *testing.T) {
	t.Setenv("GEOFENCE_ZONES", `[{"id":"hq","latitude":1,"longitude":2,"radius_meters":3},{"id":"hq","latitude":4,"longitude":5,"radius_meters":6}]`)

	c := AppConfig{}
	applyEnvOverrides(&c)
	require.Len(t, c.GeofenceZones, 2)
	assert.ErrorContains(t, ValidateZones(c.GeofenceZones), `duplicate zone id "hq"`)
}
