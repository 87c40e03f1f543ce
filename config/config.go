package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// GeofenceZone is one allowed attendance area: a center point and a radius in meters.
type GeofenceZone struct {
	ID           string  `json:"id" yaml:"id"`
	Latitude     float64 `json:"latitude" yaml:"latitude"`
	Longitude    float64 `json:"longitude" yaml:"longitude"`
	RadiusMeters float64 `json:"radius_meters" yaml:"radius_meters"`
}

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	JWTExpireMinutes   int
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Database
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Redis backs the login guard; empty host keeps it in memory
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Login hardening
	LoginMaxFailures int
	LoginLockMinutes int
	// Attendance
	GeofenceZones        []GeofenceZone
	RejectRepeatCheckout bool
	// Seeded administrator
	AdminEmail    string
	AdminPassword string
}

// DefaultZones are the two office locations of the reference deployment.
var DefaultZones = []GeofenceZone{
	{ID: "kantor-utama", Latitude: -4.01329, Longitude: 119.62596, RadiusMeters: 100},
	{ID: "kantor-cabang", Latitude: -4.03630, Longitude: 119.63229, RadiusMeters: 100},
}

var cfg AppConfig
var loaded bool

// LoadFrom loads the application configuration from path and the environment. An empty path
// probes config/config.json then config/config.yaml. It should be called once during boot.
func LoadFrom(path string) AppConfig {
	if loaded {
		return cfg
	}

	// Precedence: .env -> config file -> defaults -> environment variable overrides
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("ignoring unreadable .env: %v", err)
	}

	if path == "" {
		path = filepath.Join("config", "config.json")
		if _, err := os.Stat(path); err != nil {
			path = filepath.Join("config", "config.yaml")
		}
	}
	if err := loadConfigFile(path, &cfg); err != nil {
		log.Fatalf("invalid config file %s: %v", path, err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}
	if err := ValidateZones(cfg.GeofenceZones); err != nil {
		log.Fatalf("invalid geofence configuration: %v", err)
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return LoadFrom("")
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadConfigFile reads a JSON or YAML file into out if present. Returns error only for invalid content.
func loadConfigFile(path string, out *AppConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil // silently ignore missing file
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &raw)
	default:
		err = json.Unmarshal(b, &raw)
	}
	if err != nil {
		return err
	}
	applyRaw(raw, out)
	return nil
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(m map[string]any, key string) int {
	if v, ok := m[key]; ok {
		switch t := v.(type) {
		case float64:
			return int(t)
		case int:
			return t
		case json.Number:
			i, _ := t.Int64()
			return int(i)
		}
	}
	return 0
}

func getFloat(m map[string]any, key string) float64 {
	switch t := m[key].(type) {
	case float64:
		return t
	case int:
		return float64(t)
	}
	return 0
}

func getBool(m map[string]any, key string) (bool, bool) {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b, true
		}
	}
	return false, false
}

func getStringSlice(m map[string]any, key string) []string {
	if v, ok := m[key]; ok {
		if arr, ok := v.([]any); ok {
			res := make([]string, 0, len(arr))
			for _, it := range arr {
				if s, ok := it.(string); ok {
					res = append(res, s)
				}
			}
			return res
		}
	}
	return nil
}

// applyRaw maps the grouped sections of a decoded config file onto out.
func applyRaw(raw map[string]any, out *AppConfig) {
	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		if v := getInt(app, "JWTExpireMinutes"); v != 0 {
			out.JWTExpireMinutes = v
		}
		if v := getInt(app, "RateLimitPerMinute"); v != 0 {
			out.RateLimitPerMinute = v
		}
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
		if v := getInt(app, "LoginMaxFailures"); v != 0 {
			out.LoginMaxFailures = v
		}
		if v := getInt(app, "LoginLockMinutes"); v != 0 {
			out.LoginLockMinutes = v
		}
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DBDriver = getString(dbs, "Driver")
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
		out.DBSSLMode = getString(dbs, "DBSSLMode")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisHost = getString(rds, "RedisHost")
		if v := getInt(rds, "RedisPort"); v != 0 {
			out.RedisPort = v
		}
		if v := getInt(rds, "RedisDB"); v != 0 {
			out.RedisDB = v
		}
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		if v := getString(lg, "Level"); v != "" {
			out.LogLevel = v
		}
		if v := getString(lg, "Path"); v != "" {
			out.LogPath = v
		}
		if v := getString(lg, "GinMode"); v != "" {
			out.GinMode = v
		}
		if v := getString(lg, "GinPath"); v != "" {
			out.GinPath = v
		}
		if v := getInt(lg, "MaxSizeMB"); v != 0 {
			out.LogMaxSizeMB = v
		}
		if v := getInt(lg, "MaxBackups"); v != 0 {
			out.LogMaxBackups = v
		}
		if v := getInt(lg, "MaxAgeDays"); v != 0 {
			out.LogMaxAgeDays = v
		}
		out.LogCompress, _ = getBool(lg, "Compress")
	}

	if gf, ok := raw["geofence"].(map[string]any); ok {
		out.GeofenceZones = parseZones(gf["Zones"])
	}

	if at, ok := raw["attendance"].(map[string]any); ok {
		out.RejectRepeatCheckout, _ = getBool(at, "RejectRepeatCheckout")
	}

	if adm, ok := raw["admin"].(map[string]any); ok {
		out.AdminEmail = getString(adm, "Email")
		out.AdminPassword = getString(adm, "Password")
	}
}

// parseZones accepts either a list of zone objects or a map of zone id to zone object.
func parseZones(v any) []GeofenceZone {
	toZone := func(id string, m map[string]any) GeofenceZone {
		if id == "" {
			id = getString(m, "id")
		}
		return GeofenceZone{
			ID:           id,
			Latitude:     getFloat(m, "latitude"),
			Longitude:    getFloat(m, "longitude"),
			RadiusMeters: getFloat(m, "radius_meters"),
		}
	}

	var zones []GeofenceZone
	switch t := v.(type) {
	case []any:
		for i, it := range t {
			if m, ok := it.(map[string]any); ok {
				z := toZone("", m)
				if z.ID == "" {
					z.ID = "zone-" + strconv.Itoa(i+1)
				}
				zones = append(zones, z)
			}
		}
	case map[string]any:
		for id, it := range t {
			if m, ok := it.(map[string]any); ok {
				zones = append(zones, toZone(id, m))
			}
		}
	}
	return zones
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.JWTExpireMinutes == 0 {
		c.JWTExpireMinutes = 60
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "geoattend"
	}
	if c.DBSSLMode == "" {
		c.DBSSLMode = "disable"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.LoginMaxFailures == 0 {
		c.LoginMaxFailures = 10
	}
	if c.LoginLockMinutes == 0 {
		c.LoginLockMinutes = 15
	}
	if len(c.GeofenceZones) == 0 {
		c.GeofenceZones = append([]GeofenceZone(nil), DefaultZones...)
	}
	if c.AdminEmail == "" {
		c.AdminEmail = "admin@example.com"
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("JWT_SECRET", ""); v != "" {
		c.JWTSecret = v
	}
	if v := getEnv("JWT_EXPIRE_MINUTES", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.JWTExpireMinutes = n
		}
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimitPerMinute = n
		}
	}
	if v := getEnv("DB_DRIVER", ""); v != "" {
		c.DBDriver = strings.ToLower(v)
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("DB_SSLMODE", ""); v != "" {
		c.DBSSLMode = v
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisPort = n
		}
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("LOGIN_MAX_FAILURES", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LoginMaxFailures = n
		}
	}
	if v := getEnv("LOGIN_LOCK_MINUTES", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.LoginLockMinutes = n
		}
	}
	if v := getEnv("GEOFENCE_ZONES", ""); v != "" {
		var zones []GeofenceZone
		if err := json.Unmarshal([]byte(v), &zones); err != nil {
			log.Printf("ignoring GEOFENCE_ZONES: %v", err)
		} else if len(zones) > 0 {
			for i := range zones {
				if zones[i].ID == "" {
					zones[i].ID = "zone-" + strconv.Itoa(i+1)
				}
			}
			c.GeofenceZones = zones
		}
	}
	if v := getEnv("REJECT_REPEAT_CHECKOUT", ""); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.RejectRepeatCheckout = b
		}
	}
	if v := getEnv("ADMIN_EMAIL", ""); v != "" {
		c.AdminEmail = v
	}
	if v := getEnv("ADMIN_PASSWORD", ""); v != "" {
		c.AdminPassword = v
	}
}

// ValidateZones rejects an empty zone list, duplicate or empty ids, out of range centers and
// non-positive radii.
func ValidateZones(zones []GeofenceZone) error {
	if len(zones) == 0 {
		return errors.New("no geofence zones configured")
	}
	seen := make(map[string]struct{}, len(zones))
	for i, z := range zones {
		if z.ID == "" {
			return fmt.Errorf("zone #%d has no id", i+1)
		}
		if _, dup := seen[z.ID]; dup {
			return fmt.Errorf("duplicate zone id %q", z.ID)
		}
		seen[z.ID] = struct{}{}
		if z.Latitude < -90 || z.Latitude > 90 || z.Longitude < -180 || z.Longitude > 180 {
			return fmt.Errorf("zone %q center (%v, %v) is out of range", z.ID, z.Latitude, z.Longitude)
		}
		if !(z.RadiusMeters > 0) {
			return fmt.Errorf("zone %q radius must be positive", z.ID)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
