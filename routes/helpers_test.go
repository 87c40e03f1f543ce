package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/geoattend/config"
	"github.com/cppla/geoattend/geofence"
	"github.com/cppla/geoattend/models"
	"github.com/cppla/geoattend/services"
	"github.com/cppla/geoattend/utils"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "adminpassword"
)

var (
	inside  = map[string]any{"latitude": -4.01329, "longitude": 119.62596, "mock_location": false, "developer_mode": false}
	outside = map[string]any{"latitude": 0.0, "longitude": 0.0, "mock_location": false, "developer_mode": false}
)

type testApp struct {
	router    *gin.Engine
	db        *gorm.DB
	employees *services.EmployeeService
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type appOption func(*config.AppConfig, *[]services.AttendanceOption)

func withRejectRepeatCheckout() appOption {
	return func(_ *config.AppConfig, opts *[]services.AttendanceOption) {
		*opts = append(*opts, services.WithRejectRepeatCheckout(true))
	}
}

func withRateLimit(perMinute int) appOption {
	return func(c *config.AppConfig, _ *[]services.AttendanceOption) { c.RateLimitPerMinute = perMinute }
}

func withLoginMaxFailures(n int) appOption {
	return func(c *config.AppConfig, _ *[]services.AttendanceOption) { c.LoginMaxFailures = n }
}

func newTestApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, config.Migrate(db, &models.Admin{}, &models.Employee{}, &models.Attendance{}))

	hasher := utils.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, services.Seed(context.Background(), db, hasher, adminEmail, adminPassword))

	cfg := config.AppConfig{GinMode: "test", AllowedOrigins: []string{"*"}, LoginMaxFailures: 0}
	var attendanceOpts []services.AttendanceOption
	for _, opt := range opts {
		opt(&cfg, &attendanceOpts)
	}

	tokens := utils.NewTokenIssuer("test-secret", time.Hour)
	fence := geofence.NewChecker(map[string]geofence.Zone{
		"office": {Latitude: -4.01329, Longitude: 119.62596, RadiusMeters: 100},
	})
	employees := services.NewEmployeeService(db, hasher)

	r := SetupRouter(Dependencies{
		Config:     cfg,
		Auth:       services.NewAuthService(hasher, tokens, services.NewAdminProvider(db), services.NewEmployeeProvider(db)),
		Employees:  employees,
		Attendance: services.NewAttendanceService(db, fence, attendanceOpts...),
		Tokens:     tokens,
		Guard:      utils.NewLoginGuard(nil, cfg.LoginMaxFailures, time.Minute),
		AccessLog:  zap.NewNop(),
	})
	return &testApp{router: r, db: db, employees: employees}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func (a *testApp) login(t *testing.T, identifier, password string) string {
	t.Helper()
	w, env := a.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"nip_or_email": identifier,
		"password":     password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.AccessToken)
	return data.AccessToken
}

func (a *testApp) employeeID(t *testing.T, nip string) uint {
	t.Helper()
	emp, err := a.employees.GetByNIP(context.Background(), nip)
	require.NoError(t, err)
	return emp.ID
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}
