package services

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/geoattend/config"
	"github.com/cppla/geoattend/geofence"
	"github.com/cppla/geoattend/models"
	"github.com/cppla/geoattend/utils"
)

var testHasher = utils.NewPasswordHasher(bcrypt.MinCost)

var officeZone = geofence.Zone{Latitude: -4.01329, Longitude: 119.62596, RadiusMeters: 100}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every new connection to :memory: would be a fresh database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db, &models.Admin{}, &models.Employee{}, &models.Attendance{}))
	return db
}

func newFence() *geofence.Checker {
	return geofence.NewChecker(map[string]geofence.Zone{"office": officeZone})
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func mustCreateEmployee(t *testing.T, svc *EmployeeService, nip, name, password string) *models.Employee {
	t.Helper()
	emp, err := svc.Create(context.Background(), EmployeeInput{NIP: nip, Name: name, Password: password})
	require.NoError(t, err)
	return emp
}

func inOffice() Location {
	return Location{Latitude: officeZone.Latitude, Longitude: officeZone.Longitude}
}
