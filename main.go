package main

import (
	"context"
	"time"

	"github.com/spf13/pflag"

	"github.com/cppla/geoattend/config"
	"github.com/cppla/geoattend/geofence"
	"github.com/cppla/geoattend/models"
	"github.com/cppla/geoattend/routes"
	"github.com/cppla/geoattend/services"
	"github.com/cppla/geoattend/utils"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a JSON or YAML config file")
	seed := pflag.Bool("seed", false, "create the admin account and demo employees if missing")
	pflag.Parse()

	cfg := config.LoadFrom(*configPath)

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync() //nolint:errcheck

	// Parents before children so the attendance foreign key can be created
	db := config.InitDatabase(&models.Admin{}, &models.Employee{}, &models.Attendance{})

	hasher := utils.NewPasswordHasher(0)
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTExpireMinutes)*time.Minute)

	if *seed {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := services.Seed(ctx, db, hasher, cfg.AdminEmail, cfg.AdminPassword)
		cancel()
		if err != nil {
			utils.Sugar.Fatalf("seed failed: %v", err)
		}
	}

	zones := make(map[string]geofence.Zone, len(cfg.GeofenceZones))
	for _, z := range cfg.GeofenceZones {
		zones[z.ID] = geofence.Zone{Latitude: z.Latitude, Longitude: z.Longitude, RadiusMeters: z.RadiusMeters}
	}
	fence := geofence.NewChecker(zones)
	utils.Sugar.Infof("geofence loaded with %d zone(s)", len(fence.Zones()))

	auth := services.NewAuthService(hasher, tokens,
		services.NewAdminProvider(db),
		services.NewEmployeeProvider(db),
	)
	employees := services.NewEmployeeService(db, hasher)
	attendance := services.NewAttendanceService(db, fence,
		services.WithRejectRepeatCheckout(cfg.RejectRepeatCheckout))

	r := routes.SetupRouter(routes.Dependencies{
		Config:     cfg,
		Auth:       auth,
		Employees:  employees,
		Attendance: attendance,
		Tokens:     tokens,
		Guard: utils.NewLoginGuard(utils.NewRedis(cfg), cfg.LoginMaxFailures,
			time.Duration(cfg.LoginLockMinutes)*time.Minute),
	})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
