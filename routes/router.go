package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/geoattend/config"
	"github.com/cppla/geoattend/controllers"
	"github.com/cppla/geoattend/middleware"
	"github.com/cppla/geoattend/services"
	"github.com/cppla/geoattend/utils"
)

// Dependencies is everything the HTTP layer needs. AccessLog may be nil, in which case the
// rolling file at Config.GinPath is used.
type Dependencies struct {
	Config     config.AppConfig
	Auth       *services.AuthService
	Employees  *services.EmployeeService
	Attendance *services.AttendanceService
	Tokens     *utils.TokenIssuer
	Guard      *utils.LoginGuard
	AccessLog  *zap.Logger
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())

	gl := deps.AccessLog
	if gl == nil {
		var err error
		if gl, err = utils.NewRollingFileLogger(cfg.GinPath, cfg); err != nil {
			utils.Logger.Warn("access log disabled", zap.Error(err))
		}
	}
	if gl != nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		// browsers reject credentials with a wildcard origin
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(deps.Auth, deps.Guard)
	attendanceController := controllers.NewAttendanceController(deps.Attendance, deps.Employees)
	adminController := controllers.NewAdminController(deps.Employees, deps.Attendance)

	authRequired := middleware.AuthRequired(deps.Tokens)

	authGroup := r.Group("/auth")
	authGroup.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/me", authRequired, authController.Me)

	attendanceGroup := r.Group("/attendance")
	attendanceGroup.Use(authRequired, middleware.RateLimit(cfg.RateLimitPerMinute))
	attendanceGroup.POST("/checkin/:employeeId",
		middleware.RequireRole(services.RoleAdmin, services.RoleEmployee), attendanceController.CheckIn)
	attendanceGroup.POST("/checkout/:attendanceId",
		middleware.RequireRole(services.RoleAdmin, services.RoleEmployee), attendanceController.CheckOut)
	attendanceGroup.GET("/me", middleware.RequireRole(services.RoleEmployee), attendanceController.Mine)

	adminGroup := r.Group("/admin")
	adminGroup.Use(authRequired, middleware.RequireRole(services.RoleAdmin))
	adminGroup.POST("/employees", adminController.CreateEmployee)
	adminGroup.GET("/employees", adminController.ListEmployees)
	adminGroup.GET("/employees/:id", adminController.GetEmployee)
	adminGroup.PUT("/employees/:id", adminController.UpdateEmployee)
	adminGroup.DELETE("/employees/:id", adminController.DeleteEmployee)
	adminGroup.PUT("/employees/:id/password", adminController.ChangePassword)
	adminGroup.GET("/attendances", adminController.ListAttendances)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
