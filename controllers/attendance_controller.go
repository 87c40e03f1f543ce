package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/geoattend/middleware"
	"github.com/cppla/geoattend/models"
	"github.com/cppla/geoattend/services"
	"github.com/cppla/geoattend/utils"
)

// AttendanceController exposes check-in, check-out and the caller's own history.
type AttendanceController struct {
	attendance *services.AttendanceService
	employees  *services.EmployeeService
}

func NewAttendanceController(attendance *services.AttendanceService, employees *services.EmployeeService) *AttendanceController {
	return &AttendanceController{attendance: attendance, employees: employees}
}

type locationRequest struct {
	Latitude      *float64 `json:"latitude" binding:"required"`
	Longitude     *float64 `json:"longitude" binding:"required"`
	MockLocation  *bool    `json:"mock_location" binding:"required"`
	DeveloperMode *bool    `json:"developer_mode" binding:"required"`
}

func (r locationRequest) location() services.Location {
	return services.Location{
		Latitude:      *r.Latitude,
		Longitude:     *r.Longitude,
		MockLocation:  *r.MockLocation,
		DeveloperMode: *r.DeveloperMode,
	}
}

// currentEmployee resolves the employee behind an employee-role token. It writes the failure
// response and returns nil when the token no longer maps to that employee: the account is gone,
// or it changed (NIP reassigned, password reset) after the token was issued.
func (a *AttendanceController) currentEmployee(ctx *gin.Context) *models.Employee {
	emp, err := a.employees.GetByNIP(ctx.Request.Context(), ctx.GetString(middleware.ContextSubjectKey))
	if err != nil {
		if errors.Is(err, services.ErrEmployeeNotFound) {
			utils.Error(ctx, http.StatusForbidden, 40310, "employee account no longer exists")
			return nil
		}
		respondError(ctx, err, 50020, "failed to resolve employee")
		return nil
	}
	if claims, ok := ctx.Get(middleware.ContextClaimsKey); ok {
		// iat has second precision
		if iat := claims.(*utils.Claims).IssuedAt; iat == nil || iat.Time.Before(emp.UpdatedAt.Truncate(time.Second)) {
			utils.Error(ctx, http.StatusUnauthorized, 40106, "token predates an account change, log in again")
			return nil
		}
	}
	return emp
}

// authorizeEmployee lets admins act for anyone and employees only for themselves. It writes the
// failure response and returns false when the caller may not act for employeeID.
func (a *AttendanceController) authorizeEmployee(ctx *gin.Context, employeeID uint) bool {
	if ctx.GetString(middleware.ContextRoleKey) == services.RoleAdmin {
		return true
	}
	emp := a.currentEmployee(ctx)
	if emp == nil {
		return false
	}
	if emp.ID != employeeID {
		utils.Error(ctx, http.StatusForbidden, 40311, "cannot record attendance for another employee")
		return false
	}
	return true
}

// CheckIn opens an attendance record for the employee in the path.
func (a *AttendanceController) CheckIn(ctx *gin.Context) {
	employeeID, ok := parseID(ctx.Param("employeeId"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid employee id")
		return
	}
	var req locationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	if !a.authorizeEmployee(ctx, employeeID) {
		return
	}

	rec, err := a.attendance.CheckIn(ctx.Request.Context(), employeeID, req.location())
	if err != nil {
		respondError(ctx, err, 50021, "failed to check in")
		return
	}
	utils.Success(ctx, gin.H{"message": "Check-in successful", "attendance_id": rec.ID})
}

// CheckOut closes the attendance record in the path. A missing record is reported before the
// caller's ownership or location is looked at.
func (a *AttendanceController) CheckOut(ctx *gin.Context) {
	attendanceID, ok := parseID(ctx.Param("attendanceId"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid attendance id")
		return
	}
	var req locationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	rec, err := a.attendance.Get(ctx.Request.Context(), attendanceID)
	if err != nil {
		respondError(ctx, err, 50022, "failed to load attendance")
		return
	}
	if !a.authorizeEmployee(ctx, rec.EmployeeID) {
		return
	}

	if _, err := a.attendance.CheckOut(ctx.Request.Context(), attendanceID, req.location()); err != nil {
		respondError(ctx, err, 50023, "failed to check out")
		return
	}
	utils.Success(ctx, gin.H{"message": "Check-out successful"})
}

// Mine lists the calling employee's own attendance records.
func (a *AttendanceController) Mine(ctx *gin.Context) {
	start, end, err := parseRange(ctx)
	if err != nil {
		respondError(ctx, err, 50024, "failed to list attendance")
		return
	}
	emp := a.currentEmployee(ctx)
	if emp == nil {
		return
	}

	records, err := a.attendance.List(ctx.Request.Context(), services.AttendanceFilter{
		EmployeeID: &emp.ID,
		Start:      start,
		End:        end,
	})
	if err != nil {
		respondError(ctx, err, 50024, "failed to list attendance")
		return
	}
	utils.Success(ctx, records)
}
