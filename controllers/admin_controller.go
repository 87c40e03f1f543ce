package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/geoattend/services"
	"github.com/cppla/geoattend/utils"
)

// AdminController manages employees and reads the attendance ledger.
type AdminController struct {
	employees  *services.EmployeeService
	attendance *services.AttendanceService
}

func NewAdminController(employees *services.EmployeeService, attendance *services.AttendanceService) *AdminController {
	return &AdminController{employees: employees, attendance: attendance}
}

type employeeRequest struct {
	NIP      string `json:"nip" binding:"required,min=3"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password"`
}

func (r employeeRequest) input() services.EmployeeInput {
	return services.EmployeeInput{NIP: r.NIP, Name: r.Name, Password: r.Password}
}

type passwordRequest struct {
	Password string `json:"password" binding:"required"`
}

func (a *AdminController) employeeID(ctx *gin.Context) (uint, bool) {
	id, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid employee id")
	}
	return id, ok
}

// CreateEmployee registers a new employee. Password is mandatory here.
func (a *AdminController) CreateEmployee(ctx *gin.Context) {
	var req employeeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	emp, err := a.employees.Create(ctx.Request.Context(), req.input())
	if err != nil {
		respondError(ctx, err, 50030, "failed to create employee")
		return
	}
	utils.Success(ctx, emp)
}

func (a *AdminController) ListEmployees(ctx *gin.Context) {
	employees, err := a.employees.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, 50031, "failed to list employees")
		return
	}
	utils.Success(ctx, employees)
}

func (a *AdminController) GetEmployee(ctx *gin.Context) {
	id, ok := a.employeeID(ctx)
	if !ok {
		return
	}
	emp, err := a.employees.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, 50032, "failed to get employee")
		return
	}
	utils.Success(ctx, emp)
}

// UpdateEmployee overwrites NIP and name; the password changes only when one is supplied.
func (a *AdminController) UpdateEmployee(ctx *gin.Context) {
	id, ok := a.employeeID(ctx)
	if !ok {
		return
	}
	var req employeeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	emp, err := a.employees.Update(ctx.Request.Context(), id, req.input())
	if err != nil {
		respondError(ctx, err, 50033, "failed to update employee")
		return
	}
	utils.Success(ctx, emp)
}

func (a *AdminController) DeleteEmployee(ctx *gin.Context) {
	id, ok := a.employeeID(ctx)
	if !ok {
		return
	}
	if err := a.employees.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err, 50034, "failed to delete employee")
		return
	}
	utils.Success(ctx, gin.H{"message": "Employee deleted successfully."})
}

func (a *AdminController) ChangePassword(ctx *gin.Context) {
	id, ok := a.employeeID(ctx)
	if !ok {
		return
	}
	var req passwordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	if err := a.employees.ChangePassword(ctx.Request.Context(), id, req.Password); err != nil {
		respondError(ctx, err, 50035, "failed to change password")
		return
	}
	utils.Success(ctx, gin.H{"message": "Password updated successfully."})
}

// ListAttendances filters the ledger by employee_id, start_date and end_date (all optional,
// inclusive bounds on check-in time).
func (a *AdminController) ListAttendances(ctx *gin.Context) {
	var filter services.AttendanceFilter
	if raw := ctx.Query("employee_id"); raw != "" {
		id, ok := parseID(raw)
		if !ok {
			utils.Error(ctx, http.StatusBadRequest, 40003, "invalid employee id")
			return
		}
		filter.EmployeeID = &id
	}
	start, end, err := parseRange(ctx)
	if err != nil {
		respondError(ctx, err, 50036, "failed to list attendance")
		return
	}
	filter.Start, filter.End = start, end

	records, err := a.attendance.List(ctx.Request.Context(), filter)
	if err != nil {
		respondError(ctx, err, 50036, "failed to list attendance")
		return
	}
	utils.Success(ctx, records)
}
