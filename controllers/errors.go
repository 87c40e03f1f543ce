package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/geoattend/services"
	"github.com/cppla/geoattend/utils"
)

type errorMapping struct {
	err    error
	status int
	code   int
}

// serviceErrors maps domain errors to HTTP status and application code. First match wins.
var serviceErrors = []errorMapping{
	{services.ErrValidation, http.StatusBadRequest, 40002},
	{services.ErrDuplicateNIP, http.StatusBadRequest, 40010},
	{services.ErrOutsideGeofence, http.StatusBadRequest, 40020},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, 40110},
	{services.ErrEmployeeNotFound, http.StatusNotFound, 40410},
	{services.ErrAttendanceNotFound, http.StatusNotFound, 40420},
	{services.ErrAlreadyCheckedOut, http.StatusConflict, 40920},
	{services.ErrEmployeeHasAttendance, http.StatusConflict, 40910},
}

// respondError writes the mapped failure for err. Anything unmapped is logged and reported as a
// generic 500 with code and message.
func respondError(ctx *gin.Context, err error, code int, message string) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			msg := m.err.Error()
			if m.err == services.ErrValidation {
				msg = err.Error()
			}
			utils.Error(ctx, m.status, m.code, msg)
			return
		}
	}
	utils.Logger.Error(message,
		zap.Error(err),
		zap.String("path", ctx.FullPath()),
		zap.String("request_id", ctx.GetString(utils.ContextRequestIDKey)))
	utils.Error(ctx, http.StatusInternalServerError, code, message)
}
