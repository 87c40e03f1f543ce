package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrValidation marks input rejected before it reaches storage.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateNIP is returned when another employee already uses the NIP.
	ErrDuplicateNIP = errors.New("employee with this NIP already exists")

	ErrEmployeeNotFound = errors.New("employee not found")

	ErrAttendanceNotFound = errors.New("attendance record not found")

	// ErrInvalidCredentials never says whether the identity or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrOutsideGeofence = errors.New("you are not within the allowed attendance location radius")

	// ErrAlreadyCheckedOut is only returned when repeat check-outs are configured to be rejected.
	ErrAlreadyCheckedOut = errors.New("attendance already checked out")

	ErrEmployeeHasAttendance = errors.New("employee has attendance records")
)

// isDuplicateKey reports whether err is a unique constraint violation from any supported driver.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}

// isForeignKeyViolation reports whether err is a foreign key violation from any supported driver.
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint")
}
