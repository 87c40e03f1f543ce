package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/geoattend/geofence"
	"github.com/cppla/geoattend/models"
	"github.com/cppla/geoattend/utils"
)

// Location is what the client reports at check-in or check-out.
type Location struct {
	Latitude      float64
	Longitude     float64
	MockLocation  bool
	DeveloperMode bool
}

// AttendanceFilter narrows List. Nil fields are unconstrained.
type AttendanceFilter struct {
	EmployeeID *uint
	Start      *time.Time
	End        *time.Time
}

// AttendanceService records check-ins and check-outs inside the configured geofence.
type AttendanceService struct {
	db                   *gorm.DB
	fence                *geofence.Checker
	now                  func() time.Time
	rejectRepeatCheckout bool
}

// AttendanceOption customises an AttendanceService.
type AttendanceOption func(*AttendanceService)

// WithClock replaces the server clock used for check-in and check-out times.
func WithClock(now func() time.Time) AttendanceOption {
	return func(s *AttendanceService) { s.now = now }
}

// WithRejectRepeatCheckout makes a second check-out of the same record fail with ErrAlreadyCheckedOut
// instead of overwriting the previous check-out.
func WithRejectRepeatCheckout(reject bool) AttendanceOption {
	return func(s *AttendanceService) { s.rejectRepeatCheckout = reject }
}

func NewAttendanceService(db *gorm.DB, fence *geofence.Checker, opts ...AttendanceOption) *AttendanceService {
	s := &AttendanceService{db: db, fence: fence, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AttendanceService) inside(loc Location) bool {
	if s.fence.Contains(loc.Latitude, loc.Longitude) {
		return true
	}
	if zone, meters, ok := s.fence.Nearest(loc.Latitude, loc.Longitude); ok {
		utils.Logger.Info("attendance outside geofence",
			zap.Float64("lat", loc.Latitude),
			zap.Float64("lon", loc.Longitude),
			zap.String("nearest_zone", zone.ID),
			zap.Float64("distance_m", meters))
	}
	return false
}

// CheckIn opens a new attendance record for employeeID. Nothing is stored when the location is
// outside every zone. A missing employee surfaces as a storage error from the foreign key.
func (s *AttendanceService) CheckIn(ctx context.Context, employeeID uint, loc Location) (*models.Attendance, error) {
	if !s.inside(loc) {
		return nil, ErrOutsideGeofence
	}

	lat, lon := loc.Latitude, loc.Longitude
	rec := models.Attendance{
		EmployeeID:           employeeID,
		CheckInTime:          s.now().UTC(),
		CheckInLatitude:      &lat,
		CheckInLongitude:     &lon,
		MockLocation:         loc.MockLocation,
		DeveloperMode:        loc.DeveloperMode,
		CheckInMockLocation:  loc.MockLocation,
		CheckInDeveloperMode: loc.DeveloperMode,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("create attendance: %w", err)
	}
	if loc.MockLocation || loc.DeveloperMode {
		utils.Logger.Warn("suspicious client state at check-in",
			zap.Uint("attendance_id", rec.ID),
			zap.Uint("employee_id", employeeID),
			zap.Bool("mock_location", loc.MockLocation),
			zap.Bool("developer_mode", loc.DeveloperMode))
	}
	return &rec, nil
}

// Get returns the attendance record with the given id.
func (s *AttendanceService) Get(ctx context.Context, id uint) (*models.Attendance, error) {
	var rec models.Attendance
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttendanceNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// CheckOut closes the attendance record. The record must exist before the location is looked at.
// A repeated check-out overwrites the previous check-out fields and bumps CheckoutCount unless
// repeat check-outs are rejected. Check-in coordinates and flags are never touched.
func (s *AttendanceService) CheckOut(ctx context.Context, attendanceID uint, loc Location) (*models.Attendance, error) {
	rec, err := s.Get(ctx, attendanceID)
	if err != nil {
		return nil, err
	}
	if !s.inside(loc) {
		return nil, ErrOutsideGeofence
	}
	if rec.CheckedOut() {
		if s.rejectRepeatCheckout {
			return nil, ErrAlreadyCheckedOut
		}
		utils.Logger.Warn("repeated check-out overwrites previous one",
			zap.Uint("attendance_id", rec.ID),
			zap.Int("checkout_count", rec.CheckoutCount+1))
	}

	now := s.now().UTC()
	lat, lon := loc.Latitude, loc.Longitude
	mock, dev := loc.MockLocation, loc.DeveloperMode
	q := s.db.WithContext(ctx).Model(rec)
	if s.rejectRepeatCheckout {
		// a concurrent check-out may have landed since the read above
		q = q.Where("check_out_time IS NULL")
	}
	res := q.Updates(map[string]interface{}{
		"check_out_time":           now,
		"check_out_latitude":       lat,
		"check_out_longitude":      lon,
		"check_out_mock_location":  mock,
		"check_out_developer_mode": dev,
		"mock_location":            mock,
		"developer_mode":           dev,
		"checkout_count":           gorm.Expr("checkout_count + 1"),
	})
	if res.Error != nil {
		return nil, fmt.Errorf("update attendance: %w", res.Error)
	}
	if s.rejectRepeatCheckout && res.RowsAffected == 0 {
		return nil, ErrAlreadyCheckedOut
	}

	rec.CheckOutTime = &now
	rec.CheckOutLatitude = &lat
	rec.CheckOutLongitude = &lon
	rec.CheckOutMockLocation = &mock
	rec.CheckOutDeveloperMode = &dev
	rec.MockLocation = mock
	rec.DeveloperMode = dev
	rec.CheckoutCount++
	return rec, nil
}

// List returns the records matching every supplied filter, oldest check-in first.
func (s *AttendanceService) List(ctx context.Context, f AttendanceFilter) ([]models.Attendance, error) {
	q := s.db.WithContext(ctx).Model(&models.Attendance{})
	if f.EmployeeID != nil {
		q = q.Where("employee_id = ?", *f.EmployeeID)
	}
	if f.Start != nil {
		q = q.Where("check_in_time >= ?", f.Start.UTC())
	}
	if f.End != nil {
		q = q.Where("check_in_time <= ?", f.End.UTC())
	}

	records := []models.Attendance{}
	if err := q.Order("check_in_time, id").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
