package models

import "time"

// Attendance is one check-in/check-out cycle of an employee.
//
// MockLocation and DeveloperMode hold the flags of the latest event. The check-in flags are kept
// separately so a later check-out never loses them.
type Attendance struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	EmployeeID            uint       `gorm:"index;not null" json:"employee_id"`
	Employee              *Employee  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	CheckInTime           time.Time  `gorm:"index;not null" json:"check_in_time"`
	CheckOutTime          *time.Time `json:"check_out_time"`
	CheckInLatitude       *float64   `json:"check_in_latitude"`
	CheckInLongitude      *float64   `json:"check_in_longitude"`
	CheckOutLatitude      *float64   `json:"check_out_latitude"`
	CheckOutLongitude     *float64   `json:"check_out_longitude"`
	MockLocation          bool       `gorm:"not null;default:false" json:"mock_location"`
	DeveloperMode         bool       `gorm:"not null;default:false" json:"developer_mode"`
	CheckInMockLocation   bool       `gorm:"not null;default:false" json:"check_in_mock_location"`
	CheckInDeveloperMode  bool       `gorm:"not null;default:false" json:"check_in_developer_mode"`
	CheckOutMockLocation  *bool      `json:"check_out_mock_location"`
	CheckOutDeveloperMode *bool      `json:"check_out_developer_mode"`
	CheckoutCount         int        `gorm:"not null;default:0" json:"checkout_count"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// CheckedOut reports whether at least one check-out has been recorded.
func (a *Attendance) CheckedOut() bool {
	return a.CheckOutTime != nil
}
