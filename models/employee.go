package models

import (
	"time"

	"gorm.io/gorm"
)

// Employee is a staff member who checks in and out. NIP is the employee number used to log in.
// Passwords are stored as bcrypt hashes only.
type Employee struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	NIP          string    `gorm:"column:nip;size:64;uniqueIndex;not null" json:"nip"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (e *Employee) BeforeUpdate(tx *gorm.DB) error {
	e.UpdatedAt = time.Now().UTC()
	return nil
}
