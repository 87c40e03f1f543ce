package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/geoattend/models"
)

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// Identity is a login candidate returned by an IdentityProvider.
type Identity struct {
	Subject      string
	Role         string
	PasswordHash string
}

// IdentityProvider looks up one kind of account by login identifier.
// A nil Identity with a nil error means no such account.
type IdentityProvider interface {
	Lookup(ctx context.Context, identifier string) (*Identity, error)
}

// AdminProvider resolves admins by email.
type AdminProvider struct {
	db *gorm.DB
}

func NewAdminProvider(db *gorm.DB) *AdminProvider {
	return &AdminProvider{db: db}
}

func (p *AdminProvider) Lookup(ctx context.Context, identifier string) (*Identity, error) {
	var admin models.Admin
	err := p.db.WithContext(ctx).Where("email = ?", strings.ToLower(identifier)).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Identity{Subject: admin.Email, Role: RoleAdmin, PasswordHash: admin.PasswordHash}, nil
}

// EmployeeProvider resolves employees by NIP.
type EmployeeProvider struct {
	db *gorm.DB
}

func NewEmployeeProvider(db *gorm.DB) *EmployeeProvider {
	return &EmployeeProvider{db: db}
}

func (p *EmployeeProvider) Lookup(ctx context.Context, identifier string) (*Identity, error) {
	var emp models.Employee
	err := p.db.WithContext(ctx).Where("nip = ?", identifier).First(&emp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Identity{Subject: emp.NIP, Role: RoleEmployee, PasswordHash: emp.PasswordHash}, nil
}
