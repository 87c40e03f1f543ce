package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/geoattend/utils"
)

// DefaultAdminPassword is used by Seed when no admin password is configured.
const DefaultAdminPassword = "adminpassword"

// DemoEmployees are created by Seed when missing.
var DemoEmployees = []EmployeeInput{
	{NIP: "123456", Name: "John Doe", Password: "password1"},
	{NIP: "654321", Name: "Jane Smith", Password: "password2"},
}

// Seed provisions the admin account and the demo employees. Existing rows are left as they are,
// so running it twice is harmless.
func Seed(ctx context.Context, db *gorm.DB, hasher utils.PasswordHasher, adminEmail, adminPassword string) error {
	if adminPassword == "" {
		utils.Logger.Warn("ADMIN_PASSWORD not set, seeding admin with the default password")
		adminPassword = DefaultAdminPassword
	}
	created, err := ProvisionAdmin(ctx, db, hasher, adminEmail, adminPassword)
	if err != nil {
		return fmt.Errorf("provision admin: %w", err)
	}
	utils.Logger.Info("admin seeded", zap.String("email", adminEmail), zap.Bool("created", created))

	employees := NewEmployeeService(db, hasher)
	for _, in := range DemoEmployees {
		emp, err := employees.Create(ctx, in)
		if errors.Is(err, ErrDuplicateNIP) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed employee %s: %w", in.NIP, err)
		}
		utils.Logger.Info("employee seeded", zap.Uint("id", emp.ID), zap.String("nip", emp.NIP))
	}
	return nil
}
