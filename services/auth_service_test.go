package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/geoattend/models"
	"github.com/cppla/geoattend/utils"
)

func seededAuth(t *testing.T) (*AuthService, *gorm.DB, *utils.TokenIssuer) {
	t.Helper()
	db := newTestDB(t)
	ctx := context.Background()

	created, err := ProvisionAdmin(ctx, db, testHasher, "admin@example.com", "adminpassword")
	require.NoError(t, err)
	require.True(t, created)

	employees := NewEmployeeService(db, testHasher)
	mustCreateEmployee(t, employees, "123456", "John Doe", "password1")
	mustCreateEmployee(t, employees, "654321", "Jane Smith", "password2")

	tokens := utils.NewTokenIssuer("test-secret", time.Hour)
	auth := NewAuthService(testHasher, tokens, NewAdminProvider(db), NewEmployeeProvider(db))
	return auth, db, tokens
}

func TestLoginScenarios(t *testing.T) {
	auth, _, tokens := seededAuth(t)
	ctx := context.Background()

	res, err := auth.Login(ctx, "admin@example.com", "adminpassword")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, res.Role)
	assert.Equal(t, "bearer", res.TokenType)

	claims, err := tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)

	res, err = auth.Login(ctx, "123456", "password1")
	require.NoError(t, err)
	assert.Equal(t, RoleEmployee, res.Role)
	claims, err = tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "123456", claims.Subject)
	assert.Equal(t, RoleEmployee, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), res.ExpiresAt, 5*time.Second)
}

func TestLoginRejectsWrongPasswordAndUnknownIdentity(t *testing.T) {
	auth, _, _ := seededAuth(t)
	ctx := context.Background()

	cases := []struct{ identifier, password string }{
		{"admin@example.com", "wrong"},
		{"admin@example.com", "password1"},
		{"123456", "password2"},
		{"123456", "adminpassword"},
		{"nobody@example.com", "adminpassword"},
		{"000000", "password1"},
		{"", "password1"},
		{"123456", ""},
	}
	for _, c := range cases {
		res, err := auth.Login(ctx, c.identifier, c.password)
		assert.Nil(t, res, "%s/%s", c.identifier, c.password)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		// one message for every cause
		assert.Equal(t, "invalid credentials", err.Error())
	}
}

func TestLoginAdminEmailIsCaseInsensitive(t *testing.T) {
	auth, _, _ := seededAuth(t)

	res, err := auth.Login(context.Background(), "  Admin@Example.com ", "adminpassword")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, res.Role)
}

func TestLoginFallsThroughToNextProvider(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// an admin and an employee share the same identifier; the admin password does not match
	_, err := ProvisionAdmin(ctx, db, testHasher, "shared@example.com", "admin-pass")
	require.NoError(t, err)
	mustCreateEmployee(t, NewEmployeeService(db, testHasher), "shared@example.com", "Shared", "employee-pass")

	auth := NewAuthService(testHasher, utils.NewTokenIssuer("s", time.Hour), NewAdminProvider(db), NewEmployeeProvider(db))

	res, err := auth.Login(ctx, "shared@example.com", "employee-pass")
	require.NoError(t, err)
	assert.Equal(t, RoleEmployee, res.Role)

	res, err = auth.Login(ctx, "shared@example.com", "admin-pass")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, res.Role)
}

type failingProvider struct{}

func (failingProvider) Lookup(context.Context, string) (*Identity, error) {
	return nil, errors.New("connection refused")
}

func TestLoginPropagatesStorageFailure(t *testing.T) {
	auth := NewAuthService(testHasher, utils.NewTokenIssuer("s", time.Hour), failingProvider{})

	_, err := auth.Login(context.Background(), "123456", "password1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestProvisionAdminIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created, err := ProvisionAdmin(ctx, db, testHasher, "admin@example.com", "adminpassword")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = ProvisionAdmin(ctx, db, testHasher, "ADMIN@example.com", "other")
	require.NoError(t, err)
	assert.False(t, created)

	var admins []models.Admin
	require.NoError(t, db.Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.True(t, testHasher.Verify(admins[0].PasswordHash, "adminpassword"), "existing admin is never updated")

	_, err = ProvisionAdmin(ctx, db, testHasher, "", "x")
	assert.ErrorIs(t, err, ErrValidation)
}
