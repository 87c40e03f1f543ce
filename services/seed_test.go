package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/geoattend/models"
)

func TestSeedIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, db, testHasher, "Admin@Example.com", ""))
	require.NoError(t, Seed(ctx, db, testHasher, "admin@example.com", "other"))

	var admins []models.Admin
	require.NoError(t, db.Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@example.com", admins[0].Email)
	assert.True(t, testHasher.Verify(admins[0].PasswordHash, DefaultAdminPassword))

	employees, err := NewEmployeeService(db, testHasher).List(ctx)
	require.NoError(t, err)
	require.Len(t, employees, len(DemoEmployees))
	assert.Equal(t, "123456", employees[0].NIP)
	assert.Equal(t, "Jane Smith", employees[1].Name)
}

func TestSeedRejectsEmptyAdminEmail(t *testing.T) {
	db := newTestDB(t)
	err := Seed(context.Background(), db, testHasher, " ", "pw")
	assert.ErrorIs(t, err, ErrValidation)
}
