package service

import (
	"context"
	"testing"

	"github.com/chainsense/backend/internal/model"
	"github.com/chainsense/backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) seedPortalUser(t *testing.T, role string) *model.User {
	t.Helper()
	user := &model.User{
		Username: "portal-" + uuid.NewString()[:8],
		Email:    uuid.NewString()[:8] + "@vendor.example",
		Password: "x",
		Role:     role,
	}
	require.NoError(t, e.userRepo.Create(context.Background(), user))
	return user
}

func TestCreateVendorWithPortalLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedPortalUser(t, model.RoleVendor)
	vendor, err := env.vendors.Create(ctx, CreateVendorRequest{
		Name:         "Acme Packaging",
		Email:        "ap@acme.example",
		PaymentTerms: "Net 45",
		UserID:       user.ID.String(),
	})
	require.NoError(t, err)
	require.NotNil(t, vendor.UserID)
	assert.Equal(t, user.ID, *vendor.UserID)

	resolved, err := env.vendors.VendorForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, vendor.ID, resolved.ID)
}

func TestCreateVendorRejectsNonVendorLink(t *testing.T) {
	env := newTestEnv(t)

	user := env.seedPortalUser(t, model.RoleStaff)
	_, err := env.vendors.Create(context.Background(), CreateVendorRequest{
		Name:   "Acme Packaging",
		UserID: user.ID.String(),
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestCreateVendorRejectsDoubleLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedPortalUser(t, model.RoleVendor)
	_, err := env.vendors.Create(ctx, CreateVendorRequest{Name: "First", UserID: user.ID.String()})
	require.NoError(t, err)

	_, err = env.vendors.Create(ctx, CreateVendorRequest{Name: "Second", UserID: user.ID.String()})
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestVendorForUserWithoutLink(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.vendors.VendorForUser(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}
