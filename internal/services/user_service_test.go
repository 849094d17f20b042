package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/course-platform/internal/dto"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/models"
)

func TestUserService_Profile(t *testing.T) {
	f := newAuthFixture(t, true)
	created := f.signUp(t, "me@example.com", "password123")

	got, err := f.users.Profile(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, models.RoleUser, got.Role)

	_, err = f.users.Profile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	f := newAuthFixture(t, true)
	created := f.signUp(t, "edit@example.com", "password123")

	name := "  Renamed  "
	image := "https://img/new.png"
	got, err := f.users.UpdateProfile(context.Background(), created.ID, &dto.UpdateProfileRequest{Name: &name, Image: &image})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", *got.Name)
	assert.Equal(t, image, *got.Image)

	var user models.User
	require.NoError(t, f.db.First(&user, "id = ?", created.ID).Error)
	assert.Equal(t, "Renamed", *user.Name)
	assert.Equal(t, "edit@example.com", *user.Email)

	blank := "   "
	_, err = f.users.UpdateProfile(context.Background(), created.ID, &dto.UpdateProfileRequest{Name: &blank})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.users.UpdateProfile(context.Background(), uuid.New(), &dto.UpdateProfileRequest{Name: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
