package service

import (
	"context"
	"testing"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func register(t *testing.T, f *fixture, email string, role model.Role) *model.UserResponse {
	t.Helper()
	u, err := f.auth.Register(context.Background(), &RegisterRequest{
		Email: email, Password: "secret1", Name: "Test User", Role: role,
	}, SystemActor)
	require.NoError(t, err)
	return u
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := register(t, f, "Admin@Example.com", model.RoleAdmin)
	assert.Equal(t, "admin@example.com", u.Email)

	_, err := f.auth.Register(ctx, &RegisterRequest{
		Email: "admin@example.com", Password: "secret1", Name: "Dup", Role: model.RoleStaff,
	}, SystemActor)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	_, err = f.auth.Register(ctx, &RegisterRequest{
		Email: "x@example.com", Password: "secret1", Name: "X", Role: "owner",
	}, SystemActor)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = f.auth.Register(ctx, &RegisterRequest{Email: "x@example.com", Role: model.RoleStaff}, SystemActor)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	resp, err := f.auth.Login(ctx, &LoginRequest{Email: "admin@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, u.ID, resp.User.ID)
	assert.Contains(t, resp.Privileges, model.PrivStockDelete)

	_, wrongPass := f.auth.Login(ctx, &LoginRequest{Email: "admin@example.com", Password: "nope"})
	_, noUser := f.auth.Login(ctx, &LoginRequest{Email: "ghost@example.com", Password: "secret1"})
	assert.Equal(t, apperror.KindAuth, apperror.KindOf(wrongPass))
	assert.Equal(t, wrongPass.Error(), noUser.Error())

	_, err = f.auth.Login(ctx, &LoginRequest{Email: "admin@example.com"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := register(t, f, "staff@example.com", model.RoleStaff)

	err := f.auth.ChangePassword(ctx, u.ID, &ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "newsecret"})
	assert.Equal(t, apperror.KindAuth, apperror.KindOf(err))

	err = f.auth.ChangePassword(ctx, u.ID, &ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "123"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	require.NoError(t, f.auth.ChangePassword(ctx, u.ID, &ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "newsecret"}))
	_, err = f.auth.Login(ctx, &LoginRequest{Email: "staff@example.com", Password: "newsecret"})
	assert.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := register(t, f, "me@example.com", model.RoleStaff)
	register(t, f, "taken@example.com", model.RoleStaff)

	phone, dob := "0812345", "1990-05-17"
	updated, err := f.auth.UpdateProfile(ctx, u.ID, &UpdateProfileRequest{Phone: &phone, DOB: &dob})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)
	assert.Equal(t, dob, updated.DOB)
	assert.Equal(t, "Test User", updated.Name)

	taken := "taken@example.com"
	_, err = f.auth.UpdateProfile(ctx, u.ID, &UpdateProfileRequest{Email: &taken})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	badDOB := "17/05/1990"
	_, err = f.auth.UpdateProfile(ctx, u.ID, &UpdateProfileRequest{DOB: &badDOB})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	profile, err := f.auth.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", profile.Email)

	_, err = f.auth.GetProfile(ctx, uuid.New())
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestUserAdministration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := register(t, f, "admin@example.com", model.RoleAdmin)
	staff := register(t, f, "staff@example.com", model.RoleStaff)
	actor := Actor{ID: admin.ID.String(), Role: model.RoleAdmin, Label: admin.Email}

	users, err := f.user.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	promoted, err := f.user.UpdateRole(ctx, staff.ID, model.RoleAdmin, actor)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, promoted.Role)

	_, err = f.user.UpdateRole(ctx, staff.ID, "root", actor)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	_, err = f.user.UpdateRole(ctx, uuid.New(), model.RoleStaff, actor)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	err = f.user.DeleteUser(ctx, admin.ID, actor)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	_, err = f.users.FindByID(ctx, admin.ID)
	assert.NoError(t, err, "self-delete must leave the account in place")

	require.NoError(t, f.user.DeleteUser(ctx, staff.ID, actor))
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(f.user.DeleteUser(ctx, staff.ID, actor)))
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	register(t, f, "ops@example.com", model.RoleAdmin)

	require.NoError(t, f.user.ResetPassword(ctx, " OPS@example.com ", "brand-new"))
	_, err := f.auth.Login(ctx, &LoginRequest{Email: "ops@example.com", Password: "secret1"})
	assert.Equal(t, apperror.KindAuth, apperror.KindOf(err))
	_, err = f.auth.Login(ctx, &LoginRequest{Email: "ops@example.com", Password: "brand-new"})
	assert.NoError(t, err)

	assert.Equal(t, apperror.KindValidation, apperror.KindOf(f.user.ResetPassword(ctx, "ops@example.com", "123")))
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(f.user.ResetPassword(ctx, "nobody@example.com", "secret1")))
}
