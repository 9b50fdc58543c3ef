package service

import (
	"context"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService interface {
	ListUsers(ctx context.Context) ([]model.UserResponse, error)
	UpdateRole(ctx context.Context, userID uuid.UUID, role model.Role, actor Actor) (*model.UserResponse, error)
	DeleteUser(ctx context.Context, userID uuid.UUID, actor Actor) error
	ResetPassword(ctx context.Context, email, newPassword string) error
}

type UpdateRoleRequest struct {
	Role model.Role `json:"role"`
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log.Named("user"),
	}
}

func (s *userService) ListUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) UpdateRole(ctx context.Context, userID uuid.UUID, role model.Role, actor Actor) (*model.UserResponse, error) {
	if !role.Valid() {
		return nil, apperror.Validation("Role must be either admin or staff")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.FromDB(err, "User not found")
	}
	if err := s.userRepo.UpdateRole(ctx, user.ID, role, actor.ID); err != nil {
		return nil, apperror.FromDB(err, "User not found")
	}

	s.log.Info("role updated",
		zap.String("user_id", user.ID.String()),
		zap.String("from", string(user.Role)),
		zap.String("to", string(role)),
		zap.String("by", actor.ID),
	)
	user.Role = role
	resp := user.ToResponse()
	return &resp, nil
}

// DeleteUser removes userID. Callers may not delete themselves.
func (s *userService) DeleteUser(ctx context.Context, userID uuid.UUID, actor Actor) error {
	if userID.String() == actor.ID {
		return apperror.Validation("Cannot delete your own account")
	}

	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return apperror.FromDB(err, "User not found")
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return apperror.FromDB(err, "User not found")
	}
	s.log.Info("user deleted", zap.String("user_id", userID.String()), zap.String("by", actor.ID))
	return nil
}

// ResetPassword sets a new password without the current one. It backs the
// operator CLI and is not exposed over HTTP.
func (s *userService) ResetPassword(ctx context.Context, email, newPassword string) error {
	if len(newPassword) < 6 {
		return apperror.Validation("Password must be at least 6 characters")
	}

	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return apperror.FromDB(err, "User not found")
	}
	if err := user.SetPassword(newPassword); err != nil {
		return apperror.Internal(err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return apperror.FromDB(err, "User not found")
	}

	s.log.Info("password reset", zap.String("user_id", user.ID.String()))
	return nil
}
