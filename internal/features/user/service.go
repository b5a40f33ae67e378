package user

import (
	"context"

	"crm-support/internal/common/models"
)

// UserService exposes the directory lookups other features need: resolving
// a technician's name/email for notifications and listing users for
// assignment pickers.
type UserService interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)
}

type UserServiceImpl struct {
	UserRepo UserRepository
}

func NewUserService(userRepo UserRepository) UserService {
	return &UserServiceImpl{
		UserRepo: userRepo,
	}
}

func (s *UserServiceImpl) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.UserRepo.FindByID(ctx, id)
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	return s.UserRepo.ListByRole(ctx, role)
}
