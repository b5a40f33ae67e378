package auth

import (
	"context"
	"fmt"

	"crm-support/internal/common/apperr"
	"crm-support/internal/common/models"
	"crm-support/internal/features/user"
	"crm-support/pkg/utils"
)

type AuthService interface {
	Register(ctx context.Context, name, email, password, phone string, role models.Role) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
}

type AuthServiceImpl struct {
	UserRepo user.UserRepository
}

func NewAuthService(userRepo user.UserRepository) AuthService {
	return &AuthServiceImpl{
		UserRepo: userRepo,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, name, email, password, phone string, role models.Role) (*models.User, error) {
	if existing, _ := s.UserRepo.FindByEmail(ctx, email); existing != nil {
		return nil, fmt.Errorf("email already registered")
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	if role == "" {
		role = models.RoleCustomer
	}

	newUser := &models.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Phone:    phone,
		Role:     role,
	}

	if err := s.UserRepo.Create(ctx, newUser); err != nil {
		return nil, err
	}

	return newUser, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	u, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}

	if err := utils.ComparePassword(u.Password, password); err != nil {
		return "", nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}

	token, err := utils.GenerateToken(u.ID, u.Name, u.Email, string(u.Role))
	if err != nil {
		return "", nil, err
	}

	return token, u, nil
}
