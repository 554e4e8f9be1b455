package services

import (
	"context"
	"errors"
	"log"

	"gatherly-api/internal/adapters/persistence/models"
	"gatherly-api/internal/adapters/persistence/repositories"
	"gatherly-api/internal/pkg/password"
)

// User service errors
var (
	ErrUserNotFoundSvc    = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrOldPasswordWrong   = errors.New("old password is incorrect")
)

// UserService handles user profile business logic
type UserService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, refreshTokenRepo repositories.RefreshTokenRepository) *UserService {
	return &UserService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
	}
}

// GetProfile gets a user's own profile
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFoundSvc
	}
	return user.ToResponse(), nil
}

// UpdateProfileInput represents profile update input
type UpdateProfileInput struct {
	Email *string `json:"email"`
}

// UpdateProfile updates a user's own profile
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input *UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFoundSvc
	}

	if input.Email != nil && *input.Email != user.Email {
		exists, err := s.userRepo.ExistsByEmail(ctx, *input.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrEmailAlreadyExists
		}
		user.Email = *input.Email
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user.ToResponse(), nil
}

// ChangePasswordInput represents password change input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword changes a user's password and revokes all sessions
func (s *UserService) ChangePassword(ctx context.Context, userID string, input *ChangePasswordInput) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return ErrUserNotFoundSvc
	}

	// 1. Verify old password
	if !password.Verify(input.OldPassword, user.Password) {
		return ErrOldPasswordWrong
	}

	// 2. Hash and store new password
	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hashed

	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	// 3. Revoke all sessions so old tokens stop working
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		log.Printf("⚠️ Failed to revoke sessions after password change for user %s: %v", userID, err)
	}

	log.Printf("✅ Password changed for user: %s", user.Username)
	return nil
}

// ListUsersInput represents admin user listing input
type ListUsersInput struct {
	Page  int
	Limit int
}

// ListUsersResult represents paginated user listing
type ListUsersResult struct {
	Users []*models.UserResponse `json:"users"`
	Total int64                  `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

// ListUsers lists users (admin only)
func (s *UserService) ListUsers(ctx context.Context, input *ListUsersInput) (*ListUsersResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit < 1 || limit > 100 {
		limit = 10
	}

	users, total, err := s.userRepo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}

	return &ListUsersResult{
		Users: responses,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

// DeactivateUser deactivates a user account (admin only)
func (s *UserService) DeactivateUser(ctx context.Context, userID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return ErrUserNotFoundSvc
	}

	user.IsActive = false
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	// Deactivated users lose all sessions immediately
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		log.Printf("⚠️ Failed to revoke sessions for deactivated user %s: %v", userID, err)
	}

	log.Printf("✅ User deactivated: %s", user.Username)
	return nil
}
