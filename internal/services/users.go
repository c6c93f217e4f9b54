package services

import (
	"context"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
	"github.com/igorsal/iam-dashboard/internal/models"
)

type UserService struct {
	client interfaces.IAMClient
	logger interfaces.Logger
}

var _ interfaces.UserService = (*UserService)(nil)

func NewUserService(client interfaces.IAMClient, logger interfaces.Logger) *UserService {
	return &UserService{client: client, logger: logger}
}

// List returns nil without calling the backend when no domain is selected
func (s *UserService) List(ctx context.Context, domainID string, q models.ListQuery) (*models.UsersPage, error) {
	if domainID == "" {
		return nil, nil
	}
	return s.client.ListUsers(ctx, domainID, q)
}

// Create adds a user and re-fetches the list of the user's domain
func (s *UserService) Create(ctx context.Context, q models.ListQuery, in models.UserInput) (*models.UsersPage, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.client.CreateUser(ctx, in); err != nil {
		return nil, err
	}
	s.logger.Info("User created", "domain_id", in.DomainID, "username", in.Username)
	page, err := s.List(ctx, in.DomainID, q)
	return page, refreshed(err)
}

func (s *UserService) ResetPassword(ctx context.Context, userID string, in models.PasswordReset) error {
	if err := requireID("User", userID); err != nil {
		return err
	}
	if err := validateInput(in); err != nil {
		return err
	}
	if err := s.client.ResetPassword(ctx, userID, in); err != nil {
		return err
	}
	s.logger.Info("User password reset", "user_id", userID)
	return nil
}
