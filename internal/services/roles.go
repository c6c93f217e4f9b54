package services

import (
	"context"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
	"github.com/igorsal/iam-dashboard/internal/models"
)

type RoleService struct {
	client interfaces.IAMClient
	logger interfaces.Logger
}

var _ interfaces.RoleService = (*RoleService)(nil)

func NewRoleService(client interfaces.IAMClient, logger interfaces.Logger) *RoleService {
	return &RoleService{client: client, logger: logger}
}

// List returns nil without calling the backend when no domain is selected
func (s *RoleService) List(ctx context.Context, domainID string, q models.ListQuery) (*models.RolesPage, error) {
	if domainID == "" {
		return nil, nil
	}
	return s.client.ListRoles(ctx, domainID, q)
}

func (s *RoleService) Create(ctx context.Context, domainID string, q models.ListQuery, in models.RoleInput) (*models.RolesPage, error) {
	if err := requireID("Domain", domainID); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.client.CreateRole(ctx, domainID, in); err != nil {
		return nil, err
	}
	s.logger.Info("Role created", "domain_id", domainID, "role_name", in.RoleName)
	page, err := s.List(ctx, domainID, q)
	return page, refreshed(err)
}
