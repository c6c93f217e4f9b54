package services

import (
	"context"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
	"github.com/igorsal/iam-dashboard/internal/models"
)

type DomainService struct {
	client interfaces.IAMClient
	logger interfaces.Logger
}

var _ interfaces.DomainService = (*DomainService)(nil)

func NewDomainService(client interfaces.IAMClient, logger interfaces.Logger) *DomainService {
	return &DomainService{client: client, logger: logger}
}

func (s *DomainService) List(ctx context.Context, q models.ListQuery) (*models.DomainsPage, error) {
	return s.client.ListDomains(ctx, q)
}

// ListAll loads every domain for pickers in a single oversized page
func (s *DomainService) ListAll(ctx context.Context) ([]models.Domain, error) {
	page, err := s.client.ListDomains(ctx, models.ListQuery{Page: 1, Limit: models.PickerLimit})
	if err != nil {
		return nil, err
	}
	if page.Domains == nil {
		return []models.Domain{}, nil
	}
	return page.Domains, nil
}

// Create adds a domain, then re-fetches the list at q. A failed re-fetch
// after an accepted create is returned as an ErrorTypeRefresh error.
func (s *DomainService) Create(ctx context.Context, q models.ListQuery, in models.DomainInput) (*models.DomainsPage, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.client.CreateDomain(ctx, in); err != nil {
		return nil, err
	}
	s.logger.Info("Domain created", "name", in.Name, "domain", in.Domain)
	page, err := s.List(ctx, q)
	return page, refreshed(err)
}

func (s *DomainService) Update(ctx context.Context, q models.ListQuery, domainID string, in models.DomainInput) (*models.DomainsPage, error) {
	if err := requireID("Domain", domainID); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.client.UpdateDomain(ctx, domainID, in); err != nil {
		return nil, err
	}
	s.logger.Info("Domain updated", "domain_id", domainID)
	page, err := s.List(ctx, q)
	return page, refreshed(err)
}

func (s *DomainService) Delete(ctx context.Context, q models.ListQuery, domainID string) (*models.DomainsPage, error) {
	if err := requireID("Domain", domainID); err != nil {
		return nil, err
	}
	if err := s.client.DeleteDomain(ctx, domainID); err != nil {
		return nil, err
	}
	s.logger.Info("Domain deleted", "domain_id", domainID)
	page, err := s.List(ctx, q)
	return page, refreshed(err)
}
