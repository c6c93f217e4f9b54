package interfaces

import (
	"context"

	"github.com/igorsal/iam-dashboard/internal/models"
)

// IAMClient defines the transport to the IAM backend REST API
type IAMClient interface {
	Login(ctx context.Context, domainID string, creds models.Credentials) (*models.LoginResult, error)

	ListDomains(ctx context.Context, q models.ListQuery) (*models.DomainsPage, error)
	CreateDomain(ctx context.Context, in models.DomainInput) error
	UpdateDomain(ctx context.Context, domainID string, in models.DomainInput) error
	DeleteDomain(ctx context.Context, domainID string) error

	ListRoles(ctx context.Context, domainID string, q models.ListQuery) (*models.RolesPage, error)
	CreateRole(ctx context.Context, domainID string, in models.RoleInput) error

	ListUsers(ctx context.Context, domainID string, q models.ListQuery) (*models.UsersPage, error)
	CreateUser(ctx context.Context, in models.UserInput) error
	ResetPassword(ctx context.Context, userID string, in models.PasswordReset) error
}

// DomainService wraps the domain collection. Mutations re-fetch the list.
type DomainService interface {
	List(ctx context.Context, q models.ListQuery) (*models.DomainsPage, error)
	ListAll(ctx context.Context) ([]models.Domain, error)
	Create(ctx context.Context, q models.ListQuery, in models.DomainInput) (*models.DomainsPage, error)
	Update(ctx context.Context, q models.ListQuery, domainID string, in models.DomainInput) (*models.DomainsPage, error)
	Delete(ctx context.Context, q models.ListQuery, domainID string) (*models.DomainsPage, error)
}

// RoleService wraps the role collection of one domain
type RoleService interface {
	List(ctx context.Context, domainID string, q models.ListQuery) (*models.RolesPage, error)
	Create(ctx context.Context, domainID string, q models.ListQuery, in models.RoleInput) (*models.RolesPage, error)
}

// UserService wraps the user collection of one domain
type UserService interface {
	List(ctx context.Context, domainID string, q models.ListQuery) (*models.UsersPage, error)
	Create(ctx context.Context, q models.ListQuery, in models.UserInput) (*models.UsersPage, error)
	ResetPassword(ctx context.Context, userID string, in models.PasswordReset) error
}

// EndpointCatalog is the static list of backend endpoints
type EndpointCatalog interface {
	Endpoints() []models.EndpointDescriptor
	Lookup(method, path string) (models.EndpointDescriptor, bool)
	BaseURL() string
	Tags() []string
}

// RequestTester fires one live request for a catalog entry
type RequestTester interface {
	RunTest(ctx context.Context, endpoint models.EndpointDescriptor, inputs map[string]string) models.TestOutcome
}

// Logger defines the logging interface
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Fatal(msg string, err error, fields ...interface{})
}

// MetricsCollector defines the interface for collecting metrics
type MetricsCollector interface {
	IncrementCounter(name string, labels map[string]string)
	RecordDuration(name string, duration float64, labels map[string]string)
	SetGauge(name string, value float64, labels map[string]string)
}
