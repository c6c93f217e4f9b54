package models

const (
	DefaultPage  = 1
	DefaultLimit = 10
	// PickerLimit is the page size used to load every domain into a dropdown
	PickerLimit = 1000
)

// ListQuery carries the search and pagination arguments of a list call
type ListQuery struct {
	Search string
	Page   int
	Limit  int
}

// Normalized fills zero or negative paging values with defaults
func (q ListQuery) Normalized() ListQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	return q
}

// Pagination is the paging envelope shared by every list response
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// HasPrev reports whether a previous page exists
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }

// Domain is a tenant scoping users and roles
type Domain struct {
	DomainID string `json:"domain_id"`
	Name     string `json:"name"`
	Domain   string `json:"domain"`
}

type DomainsPage struct {
	Domains []Domain `json:"domains"`
	Pagination
}

// DomainInput is the body of domain create and update calls
type DomainInput struct {
	Name   string `json:"name" validate:"required"`
	Domain string `json:"domain" validate:"required"`
}

// Role is a named claim set inside a domain
type Role struct {
	ID         string                 `json:"id"`
	DomainID   string                 `json:"domain_id"`
	RoleName   string                 `json:"role_name"`
	RoleClaims map[string]interface{} `json:"role_claims"`
	CreatedAt  string                 `json:"created_at"`
	UpdatedAt  string                 `json:"updated_at"`
}

type RolesPage struct {
	Roles []Role `json:"roles"`
	Pagination
}

type RoleInput struct {
	RoleName   string                 `json:"role_name" validate:"required"`
	RoleClaims map[string]interface{} `json:"role_claims"`
}

type User struct {
	ID        string `json:"id"`
	DomainID  string `json:"domain_id"`
	RoleID    string `json:"role_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type UsersPage struct {
	Users []User `json:"users"`
	Pagination
}

type UserInput struct {
	DomainID  string `json:"domain_id" validate:"required"`
	Email     string `json:"email" validate:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password" validate:"required"`
	RoleID    string `json:"role_id"`
	Username  string `json:"username" validate:"required"`
}

type PasswordReset struct {
	NewPassword string `json:"new_password" validate:"required"`
}
