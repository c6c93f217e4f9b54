package iam

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/igorsal/iam-dashboard/internal/config"
	"github.com/igorsal/iam-dashboard/internal/interfaces"
	"github.com/igorsal/iam-dashboard/internal/models"
	pkgerrors "github.com/igorsal/iam-dashboard/pkg/errors"
)

type Client struct {
	httpClient *resty.Client
	config     config.IAMConfig
	logger     interfaces.Logger
	metrics    interfaces.MetricsCollector
}

var _ interfaces.IAMClient = (*Client)(nil)

// NewClient creates an IAM backend client. Calls are made once; a failed
// call is reported to the caller and never retried.
func NewClient(cfg config.IAMConfig, logger interfaces.Logger, metrics interfaces.MetricsCollector) *Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetBaseURL(cfg.BaseURL)

	return &Client{
		httpClient: client,
		config:     cfg,
		logger:     logger,
		metrics:    metrics,
	}
}

// Login exchanges credentials for a token and the user record
func (c *Client) Login(ctx context.Context, domainID string, creds models.Credentials) (*models.LoginResult, error) {
	var result *models.LoginResult
	err := c.call(ctx, "auth", "log in", func() (*resty.Response, error) {
		return c.request(ctx).
			SetHeader("X-NRM-DID", domainID).
			SetBody(creds).
			Post("/auth/login")
	}, func(body []byte) error {
		parsed, err := parseLogin(body)
		result = parsed
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func parseLogin(body []byte) (*models.LoginResult, error) {
	token := gjson.GetBytes(body, "token")
	if !token.Exists() || token.String() == "" {
		return nil, pkgerrors.NewUnauthorizedError("Login response did not include a token")
	}

	var identity models.Identity
	if user := gjson.GetBytes(body, "user"); user.IsObject() {
		if err := json.Unmarshal([]byte(user.Raw), &identity); err != nil {
			return nil, pkgerrors.NewMalformedInputError("Login response carried an unreadable user record").WithCause(err)
		}
	}

	return &models.LoginResult{Token: token.String(), User: identity}, nil
}

func (c *Client) ListDomains(ctx context.Context, q models.ListQuery) (*models.DomainsPage, error) {
	q = q.Normalized()
	var page models.DomainsPage
	err := c.call(ctx, "domains", "fetch domains", func() (*resty.Response, error) {
		return c.request(ctx).
			SetQueryParams(map[string]string{
				"search": q.Search,
				"page":   strconv.Itoa(q.Page),
				"limit":  strconv.Itoa(q.Limit),
			}).
			Get("/domains")
	}, decodeInto(&page))
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) CreateDomain(ctx context.Context, in models.DomainInput) error {
	return c.call(ctx, "domains", "add domain", func() (*resty.Response, error) {
		return c.request(ctx).SetBody(in).Post("/domains")
	}, nil)
}

func (c *Client) UpdateDomain(ctx context.Context, domainID string, in models.DomainInput) error {
	return c.call(ctx, "domains", "update domain", func() (*resty.Response, error) {
		return c.request(ctx).
			SetPathParam("id", domainID).
			SetBody(in).
			Put("/domains/{id}")
	}, nil)
}

func (c *Client) DeleteDomain(ctx context.Context, domainID string) error {
	return c.call(ctx, "domains", "delete domain", func() (*resty.Response, error) {
		return c.request(ctx).
			SetPathParam("id", domainID).
			Delete("/domains/{id}")
	}, nil)
}

func (c *Client) ListRoles(ctx context.Context, domainID string, q models.ListQuery) (*models.RolesPage, error) {
	q = q.Normalized()
	var page models.RolesPage
	err := c.call(ctx, "roles", "fetch roles", func() (*resty.Response, error) {
		return c.request(ctx).
			SetQueryParams(map[string]string{
				"domainId": domainID,
				"page":     strconv.Itoa(q.Page),
				"limit":    strconv.Itoa(q.Limit),
			}).
			Get("/roles")
	}, decodeInto(&page))
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) CreateRole(ctx context.Context, domainID string, in models.RoleInput) error {
	if in.RoleClaims == nil {
		in.RoleClaims = map[string]interface{}{}
	}
	return c.call(ctx, "roles", "create role", func() (*resty.Response, error) {
		return c.request(ctx).
			SetPathParam("id", domainID).
			SetBody(in).
			Post("/domains/{id}/roles")
	}, nil)
}

func (c *Client) ListUsers(ctx context.Context, domainID string, q models.ListQuery) (*models.UsersPage, error) {
	q = q.Normalized()
	var page models.UsersPage
	err := c.call(ctx, "users", "fetch users", func() (*resty.Response, error) {
		return c.request(ctx).
			SetQueryParams(map[string]string{
				"domainId": domainID,
				"search":   q.Search,
				"page":     strconv.Itoa(q.Page),
				"limit":    strconv.Itoa(q.Limit),
			}).
			Get("/users")
	}, decodeInto(&page))
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) CreateUser(ctx context.Context, in models.UserInput) error {
	return c.call(ctx, "users", "create user", func() (*resty.Response, error) {
		return c.request(ctx).SetBody(in).Post("/users")
	}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, userID string, in models.PasswordReset) error {
	return c.call(ctx, "users", "reset password", func() (*resty.Response, error) {
		return c.request(ctx).
			SetPathParam("id", userID).
			SetBody(in).
			Post("/users/{id}/reset-password")
	}, nil)
}

// request starts a call carrying the session token found in ctx, if any
func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.httpClient.R().SetContext(ctx)
	if token := TokenFromContext(ctx); token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// call runs one backend request, records metrics and maps the result onto
// the error taxonomy. Any non-2xx status is a remote rejection.
func (c *Client) call(ctx context.Context, resource, operation string, do func() (*resty.Response, error), decode func([]byte) error) error {
	startTime := time.Now()
	labels := map[string]string{
		"resource":  resource,
		"operation": strings.ReplaceAll(operation, " ", "_"),
	}

	resp, err := do()

	duration := time.Since(startTime).Seconds()
	c.metrics.RecordDuration("backend_request_duration_seconds", duration, labels)

	switch {
	case err != nil:
		labels["status"] = "error"
		c.metrics.IncrementCounter("backend_requests_total", labels)
		c.logger.Error("IAM backend call failed", err, "resource", resource, "operation", operation)
		return pkgerrors.NewTransportError(operation, err)

	case !resp.IsSuccess():
		labels["status"] = strconv.Itoa(resp.StatusCode())
		c.metrics.IncrementCounter("backend_requests_total", labels)
		c.logger.Warn("IAM backend rejected call",
			"resource", resource,
			"operation", operation,
			"status_code", resp.StatusCode(),
		)
		return pkgerrors.NewRemoteError(operation, resp.StatusCode(), statusText(resp))
	}

	labels["status"] = strconv.Itoa(resp.StatusCode())
	c.metrics.IncrementCounter("backend_requests_total", labels)
	c.logger.Debug("IAM backend call completed",
		"resource", resource,
		"operation", operation,
		"status_code", resp.StatusCode(),
		"duration_ms", duration*1000,
	)

	if decode == nil {
		return nil
	}
	return decode(resp.Body())
}

func decodeInto(v interface{}) func([]byte) error {
	return func(body []byte) error {
		if err := json.Unmarshal(body, v); err != nil {
			return pkgerrors.NewMalformedInputError("IAM backend returned an unreadable response").WithCause(err)
		}
		return nil
	}
}

// statusText returns the reason phrase of the response status line
func statusText(resp *resty.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status(), strconv.Itoa(resp.StatusCode())))
	if text == "" {
		text = strconv.Itoa(resp.StatusCode())
	}
	return text
}
