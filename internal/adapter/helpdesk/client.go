// Package helpdesk provides the HTTP client for the tenant-scoped helpdesk API.
package helpdesk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/crowndesk/crowndesk/internal/domain"
	"github.com/crowndesk/crowndesk/internal/domain/category"
	"github.com/crowndesk/crowndesk/internal/domain/tenant"
	"github.com/crowndesk/crowndesk/internal/domain/ticket"
	"github.com/crowndesk/crowndesk/internal/domain/user"
	"github.com/crowndesk/crowndesk/internal/logger"
	"github.com/crowndesk/crowndesk/internal/resilience"
)

// TokenSource supplies the current bearer token, or "" when logged out.
// Reading through a func keeps the client decoupled from session state.
type TokenSource func() string

// Client talks to the helpdesk REST API. All calls are scoped by tenant slug
// and classified into the domain error taxonomy before returning.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	breaker    *resilience.Breaker
}

// NewClient creates a helpdesk API client. The timeout bounds every request;
// a stalled request surfaces as a transient error instead of hanging.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		token: func() string { return "" },
	}
}

// SetTokenSource attaches the bearer token supplier for authenticated calls.
func (c *Client) SetTokenSource(src TokenSource) {
	if src != nil {
		c.token = src
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// Login authenticates against the tenant-scoped login endpoint.
func (c *Client) Login(ctx context.Context, slug string, req user.LoginRequest) (*user.LoginResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal login: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/"+slug+"/auth/login", body)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	var resp user.LoginResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("login: malformed response: %w", domain.ErrTransient)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("login: missing access token: %w", domain.ErrTransient)
	}
	return &resp, nil
}

// CurrentUser fetches the authenticated user's record.
func (c *Client) CurrentUser(ctx context.Context, slug string) (*user.User, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/"+slug+"/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	var u user.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("current user: malformed response: %w", domain.ErrTransient)
	}
	return &u, nil
}

// ListTickets returns all tickets visible to the tenant.
func (c *Client) ListTickets(ctx context.Context, slug string) ([]ticket.Ticket, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/"+slug+"/tickets", nil)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	var tickets []ticket.Ticket
	if err := json.Unmarshal(data, &tickets); err != nil {
		return nil, fmt.Errorf("list tickets: malformed response: %w", domain.ErrTransient)
	}
	return tickets, nil
}

// GetTicket returns a single ticket by ID.
func (c *Client) GetTicket(ctx context.Context, slug, id string) (*ticket.Ticket, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/"+slug+"/tickets/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("get ticket: %w", err)
	}

	var t ticket.Ticket
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("get ticket: malformed response: %w", domain.ErrTransient)
	}
	return &t, nil
}

// CreateTicket opens a new ticket for the tenant.
func (c *Client) CreateTicket(ctx context.Context, slug string, req ticket.CreateRequest) (*ticket.Ticket, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal create ticket: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/"+slug+"/tickets", body)
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	var t ticket.Ticket
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("create ticket: malformed response: %w", domain.ErrTransient)
	}
	return &t, nil
}

// UpdateTicket sends the whole-object PATCH the backend contract expects and
// returns the canonical updated ticket.
func (c *Client) UpdateTicket(ctx context.Context, slug, id string, req ticket.UpdateRequest) (*ticket.Ticket, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal update ticket: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPatch, "/"+slug+"/tickets/"+id, body)
	if err != nil {
		return nil, fmt.Errorf("update ticket: %w", err)
	}

	var t ticket.Ticket
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("update ticket: malformed response: %w", domain.ErrTransient)
	}
	return &t, nil
}

// ListCategories returns all ticket categories for the tenant.
func (c *Client) ListCategories(ctx context.Context, slug string) ([]category.Category, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/"+slug+"/ticket-category", nil)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	var cats []category.Category
	if err := json.Unmarshal(data, &cats); err != nil {
		return nil, fmt.Errorf("list categories: malformed response: %w", domain.ErrTransient)
	}
	return cats, nil
}

// ListTenants returns the tenants visible to the authenticated user.
func (c *Client) ListTenants(ctx context.Context, slug string) ([]tenant.Tenant, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/"+slug+"/tenants", nil)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}

	var tenants []tenant.Tenant
	if err := json.Unmarshal(data, &tenants); err != nil {
		return nil, fmt.Errorf("list tenants: malformed response: %w", domain.ErrTransient)
	}
	return tenants, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		reqID := logger.RequestID(ctx)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-ID", reqID)
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			return fmt.Errorf("%w: %s", domain.ErrTransient, err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: read response: %s", domain.ErrTransient, err)
		}

		if resp.StatusCode >= 400 {
			return classifyStatus(resp.StatusCode, data)
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			if errors.Is(err, resilience.ErrCircuitOpen) {
				return nil, fmt.Errorf("%w: %s", domain.ErrTransient, err)
			}
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}

// classifyStatus converts an HTTP error status into the domain taxonomy.
func classifyStatus(status int, body []byte) error {
	msg := errorMessage(body)
	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, msg)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, msg)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrValidation, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", domain.ErrTransient, status, msg)
	}
}

// errorMessage extracts the backend's error field, falling back to the raw body.
func errorMessage(body []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
