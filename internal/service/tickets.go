package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/crowndesk/crowndesk/internal/adapter/otel"
	"github.com/crowndesk/crowndesk/internal/domain"
	"github.com/crowndesk/crowndesk/internal/domain/category"
	"github.com/crowndesk/crowndesk/internal/domain/ticket"
	"github.com/crowndesk/crowndesk/internal/port/cache"
)

// HelpdeskAPI is the slice of the helpdesk client the ticket service needs.
type HelpdeskAPI interface {
	ListTickets(ctx context.Context, slug string) ([]ticket.Ticket, error)
	GetTicket(ctx context.Context, slug, id string) (*ticket.Ticket, error)
	CreateTicket(ctx context.Context, slug string, req ticket.CreateRequest) (*ticket.Ticket, error)
	ListCategories(ctx context.Context, slug string) ([]category.Category, error)
}

// Tickets reads and creates tickets for the session's tenant. List responses
// are cached for a short TTL so rapid repeated reads (dashboard refresh,
// list re-render) don't hammer the backend, and concurrent identical reads
// are collapsed into a single upstream call.
type Tickets struct {
	api     HelpdeskAPI
	session *Session
	cache   cache.Cache
	ttl     time.Duration
	group   singleflight.Group
}

// NewTickets creates a ticket service. ttl bounds how stale a cached list
// may be served.
func NewTickets(api HelpdeskAPI, session *Session, c cache.Cache, ttl time.Duration) *Tickets {
	return &Tickets{api: api, session: session, cache: c, ttl: ttl}
}

// Dashboard summarizes the tenant's tickets by lifecycle state.
type Dashboard struct {
	Total      int
	Open       int
	InProgress int
	Resolved   int
	Closed     int
	Urgent     int
	Categories int
}

func (t *Tickets) slug() (string, error) {
	slug := t.session.TenantSlug()
	if slug == "" {
		return "", fmt.Errorf("%w: not logged in", domain.ErrUnauthorized)
	}
	return slug, nil
}

// List returns the tenant's tickets, served from cache when fresh.
func (t *Tickets) List(ctx context.Context) ([]ticket.Ticket, error) {
	slug, err := t.slug()
	if err != nil {
		return nil, err
	}

	key := "tickets:" + slug
	if data, ok, err := t.cache.Get(ctx, key); err == nil && ok {
		var cached []ticket.Ticket
		if err := json.Unmarshal(data, &cached); err == nil {
			otel.RecordCacheLookup(ctx, true)
			return cached, nil
		}
		// Unreadable entries are evicted and refetched.
		_ = t.cache.Delete(ctx, key)
	}
	otel.RecordCacheLookup(ctx, false)

	v, err, shared := t.group.Do(key, func() (any, error) {
		tickets, err := t.api.ListTickets(ctx, slug)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(tickets); err == nil {
			if err := t.cache.Set(ctx, key, data, t.ttl); err != nil {
				slog.DebugContext(ctx, "ticket cache write failed", "error", err)
			}
		}
		return tickets, nil
	})
	if err != nil {
		t.checkSession(ctx, err)
		return nil, err
	}
	if shared {
		slog.DebugContext(ctx, "ticket list fetch deduplicated", "tenant", slug)
	}
	return v.([]ticket.Ticket), nil
}

// Get fetches one ticket by id. Always hits the backend: detail views need
// current state before a mutation.
func (t *Tickets) Get(ctx context.Context, id string) (*ticket.Ticket, error) {
	slug, err := t.slug()
	if err != nil {
		return nil, err
	}
	tk, err := t.api.GetTicket(ctx, slug, id)
	if err != nil {
		t.checkSession(ctx, err)
		return nil, err
	}
	return tk, nil
}

// Create opens a new ticket and invalidates the cached list.
func (t *Tickets) Create(ctx context.Context, req ticket.CreateRequest) (*ticket.Ticket, error) {
	slug, err := t.slug()
	if err != nil {
		return nil, err
	}
	tk, err := t.api.CreateTicket(ctx, slug, req)
	if err != nil {
		t.checkSession(ctx, err)
		return nil, err
	}
	_ = t.cache.Delete(ctx, "tickets:"+slug)
	slog.InfoContext(ctx, "ticket created", "tenant", slug, "ticket", tk.ID, "number", tk.Number)
	return tk, nil
}

// Categories returns the active categories visible to the session's tenant.
func (t *Tickets) Categories(ctx context.Context) ([]category.Category, error) {
	slug, err := t.slug()
	if err != nil {
		return nil, err
	}
	cats, err := t.api.ListCategories(ctx, slug)
	if err != nil {
		t.checkSession(ctx, err)
		return nil, err
	}

	var tenantID int64
	if claims, err := t.session.Claims(); err == nil {
		tenantID = claims.TenantID
	}
	return category.FilterActive(cats, tenantID), nil
}

// Dashboard fetches tickets and categories in parallel and reduces them to
// per-state counts.
func (t *Tickets) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		tickets []ticket.Ticket
		cats    []category.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tickets, err = t.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = t.Categories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Dashboard{Total: len(tickets), Categories: len(cats)}
	for _, tk := range tickets {
		switch tk.Status {
		case ticket.StatusOpen:
			d.Open++
		case ticket.StatusInProgress:
			d.InProgress++
		case ticket.StatusResolved:
			d.Resolved++
		case ticket.StatusClosed:
			d.Closed++
		}
		if tk.Priority == ticket.PriorityUrgent {
			d.Urgent++
		}
	}
	return d, nil
}

// checkSession force-logs-out when the backend rejected our token.
func (t *Tickets) checkSession(ctx context.Context, err error) {
	if errors.Is(err, domain.ErrUnauthorized) {
		t.session.Invalidate(ctx)
	}
}
