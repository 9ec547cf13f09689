package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/crowndesk/crowndesk/internal/adapter/otel"
	"github.com/crowndesk/crowndesk/internal/domain"
	"github.com/crowndesk/crowndesk/internal/domain/ticket"
)

// TicketAPI is the slice of the helpdesk client the mutator needs.
type TicketAPI interface {
	UpdateTicket(ctx context.Context, slug, id string, req ticket.UpdateRequest) (*ticket.Ticket, error)
}

// MutationEvent is published to observers whenever a ticket's visible state
// changes: once optimistically before the network call, and once with the
// outcome (server truth on success, the pre-mutation snapshot on rollback).
type MutationEvent struct {
	Ticket   ticket.Ticket
	Rollback bool
}

type observer struct {
	ctx context.Context
	fn  func(MutationEvent)
}

// Mutator applies single-field ticket edits optimistically: observers see
// the new value before the PATCH is sent, and see either the server's
// authoritative ticket or the restored snapshot once the call settles.
// At most one mutation per ticket may be in flight.
type Mutator struct {
	api     TicketAPI
	session *Session

	mu        sync.Mutex
	inFlight  map[string]bool
	observers []observer
}

// NewMutator creates a ticket mutator bound to the given session and API.
func NewMutator(api TicketAPI, session *Session) *Mutator {
	return &Mutator{
		api:      api,
		session:  session,
		inFlight: make(map[string]bool),
	}
}

// Subscribe registers an observer for mutation events. The subscription
// lives as long as ctx: once ctx is done the observer is dropped and never
// called again.
func (m *Mutator) Subscribe(ctx context.Context, fn func(MutationEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, observer{ctx: ctx, fn: fn})
}

// publish delivers an event to all live observers in subscription order and
// prunes the dead ones.
func (m *Mutator) publish(ev MutationEvent) {
	m.mu.Lock()
	live := m.observers[:0]
	for _, o := range m.observers {
		if o.ctx.Err() == nil {
			live = append(live, o)
		}
	}
	m.observers = live
	targets := make([]observer, len(live))
	copy(targets, live)
	m.mu.Unlock()

	for _, o := range targets {
		o.fn(ev)
	}
}

// SetStatus moves the ticket to the given status.
func (m *Mutator) SetStatus(ctx context.Context, t *ticket.Ticket, status ticket.Status) (*ticket.Ticket, error) {
	if !ticket.ValidStatuses[status] {
		return nil, fmt.Errorf("%w: invalid status %q", domain.ErrValidation, status)
	}
	return m.apply(ctx, t, "status", func(t *ticket.Ticket) { t.Status = status })
}

// SetPriority changes the ticket's priority.
func (m *Mutator) SetPriority(ctx context.Context, t *ticket.Ticket, priority ticket.Priority) (*ticket.Ticket, error) {
	if !ticket.ValidPriorities[priority] {
		return nil, fmt.Errorf("%w: invalid priority %q", domain.ErrValidation, priority)
	}
	return m.apply(ctx, t, "priority", func(t *ticket.Ticket) { t.Priority = priority })
}

// apply runs one optimistic mutation: snapshot, publish the edited ticket,
// PATCH the whole object, then publish either the server's ticket or the
// snapshot. The caller's ticket is never modified.
func (m *Mutator) apply(ctx context.Context, t *ticket.Ticket, field string, edit func(*ticket.Ticket)) (*ticket.Ticket, error) {
	ctx, span := otel.StartMutationSpan(ctx, t.ID, field)
	defer span.End()

	m.mu.Lock()
	if m.inFlight[t.ID] {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: ticket %s", domain.ErrMutationPending, t.ID)
	}
	m.inFlight[t.ID] = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.inFlight, t.ID)
		m.mu.Unlock()
	}()

	snapshot := *t
	edited := *t
	edit(&edited)

	// Observers see the edit before the network round-trip starts.
	m.publish(MutationEvent{Ticket: edited})

	updated, err := m.api.UpdateTicket(ctx, m.session.TenantSlug(), t.ID, edited.UpdateRequest())
	if err != nil {
		m.publish(MutationEvent{Ticket: snapshot, Rollback: true})
		if errors.Is(err, domain.ErrUnauthorized) {
			m.session.Invalidate(ctx)
		}
		otel.RecordMutation(ctx, field, "rolledback")
		slog.WarnContext(ctx, "ticket mutation rolled back",
			"ticket", t.ID, "field", field, "error", err)
		return nil, err
	}

	m.publish(MutationEvent{Ticket: *updated})
	otel.RecordMutation(ctx, field, "confirmed")
	slog.DebugContext(ctx, "ticket mutation confirmed", "ticket", t.ID, "field", field)
	return updated, nil
}
