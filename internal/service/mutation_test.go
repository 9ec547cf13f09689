package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/crowndesk/crowndesk/internal/domain"
	"github.com/crowndesk/crowndesk/internal/domain/ticket"
)

// fakeTicketAPI records update calls and returns a canned result. When block
// is non-nil the call waits until the channel is closed.
type fakeTicketAPI struct {
	mu     sync.Mutex
	calls  int
	gotID  string
	gotReq ticket.UpdateRequest
	resp   *ticket.Ticket
	err    error
	block  chan struct{}
}

func (f *fakeTicketAPI) UpdateTicket(_ context.Context, _ string, id string, req ticket.UpdateRequest) (*ticket.Ticket, error) {
	f.mu.Lock()
	f.calls++
	f.gotID = id
	f.gotReq = req
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeTicketAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testTicket() ticket.Ticket {
	return ticket.Ticket{
		ID:          "t-1",
		Number:      42,
		Title:       "Impressora parada",
		Description: "A impressora do caixa 2 não responde.",
		Status:      ticket.StatusOpen,
		Priority:    ticket.PriorityMedium,
	}
}

func authedMutator(t *testing.T, api TicketAPI) (*Mutator, *Session) {
	t.Helper()
	store := newFakeStore()
	seedStore(t, store, testUser(), "tok", "acme")
	sess := NewSession(store, &fakeAuthAPI{})
	sess.Initialize(context.Background())
	return NewMutator(api, sess), sess
}

func TestMutatorSetStatusOptimisticThenConfirmed(t *testing.T) {
	server := testTicket()
	server.Status = ticket.StatusResolved
	server.UpdatedAt = time.Now()
	api := &fakeTicketAPI{resp: &server}

	m, _ := authedMutator(t, api)

	var events []MutationEvent
	m.Subscribe(context.Background(), func(ev MutationEvent) {
		events = append(events, ev)
		if api.callCount() > 0 && len(events) == 1 {
			t.Error("first event must be published before the network call")
		}
	})

	orig := testTicket()
	got, err := m.SetStatus(context.Background(), &orig, ticket.StatusResolved)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	if got.Status != ticket.StatusResolved {
		t.Errorf("returned status = %v, want %v", got.Status, ticket.StatusResolved)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Ticket.Status != ticket.StatusResolved || events[0].Rollback {
		t.Errorf("optimistic event = %+v", events[0])
	}
	if !events[1].Ticket.UpdatedAt.Equal(server.UpdatedAt) {
		t.Error("confirmed event must carry the server's ticket")
	}
	if orig.Status != ticket.StatusOpen {
		t.Error("caller's ticket was modified")
	}
}

func TestMutatorSendsWholeObject(t *testing.T) {
	server := testTicket()
	api := &fakeTicketAPI{resp: &server}
	m, _ := authedMutator(t, api)

	orig := testTicket()
	if _, err := m.SetPriority(context.Background(), &orig, ticket.PriorityUrgent); err != nil {
		t.Fatalf("SetPriority: %v", err)
	}

	if api.gotID != "t-1" {
		t.Errorf("patched id = %q", api.gotID)
	}
	if api.gotReq.Priority != ticket.PriorityUrgent {
		t.Errorf("request priority = %v", api.gotReq.Priority)
	}
	// Untouched fields ride along on every update.
	if api.gotReq.Title != orig.Title || api.gotReq.Status != orig.Status {
		t.Errorf("request dropped unchanged fields: %+v", api.gotReq)
	}
}

func TestMutatorRollsBackOnFailure(t *testing.T) {
	api := &fakeTicketAPI{err: domain.ErrTransient}
	m, _ := authedMutator(t, api)

	var events []MutationEvent
	m.Subscribe(context.Background(), func(ev MutationEvent) { events = append(events, ev) })

	orig := testTicket()
	_, err := m.SetStatus(context.Background(), &orig, ticket.StatusClosed)
	if !errors.Is(err, domain.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if !events[1].Rollback {
		t.Error("second event must be a rollback")
	}
	if events[1].Ticket.Status != ticket.StatusOpen {
		t.Errorf("rollback restored status %v, want %v", events[1].Ticket.Status, ticket.StatusOpen)
	}
}

func TestMutatorInvalidatesSessionOn401(t *testing.T) {
	api := &fakeTicketAPI{err: domain.ErrUnauthorized}
	m, sess := authedMutator(t, api)

	orig := testTicket()
	_, err := m.SetStatus(context.Background(), &orig, ticket.StatusClosed)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if sess.IsAuthenticated() {
		t.Error("session must be invalidated after a 401")
	}
}

func TestMutatorRejectsInvalidValues(t *testing.T) {
	api := &fakeTicketAPI{}
	m, _ := authedMutator(t, api)

	var events int
	m.Subscribe(context.Background(), func(MutationEvent) { events++ })

	orig := testTicket()
	if _, err := m.SetStatus(context.Background(), &orig, ticket.Status("BOGUS")); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("SetStatus: expected ErrValidation, got %v", err)
	}
	if _, err := m.SetPriority(context.Background(), &orig, ticket.Priority("BOGUS")); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("SetPriority: expected ErrValidation, got %v", err)
	}
	if api.callCount() != 0 {
		t.Error("invalid values must not reach the network")
	}
	if events != 0 {
		t.Error("invalid values must not publish events")
	}
}

func TestMutatorRejectsConcurrentMutationSameTicket(t *testing.T) {
	release := make(chan struct{})
	server := testTicket()
	api := &fakeTicketAPI{resp: &server, block: release}
	m, _ := authedMutator(t, api)

	orig := testTicket()
	firstDone := make(chan error, 1)
	go func() {
		_, err := m.SetStatus(context.Background(), &orig, ticket.StatusResolved)
		firstDone <- err
	}()

	// Wait for the first mutation to reach the API.
	deadline := time.After(2 * time.Second)
	for api.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("first mutation never reached the API")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	second := testTicket()
	_, err := m.SetPriority(context.Background(), &second, ticket.PriorityHigh)
	if !errors.Is(err, domain.ErrMutationPending) {
		t.Fatalf("expected ErrMutationPending, got %v", err)
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first mutation: %v", err)
	}

	// The guard is released once the first mutation settles.
	if _, err := m.SetPriority(context.Background(), &second, ticket.PriorityHigh); err != nil {
		t.Fatalf("follow-up mutation: %v", err)
	}
}

func TestMutatorDropsCancelledObservers(t *testing.T) {
	server := testTicket()
	api := &fakeTicketAPI{resp: &server}
	m, _ := authedMutator(t, api)

	calls := 0
	obsCtx, cancel := context.WithCancel(context.Background())
	m.Subscribe(obsCtx, func(MutationEvent) { calls++ })
	cancel()

	orig := testTicket()
	if _, err := m.SetStatus(context.Background(), &orig, ticket.StatusResolved); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if calls != 0 {
		t.Errorf("cancelled observer received %d events", calls)
	}
}
