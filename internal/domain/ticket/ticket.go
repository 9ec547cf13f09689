// Package ticket defines the helpdesk ticket domain model.
package ticket

import (
	"errors"
	"time"

	"github.com/crowndesk/crowndesk/internal/domain/category"
	"github.com/crowndesk/crowndesk/internal/domain/user"
)

// Status is the lifecycle state of a ticket.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusClosed     Status = "CLOSED"
)

// ValidStatuses is the set of all valid ticket statuses.
var ValidStatuses = map[Status]bool{
	StatusOpen:       true,
	StatusInProgress: true,
	StatusResolved:   true,
	StatusClosed:     true,
}

// Label returns the localized display label for the status.
// Unknown statuses fall through as-is.
func (s Status) Label() string {
	switch s {
	case StatusOpen:
		return "Aberto"
	case StatusInProgress:
		return "Em Andamento"
	case StatusResolved:
		return "Resolvido"
	case StatusClosed:
		return "Fechado"
	default:
		return string(s)
	}
}

// Priority is the urgency of a ticket.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// ValidPriorities is the set of all valid ticket priorities.
var ValidPriorities = map[Priority]bool{
	PriorityLow:    true,
	PriorityMedium: true,
	PriorityHigh:   true,
	PriorityUrgent: true,
}

// Label returns the localized display label for the priority.
// Unknown priorities fall through as-is.
func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "Baixa"
	case PriorityMedium:
		return "Média"
	case PriorityHigh:
		return "Alta"
	case PriorityUrgent:
		return "Urgente"
	default:
		return string(p)
	}
}

// Ticket represents a helpdesk ticket scoped to a tenant. Timestamps are
// server-authoritative; the console never sets them.
type Ticket struct {
	ID          string             `json:"id"`
	Number      int                `json:"number"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Status      Status             `json:"status"`
	Priority    Priority           `json:"priority"`
	Category    *category.Category `json:"category,omitempty"`
	Assignee    *user.User         `json:"assignee,omitempty"`
	DueDate     *time.Time         `json:"dueDate,omitempty"`
	GuestName   string             `json:"guestName,omitempty"`
	GuestEmail  string             `json:"guestEmail,omitempty"`
	GuestPhone  string             `json:"guestPhone,omitempty"`
	TenantID    int64              `json:"tenantId,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// CreateRequest is the input for opening a new ticket.
type CreateRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	CategoryID  string     `json:"categoryId"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	GuestName   string     `json:"guestName,omitempty"`
	GuestEmail  string     `json:"guestEmail,omitempty"`
	GuestPhone  string     `json:"guestPhone,omitempty"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Title == "" {
		return errors.New("title is required")
	}
	if r.Description == "" {
		return errors.New("description is required")
	}
	if !ValidPriorities[r.Priority] {
		return errors.New("invalid priority: must be LOW, MEDIUM, HIGH, or URGENT")
	}
	if r.CategoryID == "" {
		return errors.New("category is required")
	}
	return nil
}

// UpdateRequest carries the full mutable field set of a ticket. The backend
// contract expects whole-object updates, so every field is sent on every
// PATCH regardless of which one changed.
type UpdateRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	CategoryID  string     `json:"categoryId"`
	DueDate     *time.Time `json:"dueDate"`
	AssigneeID  *int64     `json:"assigneeId"`
	GuestName   string     `json:"guestName"`
	GuestEmail  string     `json:"guestEmail"`
	GuestPhone  string     `json:"guestPhone"`
	Status      Status     `json:"status"`
}

// UpdateRequest builds the whole-object update payload from the ticket's
// current state.
func (t *Ticket) UpdateRequest() UpdateRequest {
	req := UpdateRequest{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		GuestName:   t.GuestName,
		GuestEmail:  t.GuestEmail,
		GuestPhone:  t.GuestPhone,
		Status:      t.Status,
	}
	if t.Category != nil {
		req.CategoryID = t.Category.ID
	}
	if t.Assignee != nil {
		id := t.Assignee.ID
		req.AssigneeID = &id
	}
	return req
}
