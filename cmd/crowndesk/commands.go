package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/crowndesk/crowndesk/internal/domain/ticket"
	"github.com/crowndesk/crowndesk/internal/service"
)

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	tenantSlug := fs.String("tenant", "", "tenant slug (required)")
	email := fs.String("email", "", "email address (required)")
	password := fs.String("password", "", "password (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tenantSlug == "" {
		return fmt.Errorf("--tenant is required")
	}
	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	pass := *password
	if pass == "" {
		var err error
		pass, err = promptPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}

	if err := a.session.Login(ctx, *tenantSlug, *email, pass); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	u, _ := a.session.User()
	fmt.Fprintf(os.Stderr, "Logged in to %s as %s (%s)\n", *tenantSlug, u.Name, u.Role)
	return nil
}

func runLogout(ctx context.Context, a *app) error {
	a.session.Logout(ctx)
	fmt.Fprintln(os.Stderr, "Logged out.")
	return nil
}

func runWhoami(_ context.Context, a *app) error {
	u, ok := a.session.User()
	if !ok {
		fmt.Println("Not logged in.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "User\t%s <%s>\n", u.Name, u.Email)
	_, _ = fmt.Fprintf(w, "Role\t%s\n", u.Role)
	_, _ = fmt.Fprintf(w, "Access\t%s\n", a.session.AccessLevel())
	_, _ = fmt.Fprintf(w, "Tenant\t%s (%s)\n", a.session.TenantSlug(), a.session.TenantTypeLabel())
	_, _ = fmt.Fprintf(w, "Brand\t%s\n", a.session.BrandName())
	_, _ = fmt.Fprintf(w, "Segment\t%s\n", a.session.SegmentLabel())
	return w.Flush()
}

func runTickets(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		return runTicketsList(ctx, a)
	case "get":
		return runTicketsGet(ctx, a, args[1:])
	case "create":
		return runTicketsCreate(ctx, a, args[1:])
	case "set-status":
		return runTicketsSetStatus(ctx, a, args[1:])
	case "set-priority":
		return runTicketsSetPriority(ctx, a, args[1:])
	default:
		return fmt.Errorf("unknown tickets command: %s", args[0])
	}
}

func runTicketsList(ctx context.Context, a *app) error {
	tickets, err := a.tickets.List(ctx)
	if err != nil {
		return fmt.Errorf("list tickets: %w", err)
	}
	if len(tickets) == 0 {
		fmt.Println("No tickets.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NUMBER\tSTATUS\tPRIORITY\tTITLE\tID")
	for i := range tickets {
		t := &tickets[i]
		_, _ = fmt.Fprintf(w, "#%d\t%s\t%s\t%s\t%s\n",
			t.Number, t.Status.Label(), t.Priority.Label(), t.Title, t.ID)
	}
	return w.Flush()
}

func runTicketsGet(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	id := fs.String("id", "", "ticket id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	t, err := a.tickets.Get(ctx, *id)
	if err != nil {
		return fmt.Errorf("get ticket: %w", err)
	}
	printTicket(t)
	return nil
}

func printTicket(t *ticket.Ticket) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Ticket\t#%d (%s)\n", t.Number, t.ID)
	_, _ = fmt.Fprintf(w, "Title\t%s\n", t.Title)
	_, _ = fmt.Fprintf(w, "Status\t%s\n", t.Status.Label())
	_, _ = fmt.Fprintf(w, "Priority\t%s\n", t.Priority.Label())
	if t.Category != nil {
		_, _ = fmt.Fprintf(w, "Category\t%s\n", t.Category.Name)
	}
	if t.Assignee != nil {
		_, _ = fmt.Fprintf(w, "Assignee\t%s\n", t.Assignee.Name)
	}
	if t.DueDate != nil {
		_, _ = fmt.Fprintf(w, "Due\t%s\n", t.DueDate.Format("2006-01-02"))
	}
	_, _ = fmt.Fprintf(w, "Updated\t%s\n", t.UpdatedAt.Format(time.RFC3339))
	_, _ = fmt.Fprintf(w, "Description\t%s\n", t.Description)
	_ = w.Flush()
}

func runTicketsCreate(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	title := fs.String("title", "", "ticket title (required)")
	description := fs.String("description", "", "ticket description (required)")
	priority := fs.String("priority", string(ticket.PriorityMedium), "LOW, MEDIUM, HIGH, or URGENT")
	categoryID := fs.String("category", "", "category id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	t, err := a.tickets.Create(ctx, ticket.CreateRequest{
		Title:       *title,
		Description: *description,
		Priority:    ticket.Priority(*priority),
		CategoryID:  *categoryID,
	})
	if err != nil {
		return fmt.Errorf("create ticket: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Created ticket #%d (%s)\n", t.Number, t.ID)
	return nil
}

func runTicketsSetStatus(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("set-status", flag.ContinueOnError)
	id := fs.String("id", "", "ticket id (required)")
	status := fs.String("status", "", "OPEN, IN_PROGRESS, RESOLVED, or CLOSED (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *status == "" {
		return fmt.Errorf("--id and --status are required")
	}

	return mutateTicket(ctx, a, *id, func(t *ticket.Ticket) (*ticket.Ticket, error) {
		return a.mutator.SetStatus(ctx, t, ticket.Status(*status))
	})
}

func runTicketsSetPriority(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("set-priority", flag.ContinueOnError)
	id := fs.String("id", "", "ticket id (required)")
	priority := fs.String("priority", "", "LOW, MEDIUM, HIGH, or URGENT (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *priority == "" {
		return fmt.Errorf("--id and --priority are required")
	}

	return mutateTicket(ctx, a, *id, func(t *ticket.Ticket) (*ticket.Ticket, error) {
		return a.mutator.SetPriority(ctx, t, ticket.Priority(*priority))
	})
}

// mutateTicket fetches current state, applies one optimistic edit, and
// reports the optimistic and settled values as they happen.
func mutateTicket(ctx context.Context, a *app, id string, edit func(*ticket.Ticket) (*ticket.Ticket, error)) error {
	t, err := a.tickets.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get ticket: %w", err)
	}

	a.mutator.Subscribe(ctx, func(ev service.MutationEvent) {
		if ev.Rollback {
			fmt.Fprintf(os.Stderr, "#%d rolled back to %s / %s\n",
				ev.Ticket.Number, ev.Ticket.Status.Label(), ev.Ticket.Priority.Label())
			return
		}
		fmt.Fprintf(os.Stderr, "#%d -> %s / %s\n",
			ev.Ticket.Number, ev.Ticket.Status.Label(), ev.Ticket.Priority.Label())
	})

	updated, err := edit(t)
	if err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	printTicket(updated)
	return nil
}

func runCategories(ctx context.Context, a *app) error {
	cats, err := a.tickets.Categories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	if len(cats) == 0 {
		fmt.Println("No active categories.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSLA_HOURS")
	for i := range cats {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", cats[i].ID, cats[i].Name, cats[i].SLAHours)
	}
	return w.Flush()
}

func runDashboard(ctx context.Context, a *app) error {
	d, err := a.tickets.Dashboard(ctx)
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total\t%d\n", d.Total)
	_, _ = fmt.Fprintf(w, "%s\t%d\n", ticket.StatusOpen.Label(), d.Open)
	_, _ = fmt.Fprintf(w, "%s\t%d\n", ticket.StatusInProgress.Label(), d.InProgress)
	_, _ = fmt.Fprintf(w, "%s\t%d\n", ticket.StatusResolved.Label(), d.Resolved)
	_, _ = fmt.Fprintf(w, "%s\t%d\n", ticket.StatusClosed.Label(), d.Closed)
	_, _ = fmt.Fprintf(w, "%s\t%d\n", ticket.PriorityUrgent.Label(), d.Urgent)
	_, _ = fmt.Fprintf(w, "Categorias\t%d\n", d.Categories)
	return w.Flush()
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
