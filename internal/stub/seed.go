package stub

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/crowndesk/crowndesk/internal/domain/category"
	"github.com/crowndesk/crowndesk/internal/domain/tenant"
	"github.com/crowndesk/crowndesk/internal/domain/ticket"
	"github.com/crowndesk/crowndesk/internal/domain/user"
)

// seed loads the demo tenants, users, categories, and tickets. Passwords:
// crown123 for the crown admin, acme123 for the acme users.
func (s *Server) seed() {
	crown := &tenant.Tenant{
		ID:   1,
		Name: "Crown Company",
		Slug: "crown",
		Type: tenant.TypeCrown,
	}
	acme := &tenant.Tenant{
		ID:      10,
		Name:    "Acme Matriz",
		Slug:    "acme",
		CNPJ:    "12.345.678/0001-90",
		Brand:   "Acme",
		Segment: tenant.SegmentModa,
		Type:    tenant.TypeFranchisor,
	}
	acmeCentro := &tenant.Tenant{
		ID:      11,
		Name:    "Acme Centro",
		Slug:    "acme-centro",
		CNPJ:    "12.345.678/0002-71",
		Brand:   "Acme",
		Segment: tenant.SegmentModa,
		Type:    tenant.TypeFranchise,
		Parent:  &tenant.Tenant{ID: acme.ID, Name: acme.Name, Slug: acme.Slug, Type: acme.Type},
	}
	acme.Children = []tenant.Tenant{{ID: acmeCentro.ID, Name: acmeCentro.Name, Slug: acmeCentro.Slug, Type: acmeCentro.Type}}

	s.tenants[crown.Slug] = crown
	s.tenants[acme.Slug] = acme
	s.tenants[acmeCentro.Slug] = acmeCentro

	s.addAccount(crown, user.User{ID: 1, Name: "Admin Crown", Email: "admin@crown.com", Role: user.RoleCrownAdmin}, "crown123")
	s.addAccount(acme, user.User{ID: 2, Name: "Ana Souza", Email: "ana@acme.com", Role: user.RoleFranchisorAdmin}, "acme123")
	s.addAccount(acme, user.User{ID: 3, Name: "Bruno Lima", Email: "bruno@acme.com", Role: user.RoleAgent}, "acme123")
	s.addAccount(acmeCentro, user.User{ID: 4, Name: "Carla Dias", Email: "carla@acme.com", Role: user.RoleFranchiseAdmin}, "acme123")

	s.categories[acme.Slug] = []category.Category{
		{ID: "cat-hw", Name: "Hardware", Color: "#d32f2f", IsActive: true, SLAHours: 24, TenantID: acme.ID},
		{ID: "cat-sw", Name: "Sistemas", Color: "#1976d2", IsActive: true, SLAHours: 8, TenantID: acme.ID},
		{ID: "cat-old", Name: "Legado", IsActive: false, SLAHours: 48, TenantID: acme.ID},
	}
	s.categories[acmeCentro.Slug] = []category.Category{
		{ID: "cat-loja", Name: "Loja", Color: "#388e3c", IsActive: true, SLAHours: 12, TenantID: acmeCentro.ID},
	}

	now := time.Now().UTC()
	s.tickets[acme.Slug] = []ticket.Ticket{
		{
			ID:          "a0f1c2d3-0001-4000-8000-000000000001",
			Number:      s.nextTicketNumber(),
			Title:       "PDV travando no fechamento",
			Description: "O ponto de venda congela ao emitir a última nota do dia.",
			Status:      ticket.StatusOpen,
			Priority:    ticket.PriorityHigh,
			Category:    s.findCategory(acme.Slug, "cat-sw"),
			TenantID:    acme.ID,
			CreatedAt:   now.Add(-48 * time.Hour),
			UpdatedAt:   now.Add(-2 * time.Hour),
		},
		{
			ID:          "a0f1c2d3-0002-4000-8000-000000000002",
			Number:      s.nextTicketNumber(),
			Title:       "Impressora fiscal sem comunicação",
			Description: "Equipamento não responde desde a atualização de ontem.",
			Status:      ticket.StatusInProgress,
			Priority:    ticket.PriorityUrgent,
			Category:    s.findCategory(acme.Slug, "cat-hw"),
			TenantID:    acme.ID,
			CreatedAt:   now.Add(-24 * time.Hour),
			UpdatedAt:   now.Add(-30 * time.Minute),
		},
	}
}

func (s *Server) addAccount(ten *tenant.Tenant, u user.User, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	u.Tenant = ten
	s.accounts[ten.Slug] = append(s.accounts[ten.Slug], account{user: u, passwordHash: hash})
}

func (s *Server) nextTicketNumber() int {
	n := s.nextNumber
	s.nextNumber++
	return n
}
