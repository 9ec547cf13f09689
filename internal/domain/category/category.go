// Package category defines the ticket category domain model.
package category

import "time"

// Category classifies tickets within a tenant and carries its SLA window.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	IsActive    bool      `json:"isActive"`
	SLAHours    int       `json:"slaHours"`
	TenantID    int64     `json:"tenantId"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// FilterActive returns the categories that are active and belong to the
// given tenant. The backend may return categories from related tenants;
// views only offer the tenant's own active set. A zero tenantID skips the
// tenant filter.
func FilterActive(cs []Category, tenantID int64) []Category {
	out := make([]Category, 0, len(cs))
	for _, c := range cs {
		if !c.IsActive {
			continue
		}
		if tenantID != 0 && c.TenantID != tenantID {
			continue
		}
		out = append(out, c)
	}
	return out
}
