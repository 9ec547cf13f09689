// Package tenant defines the tenant domain model for multi-tenancy.
package tenant

import "time"

// Type classifies a tenant within the franchise hierarchy.
type Type string

const (
	TypeCrown      Type = "CROWN"
	TypeFranchisor Type = "FRANCHISOR"
	TypeFranchise  Type = "FRANCHISE"
)

// Segment is the market segment a tenant operates in.
type Segment string

const (
	SegmentModa   Segment = "MODA"
	SegmentFood   Segment = "FOOD"
	SegmentFarma  Segment = "FARMA"
	SegmentTech   Segment = "TECH"
	SegmentBeauty Segment = "BEAUTY"
	SegmentSport  Segment = "SPORT"
	SegmentOther  Segment = "OTHER"
)

// FallbackLabel is returned by label getters when no tenant is present.
// Callers must not treat it as an error.
const FallbackLabel = "Sistema"

// Tenant represents an isolated customer organization or one of its
// franchise locations, identified by its slug.
type Tenant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CNPJ      string    `json:"cnpj"`
	Brand     string    `json:"brand,omitempty"`
	Segment   Segment   `json:"segment,omitempty"`
	Type      Type      `json:"type"`
	Parent    *Tenant   `json:"parentTenant,omitempty"`
	Children  []Tenant  `json:"childTenants,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// BrandName returns the display name for the tenant's brand.
// The crown tenant always displays as "Crown Company".
func (t *Tenant) BrandName() string {
	if t == nil {
		return FallbackLabel
	}
	if t.Type == TypeCrown {
		return "Crown Company"
	}
	if t.Brand != "" {
		return t.Brand
	}
	return t.Name
}

// TypeLabel returns the localized label for the tenant type.
// Unknown types fall through as-is.
func (t *Tenant) TypeLabel() string {
	if t == nil {
		return FallbackLabel
	}
	switch t.Type {
	case TypeCrown:
		return "Crown Company"
	case TypeFranchisor:
		return "Franqueador"
	case TypeFranchise:
		return "Franquia"
	default:
		return string(t.Type)
	}
}

// SegmentLabel returns the localized label for the tenant's market segment.
// Unknown segments fall through as-is.
func (t *Tenant) SegmentLabel() string {
	if t == nil {
		return FallbackLabel
	}
	switch t.Segment {
	case SegmentModa:
		return "Moda"
	case SegmentFood:
		return "Alimentação"
	case SegmentFarma:
		return "Farmácia"
	case SegmentTech:
		return "Tecnologia"
	case SegmentBeauty:
		return "Beleza"
	case SegmentSport:
		return "Esporte"
	case SegmentOther:
		return "Outros"
	default:
		return string(t.Segment)
	}
}

// HasChild reports whether id is one of the tenant's direct child tenants.
func (t *Tenant) HasChild(id int64) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Children {
		if c.ID == id {
			return true
		}
	}
	return false
}
