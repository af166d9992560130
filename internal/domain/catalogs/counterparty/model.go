// Package counterparty provides the Counterparty catalog
// (customers and suppliers).
package counterparty

import (
	"context"

	"invenda/internal/core/apperror"
	"invenda/internal/core/entity"
	"invenda/internal/core/id"
)

// Kind defines the counterparty role.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindSupplier Kind = "supplier"
	KindBoth     Kind = "both"
)

// Counterparty represents a customer or supplier.
type Counterparty struct {
	entity.Catalog

	Kind Kind `db:"kind" json:"kind"`

	// TaxID is the fiscal identifier (optional)
	TaxID string `db:"tax_id" json:"taxId,omitempty"`

	Email string `db:"email" json:"email,omitempty"`
	Phone string `db:"phone" json:"phone,omitempty"`

	Active bool `db:"active" json:"active"`
}

// New creates a new Counterparty.
func New(tenantID id.ID, code, name string, kind Kind) *Counterparty {
	return &Counterparty{
		Catalog: entity.NewCatalog(tenantID, code, name),
		Kind:    kind,
		Active:  true,
	}
}

// Validate implements entity.Validatable interface.
func (c *Counterparty) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch c.Kind {
	case KindCustomer, KindSupplier, KindBoth:
	default:
		return apperror.NewValidation("invalid counterparty kind").
			WithDetail("field", "kind").
			WithDetail("value", string(c.Kind))
	}

	return nil
}

// IsSupplier reports whether the counterparty can appear on purchases.
func (c *Counterparty) IsSupplier() bool {
	return c.Kind == KindSupplier || c.Kind == KindBoth
}

// IsCustomer reports whether the counterparty can appear on sales.
func (c *Counterparty) IsCustomer() bool {
	return c.Kind == KindCustomer || c.Kind == KindBoth
}
