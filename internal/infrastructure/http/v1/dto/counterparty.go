package dto

import (
	"invenda/internal/core/id"
	"invenda/internal/domain/catalogs/counterparty"
)

// CreateCounterpartyRequest represents a request to create a counterparty.
type CreateCounterpartyRequest struct {
	Code  string `json:"code,omitempty"`
	Name  string `json:"name" binding:"required"`
	Kind  string `json:"kind" binding:"required,oneof=customer supplier both"`
	TaxID string `json:"taxId,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateCounterpartyRequest) ToEntity(tenantID id.ID) *counterparty.Counterparty {
	cp := counterparty.New(tenantID, r.Code, r.Name, counterparty.Kind(r.Kind))
	cp.TaxID = r.TaxID
	cp.Email = r.Email
	cp.Phone = r.Phone
	return cp
}

// UpdateCounterpartyRequest represents a request to update a counterparty.
type UpdateCounterpartyRequest struct {
	Name   *string `json:"name,omitempty"`
	Kind   *string `json:"kind,omitempty"`
	TaxID  *string `json:"taxId,omitempty"`
	Email  *string `json:"email,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateCounterpartyRequest) ApplyTo(cp *counterparty.Counterparty) {
	if r.Name != nil {
		cp.Name = *r.Name
	}
	if r.Kind != nil {
		cp.Kind = counterparty.Kind(*r.Kind)
	}
	if r.TaxID != nil {
		cp.TaxID = *r.TaxID
	}
	if r.Email != nil {
		cp.Email = *r.Email
	}
	if r.Phone != nil {
		cp.Phone = *r.Phone
	}
	if r.Active != nil {
		cp.Active = *r.Active
	}
}

// CounterpartyResponse represents a counterparty in API responses.
type CounterpartyResponse struct {
	CatalogResponse

	Kind   string `json:"kind"`
	TaxID  string `json:"taxId,omitempty"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Active bool   `json:"active"`
}

// FromCounterparty converts domain entity to response DTO.
func FromCounterparty(cp *counterparty.Counterparty) *CounterpartyResponse {
	return &CounterpartyResponse{
		CatalogResponse: FromCatalog(cp.Catalog),
		Kind:            string(cp.Kind),
		TaxID:           cp.TaxID,
		Email:           cp.Email,
		Phone:           cp.Phone,
		Active:          cp.Active,
	}
}

// CounterpartyListResponse represents a list of counterparties.
type CounterpartyListResponse struct {
	Items      []*CounterpartyResponse `json:"items"`
	TotalCount int                     `json:"totalCount"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
}
