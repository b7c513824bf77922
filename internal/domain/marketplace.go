package domain

import "encoding/json"

// StoreAddress is the physical address sent when provisioning a store.
type StoreAddress struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"cep"`
}

// StoreResponsible identifies the person accountable for a store.
type StoreResponsible struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// StoreRequest is the payload for provisioning a marketplace store.
// SoftwareHouseCNPJ identifies the integrating vendor; CompanyID ties the
// store back to the tenant's ERP company record.
type StoreRequest struct {
	SoftwareHouseCNPJ string           `json:"cnpjSH"`
	CompanyID         int64            `json:"empresaId"`
	CNPJ              string           `json:"cnpj"`
	CompanyName       string           `json:"companyName"`
	TradingName       string           `json:"tradingName"`
	StateRegistration string           `json:"stateRegistration,omitempty"`
	Address           StoreAddress     `json:"address"`
	Responsible       StoreResponsible `json:"responsible"`
}

// StoreCreated is the marketplace's answer to a store provisioning call.
type StoreCreated struct {
	CNPJ     string `json:"cnpj"`
	StoreID  string `json:"storeIdMarketPlace"`
	TokenHub string `json:"tokenHub"`
}

// TokenPair is an access/refresh token pair issued by the marketplace.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ProductQuery holds the supported filters for listing marketplace
// products.
type ProductQuery struct {
	Page   int
	Size   int
	Query  string
	Brand  string
	EAN    string
	SKU    string
	Active *bool
}

// RawProduct is an opaque marketplace product payload. The HTTP surface
// forwards these verbatim; the marketplace owns the schema.
type RawProduct = json.RawMessage
