package domain

import "time"

// TenantRecord is an entry in the master directory mapping a tenant slug
// to its physical database. Records are written by the provisioning flow
// and read-only for every other component.
type TenantRecord struct {
	Slug         string
	DatabaseName string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewTenantRecord creates an active directory record for a tenant.
func NewTenantRecord(slug, databaseName string) TenantRecord {
	now := time.Now().UTC()
	return TenantRecord{
		Slug:         slug,
		DatabaseName: databaseName,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
