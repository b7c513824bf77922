package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/storebridge/internal/domain"
)

// DirectoryService is the provisioning surface over the master tenant
// directory.
type DirectoryService struct {
	directory domain.Directory
}

// NewDirectoryService creates the directory admin service.
func NewDirectoryService(directory domain.Directory) *DirectoryService {
	return &DirectoryService{directory: directory}
}

// Register adds a tenant to the directory. The slug must be unique.
func (s *DirectoryService) Register(ctx context.Context, slug, databaseName string) (domain.TenantRecord, error) {
	// Check slug uniqueness before creating.
	if _, err := s.directory.GetBySlug(ctx, slug); err == nil {
		return domain.TenantRecord{}, &domain.SlugConflictError{Slug: slug}
	}

	record := domain.NewTenantRecord(slug, databaseName)
	if err := s.directory.Create(ctx, record); err != nil {
		return domain.TenantRecord{}, fmt.Errorf("creating tenant record: %w", err)
	}
	return record, nil
}

// Get returns one directory record by slug.
func (s *DirectoryService) Get(ctx context.Context, slug string) (domain.TenantRecord, error) {
	return s.directory.GetBySlug(ctx, slug)
}

// List returns all directory records.
func (s *DirectoryService) List(ctx context.Context) ([]domain.TenantRecord, error) {
	return s.directory.List(ctx)
}
