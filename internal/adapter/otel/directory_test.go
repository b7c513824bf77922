package otel_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	adapter "github.com/neomorfeo/storebridge/internal/adapter/otel"
	"github.com/neomorfeo/storebridge/internal/domain"
)

// --- Test tracer setup ---

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

// --- Mock directory ---

type mockDirectory struct {
	records map[string]domain.TenantRecord
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{records: make(map[string]domain.TenantRecord)}
}

func (m *mockDirectory) Create(_ context.Context, record domain.TenantRecord) error {
	m.records[record.Slug] = record
	return nil
}

func (m *mockDirectory) GetBySlug(_ context.Context, slug string) (domain.TenantRecord, error) {
	record, ok := m.records[slug]
	if !ok {
		return domain.TenantRecord{}, domain.ErrTenantNotFound
	}
	return record, nil
}

func (m *mockDirectory) List(_ context.Context) ([]domain.TenantRecord, error) {
	out := make([]domain.TenantRecord, 0, len(m.records))
	for _, record := range m.records {
		out = append(out, record)
	}
	return out, nil
}

func (m *mockDirectory) ListActiveSlugs(_ context.Context) ([]string, error) {
	var out []string
	for slug, record := range m.records {
		if record.Active {
			out = append(out, slug)
		}
	}
	return out, nil
}

func (m *mockDirectory) SetActive(_ context.Context, slug string, active bool) error {
	record, ok := m.records[slug]
	if !ok {
		return domain.ErrTenantNotFound
	}
	record.Active = active
	m.records[slug] = record
	return nil
}

// --- Tests ---

func TestTracingDirectory_Create_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockDirectory()
	dir := adapter.NewTracingDirectory(inner)

	record := domain.NewTenantRecord("acme", "acme_erp")
	if err := dir.Create(context.Background(), record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "Directory.Create" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "Directory.Create")
	}

	assertAttribute(t, spans[0], "tenant.slug", "acme")
	assertAttribute(t, spans[0], "tenant.database", "acme_erp")

	if _, ok := inner.records["acme"]; !ok {
		t.Error("record not forwarded to inner directory")
	}
}

func TestTracingDirectory_GetBySlug_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	dir := adapter.NewTracingDirectory(newMockDirectory())

	_, err := dir.GetBySlug(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected error event on span")
	}
}

func TestTracingDirectory_List_RecordsResultCount(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockDirectory()
	dir := adapter.NewTracingDirectory(inner)

	inner.records["a"] = domain.NewTenantRecord("a", "a_erp")
	inner.records["b"] = domain.NewTenantRecord("b", "b_erp")

	records, err := dir.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	assertAttribute(t, spans[0], "result.count", "2")
}

func TestTracingDirectory_SetActive_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockDirectory()
	dir := adapter.NewTracingDirectory(inner)

	inner.records["acme"] = domain.NewTenantRecord("acme", "acme_erp")

	if err := dir.SetActive(context.Background(), "acme", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "Directory.SetActive" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "Directory.SetActive")
	}
	assertAttribute(t, spans[0], "tenant.slug", "acme")
	assertAttribute(t, spans[0], "tenant.active", "false")

	if inner.records["acme"].Active {
		t.Error("deactivation not forwarded to inner directory")
	}
}

// assertAttribute checks that a span has an attribute with the given key and string value.
func assertAttribute(t *testing.T, span tracetest.SpanStub, key, want string) {
	t.Helper()
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			got := attr.Value.Emit()
			if got != want {
				t.Errorf("attribute %q = %q, want %q", key, got, want)
			}
			return
		}
	}
	t.Errorf("attribute %q not found on span %q", key, span.Name)
}
