package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/storebridge/internal/domain"
)

const tracerName = "github.com/neomorfeo/storebridge/internal/adapter/otel"

// TracingDirectory wraps a domain.Directory with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingDirectory struct {
	next   domain.Directory
	tracer trace.Tracer
}

// Compile-time check: TracingDirectory implements domain.Directory.
var _ domain.Directory = (*TracingDirectory)(nil)

// NewTracingDirectory creates a tracing decorator around the given directory.
func NewTracingDirectory(next domain.Directory) *TracingDirectory {
	return &TracingDirectory{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (d *TracingDirectory) Create(ctx context.Context, record domain.TenantRecord) error {
	ctx, span := d.tracer.Start(ctx, "Directory.Create",
		trace.WithAttributes(
			attribute.String("tenant.slug", record.Slug),
			attribute.String("tenant.database", record.DatabaseName),
		),
	)
	defer span.End()

	err := d.next.Create(ctx, record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (d *TracingDirectory) GetBySlug(ctx context.Context, slug string) (domain.TenantRecord, error) {
	ctx, span := d.tracer.Start(ctx, "Directory.GetBySlug",
		trace.WithAttributes(attribute.String("tenant.slug", slug)),
	)
	defer span.End()

	record, err := d.next.GetBySlug(ctx, slug)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return record, err
}

func (d *TracingDirectory) List(ctx context.Context) ([]domain.TenantRecord, error) {
	ctx, span := d.tracer.Start(ctx, "Directory.List")
	defer span.End()

	records, err := d.next.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(records)))
	}
	return records, err
}

func (d *TracingDirectory) SetActive(ctx context.Context, slug string, active bool) error {
	ctx, span := d.tracer.Start(ctx, "Directory.SetActive",
		trace.WithAttributes(
			attribute.String("tenant.slug", slug),
			attribute.Bool("tenant.active", active),
		),
	)
	defer span.End()

	err := d.next.SetActive(ctx, slug, active)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (d *TracingDirectory) ListActiveSlugs(ctx context.Context) ([]string, error) {
	ctx, span := d.tracer.Start(ctx, "Directory.ListActiveSlugs")
	defer span.End()

	slugs, err := d.next.ListActiveSlugs(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(slugs)))
	}
	return slugs, err
}
