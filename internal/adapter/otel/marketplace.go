package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/storebridge/internal/domain"
)

// TracingMarketplace wraps a domain.Marketplace with OpenTelemetry tracing.
type TracingMarketplace struct {
	next   domain.Marketplace
	tracer trace.Tracer
}

// Compile-time check: TracingMarketplace implements domain.Marketplace.
var _ domain.Marketplace = (*TracingMarketplace)(nil)

// NewTracingMarketplace creates a tracing decorator around the given client.
func NewTracingMarketplace(next domain.Marketplace) *TracingMarketplace {
	return &TracingMarketplace{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (m *TracingMarketplace) CreateStore(ctx context.Context, req domain.StoreRequest) (domain.StoreCreated, error) {
	ctx, span := m.tracer.Start(ctx, "Marketplace.CreateStore",
		trace.WithAttributes(attribute.String("store.cnpj", req.CNPJ)),
	)
	defer span.End()

	created, err := m.next.CreateStore(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return created, err
}

func (m *TracingMarketplace) StoreToken(ctx context.Context, cnpj, softwareHouseCNPJ string) (domain.TokenPair, error) {
	ctx, span := m.tracer.Start(ctx, "Marketplace.StoreToken",
		trace.WithAttributes(attribute.String("store.cnpj", cnpj)),
	)
	defer span.End()

	pair, err := m.next.StoreToken(ctx, cnpj, softwareHouseCNPJ)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return pair, err
}

func (m *TracingMarketplace) RefreshToken(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	ctx, span := m.tracer.Start(ctx, "Marketplace.RefreshToken")
	defer span.End()

	pair, err := m.next.RefreshToken(ctx, refreshToken)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return pair, err
}

func (m *TracingMarketplace) CreateProduct(ctx context.Context, product domain.RawProduct) (domain.RawProduct, error) {
	ctx, span := m.tracer.Start(ctx, "Marketplace.CreateProduct")
	defer span.End()

	out, err := m.next.CreateProduct(ctx, product)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

func (m *TracingMarketplace) ListProducts(ctx context.Context, query domain.ProductQuery) (domain.RawProduct, error) {
	ctx, span := m.tracer.Start(ctx, "Marketplace.ListProducts",
		trace.WithAttributes(
			attribute.Int("query.page", query.Page),
			attribute.Int("query.size", query.Size),
		),
	)
	defer span.End()

	out, err := m.next.ListProducts(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

func (m *TracingMarketplace) UpdateProduct(ctx context.Context, sku string, patch domain.RawProduct) (domain.RawProduct, error) {
	ctx, span := m.tracer.Start(ctx, "Marketplace.UpdateProduct",
		trace.WithAttributes(attribute.String("product.sku", sku)),
	)
	defer span.End()

	out, err := m.next.UpdateProduct(ctx, sku, patch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

func (m *TracingMarketplace) DeleteProduct(ctx context.Context, sku string) error {
	ctx, span := m.tracer.Start(ctx, "Marketplace.DeleteProduct",
		trace.WithAttributes(attribute.String("product.sku", sku)),
	)
	defer span.End()

	err := m.next.DeleteProduct(ctx, sku)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (m *TracingMarketplace) SendProductBatch(ctx context.Context, tenant string, products []domain.ImportProduct) error {
	ctx, span := m.tracer.Start(ctx, "Marketplace.SendProductBatch",
		trace.WithAttributes(
			attribute.String("tenant.slug", tenant),
			attribute.Int("batch.size", len(products)),
		),
	)
	defer span.End()

	err := m.next.SendProductBatch(ctx, tenant, products)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
