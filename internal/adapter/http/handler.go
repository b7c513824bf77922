package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/storebridge/internal/app"
	"github.com/neomorfeo/storebridge/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// Services bundles the application services the API surfaces.
type Services struct {
	Directory *app.DirectoryService
	Stores    *app.StoreService
	Imports   *app.Importer
	Catalog   *app.CatalogService
}

// --- Tenants ---

// TenantResponse is the API representation of a directory record.
type TenantResponse struct {
	Slug         string `json:"slug" doc:"URL-friendly identifier"`
	DatabaseName string `json:"databaseName" doc:"Physical database the tenant lives in"`
	Active       bool   `json:"active" doc:"Whether the tenant is enabled"`
	CreatedAt    string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt    string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toTenantResponse(record domain.TenantRecord) TenantResponse {
	return TenantResponse{
		Slug:         record.Slug,
		DatabaseName: record.DatabaseName,
		Active:       record.Active,
		CreatedAt:    record.CreatedAt.Format(timeFormat),
		UpdatedAt:    record.UpdatedAt.Format(timeFormat),
	}
}

type CreateTenantInput struct {
	Body struct {
		Slug         string `json:"slug" minLength:"1" maxLength:"100" pattern:"^[a-z0-9]+(?:-[a-z0-9]+)*$" doc:"URL-friendly identifier (lowercase, hyphens)"`
		DatabaseName string `json:"databaseName" minLength:"1" maxLength:"255" doc:"Tenant database name"`
	}
}

type CreateTenantOutput struct {
	Body TenantResponse
}

type GetTenantInput struct {
	Slug string `path:"slug" doc:"Tenant slug"`
}

type GetTenantOutput struct {
	Body TenantResponse
}

type ListTenantsOutput struct {
	Body []TenantResponse
}

// --- Stores ---

type CreateStoreInput struct {
	Tenant string `header:"X-Tenant-ID" required:"true" doc:"Tenant slug"`
	Body   struct {
		SoftwareHouseCNPJ string                  `json:"cnpjSH" minLength:"1" doc:"Software house CNPJ"`
		CompanyID         int64                   `json:"empresaId" doc:"ERP company the store belongs to"`
		CNPJ              string                  `json:"cnpj" minLength:"1" doc:"Store CNPJ"`
		CompanyName       string                  `json:"companyName" minLength:"1" doc:"Legal company name"`
		TradingName       string                  `json:"tradingName" doc:"Trading name"`
		StateRegistration string                  `json:"stateRegistration,omitempty" doc:"State registration"`
		Address           domain.StoreAddress     `json:"address" doc:"Store address"`
		Responsible       domain.StoreResponsible `json:"responsible" doc:"Responsible contact"`
	}
}

// StoreResponse is the persisted store config minus its tokens.
type StoreResponse struct {
	ID                 int64  `json:"id" doc:"Store config row id"`
	CompanyID          int64  `json:"empresaId" doc:"ERP company id"`
	CNPJ               string `json:"cnpj" doc:"Store CNPJ"`
	MarketplaceStoreID string `json:"storeIdMarketPlace" doc:"Store id assigned by the marketplace"`
	TokenHub           string `json:"tokenHub" doc:"Token hub identifier"`
	Active             bool   `json:"active" doc:"Whether this config is the active one"`
}

type CreateStoreOutput struct {
	Body StoreResponse
}

// --- Imports ---

// ImportFormData is the multipart payload of an upload.
type ImportFormData struct {
	File huma.FormFile `form:"file" contentType:"text/csv,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" required:"true"`
}

type UploadImportInput struct {
	Tenant  string `header:"X-Tenant-ID" required:"true" doc:"Tenant slug"`
	RawBody huma.MultipartFormFiles[ImportFormData]
}

type UploadImportOutput struct {
	Body struct {
		Message   string `json:"message" doc:"Human-readable acknowledgement"`
		JobID     int64  `json:"jobId" doc:"Queue job id of the file stage"`
		SessionID string `json:"sessionId" doc:"Import session to poll for results"`
	}
}

type GetImportInput struct {
	Tenant string `header:"X-Tenant-ID" required:"true" doc:"Tenant slug"`
	ID     string `path:"id" doc:"Import session id"`
}

// ImportErrorResponse is one failure record of a session.
type ImportErrorResponse struct {
	RowNumber int    `json:"rowNumber" doc:"1-based file row, 0 for batch-level failures"`
	SKU       string `json:"sku" doc:"SKU of the failed row"`
	Message   string `json:"message" doc:"Failure description"`
}

type GetImportOutput struct {
	Body struct {
		ID        string                `json:"id" doc:"Session id"`
		FileName  string                `json:"fileName" doc:"Original upload name"`
		Status    string                `json:"status" doc:"processing, completed or failed"`
		CreatedAt string                `json:"created_at" doc:"Upload timestamp (ISO 8601)"`
		Errors    []ImportErrorResponse `json:"errors" doc:"Per-row and batch-level failures"`
	}
}

// --- Products ---

type CreateProductInput struct {
	RawBody []byte `contentType:"application/json"`
}

type ProductOutput struct {
	Body json.RawMessage
}

type ListProductsInput struct {
	Page   int    `query:"_page" required:"false" default:"1" doc:"Page number"`
	Size   int    `query:"size" required:"false" default:"50" doc:"Page size"`
	Query  string `query:"q" required:"false" doc:"Free-text filter"`
	Brand  string `query:"brand" required:"false" doc:"Filter by brand"`
	EAN    string `query:"ean" required:"false" doc:"Filter by EAN"`
	SKU    string `query:"sku" required:"false" doc:"Filter by SKU"`
	Active string `query:"active" required:"false" enum:"true,false" doc:"Filter by active flag"`
}

type UpdateProductInput struct {
	SKU     string `path:"sku" doc:"Product SKU"`
	RawBody []byte `contentType:"application/json"`
}

type DeleteProductInput struct {
	SKU string `path:"sku" doc:"Product SKU"`
}

type DeleteProductOutput struct{}

// Register adds all API routes to the Huma API.
func Register(api huma.API, svc Services) {
	registerTenants(api, svc.Directory)
	registerStores(api, svc.Stores)
	registerImports(api, svc.Imports)
	registerProducts(api, svc.Catalog)
}

func registerTenants(api huma.API, svc *app.DirectoryService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-tenant",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants",
		Summary:     "Register a tenant in the directory",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *CreateTenantInput) (*CreateTenantOutput, error) {
		record, err := svc.Register(ctx, input.Body.Slug, input.Body.DatabaseName)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateTenantOutput{Body: toTenantResponse(record)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tenant",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{slug}",
		Summary:     "Get a tenant by slug",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *GetTenantInput) (*GetTenantOutput, error) {
		record, err := svc.Get(ctx, input.Slug)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetTenantOutput{Body: toTenantResponse(record)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tenants",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants",
		Summary:     "List registered tenants",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, _ *struct{}) (*ListTenantsOutput, error) {
		records, err := svc.List(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]TenantResponse, len(records))
		for i, record := range records {
			resp[i] = toTenantResponse(record)
		}
		return &ListTenantsOutput{Body: resp}, nil
	})
}

func registerStores(api huma.API, svc *app.StoreService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-store",
		Method:      http.MethodPost,
		Path:        "/api/v1/stores",
		Summary:     "Provision a marketplace store for a tenant",
		Tags:        []string{"Stores"},
	}, func(ctx context.Context, input *CreateStoreInput) (*CreateStoreOutput, error) {
		config, err := svc.CreateStore(ctx, input.Tenant, domain.StoreRequest{
			SoftwareHouseCNPJ: input.Body.SoftwareHouseCNPJ,
			CompanyID:         input.Body.CompanyID,
			CNPJ:              input.Body.CNPJ,
			CompanyName:       input.Body.CompanyName,
			TradingName:       input.Body.TradingName,
			StateRegistration: input.Body.StateRegistration,
			Address:           input.Body.Address,
			Responsible:       input.Body.Responsible,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateStoreOutput{Body: StoreResponse{
			ID:                 config.ID,
			CompanyID:          config.CompanyID,
			CNPJ:               config.CNPJ,
			MarketplaceStoreID: config.MarketplaceStoreID,
			TokenHub:           config.TokenHub,
			Active:             config.Active,
		}}, nil
	})
}

func registerImports(api huma.API, svc *app.Importer) {
	huma.Register(api, huma.Operation{
		OperationID:   "upload-import",
		Method:        http.MethodPost,
		Path:          "/api/v1/imports",
		Summary:       "Upload a product spreadsheet for asynchronous import",
		Tags:          []string{"Imports"},
		DefaultStatus: http.StatusAccepted,
	}, func(ctx context.Context, input *UploadImportInput) (*UploadImportOutput, error) {
		file := input.RawBody.Data().File
		session, jobID, err := svc.Accept(ctx, input.Tenant, file.Filename, file)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &UploadImportOutput{}
		out.Body.Message = "File processing started"
		out.Body.JobID = jobID
		out.Body.SessionID = session.ID
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-import",
		Method:      http.MethodGet,
		Path:        "/api/v1/imports/{id}",
		Summary:     "Get an import session and its error log",
		Tags:        []string{"Imports"},
	}, func(ctx context.Context, input *GetImportInput) (*GetImportOutput, error) {
		session, importErrors, err := svc.Session(ctx, input.Tenant, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &GetImportOutput{}
		out.Body.ID = session.ID
		out.Body.FileName = session.FileName
		out.Body.Status = string(session.Status)
		out.Body.CreatedAt = session.CreatedAt.Format(timeFormat)
		out.Body.Errors = make([]ImportErrorResponse, len(importErrors))
		for i, importError := range importErrors {
			out.Body.Errors[i] = ImportErrorResponse{
				RowNumber: importError.RowNumber,
				SKU:       importError.SKU,
				Message:   importError.Message,
			}
		}
		return out, nil
	})
}

func registerProducts(api huma.API, svc *app.CatalogService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-product",
		Method:      http.MethodPost,
		Path:        "/api/v1/products",
		Summary:     "Create a product at the marketplace",
		Tags:        []string{"Products"},
	}, func(ctx context.Context, input *CreateProductInput) (*ProductOutput, error) {
		created, err := svc.Create(ctx, domain.RawProduct(input.RawBody))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ProductOutput{Body: created}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-products",
		Method:      http.MethodGet,
		Path:        "/api/v1/products",
		Summary:     "List marketplace products",
		Tags:        []string{"Products"},
	}, func(ctx context.Context, input *ListProductsInput) (*ProductOutput, error) {
		query := domain.ProductQuery{
			Page:  input.Page,
			Size:  input.Size,
			Query: input.Query,
			Brand: input.Brand,
			EAN:   input.EAN,
			SKU:   input.SKU,
		}
		if input.Active != "" {
			active := input.Active == "true"
			query.Active = &active
		}

		products, err := svc.List(ctx, query)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ProductOutput{Body: products}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-product",
		Method:      http.MethodPut,
		Path:        "/api/v1/products/{sku}",
		Summary:     "Update a marketplace product",
		Tags:        []string{"Products"},
	}, func(ctx context.Context, input *UpdateProductInput) (*ProductOutput, error) {
		updated, err := svc.Update(ctx, input.SKU, domain.RawProduct(input.RawBody))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ProductOutput{Body: updated}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-product",
		Method:        http.MethodDelete,
		Path:          "/api/v1/products/{sku}",
		Summary:       "Delete a marketplace product",
		Tags:          []string{"Products"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *DeleteProductInput) (*DeleteProductOutput, error) {
		if err := svc.Delete(ctx, input.SKU); err != nil {
			return nil, toHumaError(err)
		}
		return &DeleteProductOutput{}, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	switch {
	case errors.Is(err, domain.ErrTenantNotFound):
		return huma.Error404NotFound("tenant not found")
	case errors.Is(err, domain.ErrSessionNotFound):
		return huma.Error404NotFound("import session not found")
	case errors.Is(err, domain.ErrProductNotFound):
		return huma.Error404NotFound("product not found")
	case errors.Is(err, domain.ErrStoreConfigNotFound):
		return huma.Error404NotFound("no active store config")
	case errors.Is(err, domain.ErrUnsupportedFile):
		return huma.Error400BadRequest(domain.ErrUnsupportedFile.Error())
	}

	var slugErr *domain.SlugConflictError
	if errors.As(err, &slugErr) {
		return huma.Error409Conflict(slugErr.Error())
	}

	var configErr *domain.StoreConfigConflictError
	if errors.As(err, &configErr) {
		return huma.Error409Conflict(configErr.Error())
	}

	var connErr *domain.ConnectionConfigError
	if errors.As(err, &connErr) {
		return huma.Error422UnprocessableEntity(connErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	var authErr *domain.AuthenticationError
	if errors.As(err, &authErr) {
		return huma.Error502BadGateway(authErr.Error())
	}

	// The synchronous product proxy re-surfaces the upstream status.
	var upstreamErr *domain.UpstreamError
	if errors.As(err, &upstreamErr) {
		return huma.NewError(upstreamErr.Status, upstreamErr.Body)
	}

	return huma.Error500InternalServerError("internal server error")
}
