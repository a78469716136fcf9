package interfaces

import (
	"context"

	"agente_gateway/internal/entities"
	"agente_gateway/internal/infrastructure"
)

// Generator produces model completions with a per-tenant credential.
type Generator interface {
	Generate(ctx context.Context, apiKey string, req infrastructure.GenerateRequest) (*infrastructure.ModelResponse, error)
	GenerateText(ctx context.Context, apiKey, prompt string) (string, error)
}

// Embedder converts text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, apiKey, text string) ([]float32, error)
}

// ProductSearcher runs semantic catalog lookups.
type ProductSearcher interface {
	MatchProducts(ctx context.Context, clientID string, embedding []float32, threshold float64, limit int) ([]entities.Product, error)
}

// TenantStore reads per-tenant configuration rows.
type TenantStore interface {
	GetTenant(ctx context.Context, tenantID string) (*entities.TenantContext, error)
	GetRolePrompt(ctx context.Context, roleName string) (string, error)
	GetBusinessProfile(ctx context.Context, tenantID string) (*entities.BusinessProfile, error)
	GetActiveOffers(ctx context.Context, tenantID string) ([]entities.Offer, error)
	GetActivePayments(ctx context.Context, tenantID string) ([]entities.PaymentMethod, error)
}

// Broadcaster fans events out to connected observers.
type Broadcaster interface {
	Broadcast(evt entities.BroadcastEvent)
}
