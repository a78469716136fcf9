package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"agente_gateway/internal/entities"
	"agente_gateway/internal/interfaces"
)

// defaultBasePrompt is used when the tenant's role has no stored prompt.
const defaultBasePrompt = "Tu tarea principal es ser un asistente útil. Responde de manera clara y concisa."

// TenantResolver assembles the full per-turn tenant context. The credential
// row is mandatory; auxiliary business data degrades to nil on failure so a
// broken side table never blocks a reply.
type TenantResolver struct {
	store  interfaces.TenantStore
	logger *slog.Logger
}

func NewTenantResolver(store interfaces.TenantStore, logger *slog.Logger) *TenantResolver {
	return &TenantResolver{store: store, logger: logger}
}

// Resolve loads the tenant configuration fresh. No caching across turns.
func (r *TenantResolver) Resolve(ctx context.Context, tenantID string) (*entities.TenantContext, error) {
	tenant, err := r.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("resolving tenant %s: %w", tenantID, err)
	}

	basePrompt, err := r.store.GetRolePrompt(ctx, tenant.Role)
	if err != nil || basePrompt == "" {
		if err != nil {
			r.logger.Warn("role prompt unavailable, using default", "role", tenant.Role, "error", err)
		}
		basePrompt = defaultBasePrompt
	}
	tenant.BasePrompt = basePrompt

	// The business tables are independent; fetch them concurrently and
	// tolerate individual failures.
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		profile, err := r.store.GetBusinessProfile(ctx, tenantID)
		if err != nil {
			r.logger.Warn("business profile unavailable", "tenant", tenantID, "error", err)
			return
		}
		tenant.Profile = profile
	}()

	go func() {
		defer wg.Done()
		offers, err := r.store.GetActiveOffers(ctx, tenantID)
		if err != nil {
			r.logger.Warn("offers unavailable", "tenant", tenantID, "error", err)
			return
		}
		tenant.Offers = offers
	}()

	go func() {
		defer wg.Done()
		payments, err := r.store.GetActivePayments(ctx, tenantID)
		if err != nil {
			r.logger.Warn("payment methods unavailable", "tenant", tenantID, "error", err)
			return
		}
		tenant.Payments = payments
	}()

	wg.Wait()
	return tenant, nil
}
