package usecases

import (
	"context"
	"errors"
	"testing"

	"agente_gateway/internal/entities"
)

func TestResolveUnknownTenant(t *testing.T) {
	r := NewTenantResolver(&mockTenantStore{}, testLogger())

	_, err := r.Resolve(context.Background(), "missing")
	if !errors.Is(err, entities.ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestResolveFallsBackToDefaultBasePrompt(t *testing.T) {
	store := testTenantStore()
	store.basePrompt = ""
	store.promptErr = errBoom

	r := NewTenantResolver(store, testLogger())
	tenant, err := r.Resolve(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tenant.BasePrompt != defaultBasePrompt {
		t.Errorf("expected default base prompt, got %q", tenant.BasePrompt)
	}
}

func TestResolveDegradesWhenSideTablesFail(t *testing.T) {
	store := testTenantStore()
	store.profileErr = errBoom
	store.offersErr = errBoom
	store.paymentsErr = errBoom

	r := NewTenantResolver(store, testLogger())
	tenant, err := r.Resolve(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("side-table failures must not fail resolution: %v", err)
	}
	if tenant.Profile != nil || tenant.Offers != nil || tenant.Payments != nil {
		t.Error("failed side fetches must leave their fields nil")
	}
}

func TestResolveLoadsAllBusinessData(t *testing.T) {
	store := testTenantStore()
	store.offers = []entities.Offer{{Title: "2x1"}}
	store.payments = []entities.PaymentMethod{{Name: "Efectivo"}}

	r := NewTenantResolver(store, testLogger())
	tenant, err := r.Resolve(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tenant.Profile == nil || tenant.Profile.Name != "Ferretería Centro" {
		t.Error("profile not loaded")
	}
	if len(tenant.Offers) != 1 || len(tenant.Payments) != 1 {
		t.Error("offers or payments not loaded")
	}
}
