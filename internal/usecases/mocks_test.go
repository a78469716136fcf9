package usecases

import (
	"context"
	"errors"
	"log/slog"

	"agente_gateway/internal/entities"
	"agente_gateway/internal/infrastructure"
)

// mockGenerator returns queued responses in order and records every request.
type mockGenerator struct {
	responses []*infrastructure.ModelResponse
	err       error
	requests  []infrastructure.GenerateRequest
	textCalls []string
}

func (m *mockGenerator) Generate(ctx context.Context, apiKey string, req infrastructure.GenerateRequest) (*infrastructure.ModelResponse, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return &infrastructure.ModelResponse{Text: "ok"}, nil
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *mockGenerator) GenerateText(ctx context.Context, apiKey, prompt string) (string, error) {
	m.textCalls = append(m.textCalls, prompt)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "ok", nil
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp.Text, nil
}

type mockEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(ctx context.Context, apiKey, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.vector, nil
}

type mockSearcher struct {
	products []entities.Product
	err      error
	calls    int
}

func (m *mockSearcher) MatchProducts(ctx context.Context, clientID string, embedding []float32, threshold float64, limit int) ([]entities.Product, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

type mockTenantStore struct {
	tenant      *entities.TenantContext
	tenantErr   error
	basePrompt  string
	promptErr   error
	profile     *entities.BusinessProfile
	profileErr  error
	offers      []entities.Offer
	offersErr   error
	payments    []entities.PaymentMethod
	paymentsErr error
}

func (m *mockTenantStore) GetTenant(ctx context.Context, tenantID string) (*entities.TenantContext, error) {
	if m.tenantErr != nil {
		return nil, m.tenantErr
	}
	if m.tenant == nil {
		return nil, entities.ErrConfigNotFound
	}
	copied := *m.tenant
	return &copied, nil
}

func (m *mockTenantStore) GetRolePrompt(ctx context.Context, roleName string) (string, error) {
	return m.basePrompt, m.promptErr
}

func (m *mockTenantStore) GetBusinessProfile(ctx context.Context, tenantID string) (*entities.BusinessProfile, error) {
	return m.profile, m.profileErr
}

func (m *mockTenantStore) GetActiveOffers(ctx context.Context, tenantID string) ([]entities.Offer, error) {
	return m.offers, m.offersErr
}

func (m *mockTenantStore) GetActivePayments(ctx context.Context, tenantID string) ([]entities.PaymentMethod, error) {
	return m.payments, m.paymentsErr
}

var errBoom = errors.New("boom")

func testLogger() *slog.Logger {
	return slog.Default()
}
