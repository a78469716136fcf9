package infrastructure

import (
	"context"
	"fmt"

	"github.com/supabase-community/supabase-go"

	"agente_gateway/internal/entities"
)

// SupabaseClient reads tenant configuration tables through PostgREST.
type SupabaseClient struct {
	client *supabase.Client
}

func NewSupabaseClient(url, apiKey string) (*SupabaseClient, error) {
	if url == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}

	client, err := supabase.NewClient(url, apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &SupabaseClient{client: client}, nil
}

type clientRow struct {
	ID             string `json:"id"`
	GeminiAPIKey   string `json:"gemini_api_key"`
	Role           string `json:"role"`
	PromptOverride string `json:"prompt_override"`
}

type rolePromptRow struct {
	BasePrompt string `json:"base_prompt"`
}

// GetTenant retrieves the per-tenant credential and prompt configuration.
// A missing or keyless row yields entities.ErrConfigNotFound.
func (s *SupabaseClient) GetTenant(ctx context.Context, tenantID string) (*entities.TenantContext, error) {
	var rows []clientRow
	_, err := s.client.From("clients").
		Select("id, gemini_api_key, role, prompt_override", "", false).
		Eq("id", tenantID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get client config: %w", err)
	}

	if len(rows) == 0 || rows[0].GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: client %s", entities.ErrConfigNotFound, tenantID)
	}

	row := rows[0]
	return &entities.TenantContext{
		ID:             row.ID,
		APIKey:         row.GeminiAPIKey,
		Role:           row.Role,
		PromptOverride: row.PromptOverride,
	}, nil
}

// GetRolePrompt retrieves the shared base prompt for a business role.
func (s *SupabaseClient) GetRolePrompt(ctx context.Context, roleName string) (string, error) {
	var row rolePromptRow
	_, err := s.client.From("role_prompts").
		Select("base_prompt", "", false).
		Eq("role_name", roleName).
		Single().
		ExecuteTo(&row)
	if err != nil {
		return "", fmt.Errorf("failed to get role prompt: %w", err)
	}
	return row.BasePrompt, nil
}

// GetBusinessProfile retrieves the store identity block for grounding.
func (s *SupabaseClient) GetBusinessProfile(ctx context.Context, tenantID string) (*entities.BusinessProfile, error) {
	var profile entities.BusinessProfile
	_, err := s.client.From("business_info").
		Select("name, address, hours, phone", "", false).
		Eq("client_id", tenantID).
		Single().
		ExecuteTo(&profile)
	if err != nil {
		return nil, fmt.Errorf("failed to get business info: %w", err)
	}
	return &profile, nil
}

// GetActiveOffers retrieves the promotions currently enabled for a tenant.
func (s *SupabaseClient) GetActiveOffers(ctx context.Context, tenantID string) ([]entities.Offer, error) {
	var offers []entities.Offer
	_, err := s.client.From("offers").
		Select("title, description, related_keywords", "", false).
		Eq("client_id", tenantID).
		Eq("is_active", "true").
		ExecuteTo(&offers)
	if err != nil {
		return nil, fmt.Errorf("failed to get active offers: %w", err)
	}
	return offers, nil
}

// GetActivePayments retrieves the payment methods currently enabled for a tenant.
func (s *SupabaseClient) GetActivePayments(ctx context.Context, tenantID string) ([]entities.PaymentMethod, error) {
	var methods []entities.PaymentMethod
	_, err := s.client.From("payment_methods").
		Select("name, surcharge_percentage", "", false).
		Eq("client_id", tenantID).
		Eq("is_active", "true").
		ExecuteTo(&methods)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment methods: %w", err)
	}
	return methods, nil
}
