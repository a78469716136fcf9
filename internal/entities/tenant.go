package entities

// BusinessProfile is the tenant's public-facing information.
type BusinessProfile struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Hours   string `json:"hours"`
	Phone   string `json:"phone"`
}

// Offer is an active promotion row.
type Offer struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"related_keywords"`
}

// PaymentMethod is an accepted payment method with optional surcharge.
type PaymentMethod struct {
	Name      string  `json:"name"`
	Surcharge float64 `json:"surcharge_percentage"`
}

// TenantContext is everything the orchestrator needs for one turn. It is
// loaded fresh per turn and never cached across turns. Optional collections
// that failed to load are nil; prompt assembly substitutes sentinel strings.
type TenantContext struct {
	ID             string
	APIKey         string
	Role           string
	PromptOverride string
	BasePrompt     string
	Profile        *BusinessProfile
	Offers         []Offer
	Payments       []PaymentMethod
}
