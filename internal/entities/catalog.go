package entities

// Product is one retrieved catalog row with its similarity score.
type Product struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Similarity  float64 `json:"similarity"`
}

// Provenance marks which fallback step produced a catalog lookup result so
// downstream consumers can signal degraded confidence.
type Provenance string

const (
	SourceDirect Provenance = "api-direct"
	SourceLocal  Provenance = "api-local"
	SourceProxy  Provenance = "api-proxy"
	SourceStatic Provenance = "api-mock"
)

// CatalogEntry is one brand/model/version option from the vehicle catalog.
type CatalogEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CatalogResult is a provenance-tagged list of catalog entries.
type CatalogResult struct {
	Entries []CatalogEntry `json:"entries"`
	Source  Provenance     `json:"source"`
}
