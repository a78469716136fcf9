package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"agente_gateway/internal/entities"
	"agente_gateway/internal/staticdata"
)

const (
	mercadoLibreSearchURL = "https://api.mercadolibre.com/sites/MLA/search?category=MLA1744"
	allOriginsProxyURL    = "https://api.allorigins.win/raw?url="
)

// CatalogResolver answers vehicle catalog lookups through a fixed fallback
// chain: direct API, local relay, public proxy, bundled static data. Each
// step is tried once; the first non-empty result wins and carries the
// provenance tag of the step that produced it.
type CatalogResolver struct {
	client       *http.Client
	searchURL    string
	proxyURL     string
	localBaseURL string
	logger       *slog.Logger
}

func NewCatalogResolver(localBaseURL string, logger *slog.Logger) *CatalogResolver {
	return &CatalogResolver{
		client:       &http.Client{Timeout: 10 * time.Second},
		searchURL:    mercadoLibreSearchURL,
		proxyURL:     allOriginsProxyURL,
		localBaseURL: localBaseURL,
		logger:       logger,
	}
}

// SetEndpoints overrides the remote sources (tests).
func (r *CatalogResolver) SetEndpoints(search, proxy, local string) {
	r.searchURL = search
	r.proxyURL = proxy
	r.localBaseURL = local
}

// searchResponse is the slice of the marketplace search payload we consume.
type searchResponse struct {
	AvailableFilters []struct {
		ID     string `json:"id"`
		Values []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"values"`
	} `json:"available_filters"`
}

// Brands lists vehicle brands.
func (r *CatalogResolver) Brands(ctx context.Context) entities.CatalogResult {
	searchURL := r.searchURL

	if entries := r.fetchFilter(ctx, searchURL, "BRAND"); len(entries) > 0 {
		return entities.CatalogResult{Entries: entries, Source: entities.SourceDirect}
	}
	if entries := r.fetchLocal(ctx, "/brands", nil); len(entries) > 0 {
		return entities.CatalogResult{Entries: entries, Source: entities.SourceLocal}
	}
	if entries := r.fetchFilter(ctx, r.proxyURL+url.QueryEscape(searchURL), "BRAND"); len(entries) > 0 {
		return entities.CatalogResult{Entries: entries, Source: entities.SourceProxy}
	}

	r.logger.Warn("all brand sources failed, serving static data")
	return entities.CatalogResult{Entries: sorted(staticdata.PopularBrands), Source: entities.SourceStatic}
}

// Models lists models for a brand.
func (r *CatalogResolver) Models(ctx context.Context, brandID string) entities.CatalogResult {
	searchURL := r.searchURL + "&BRAND=" + url.QueryEscape(brandID)

	if entries := r.fetchFilter(ctx, searchURL, "MODEL"); len(entries) > 0 {
		return entities.CatalogResult{Entries: entries, Source: entities.SourceDirect}
	}
	if entries := r.fetchLocal(ctx, "/models", url.Values{"brandId": {brandID}}); len(entries) > 0 {
		return entities.CatalogResult{Entries: entries, Source: entities.SourceLocal}
	}
	if entries := r.fetchFilter(ctx, r.proxyURL+url.QueryEscape(searchURL), "MODEL"); len(entries) > 0 {
		return entities.CatalogResult{Entries: entries, Source: entities.SourceProxy}
	}

	r.logger.Warn("all model sources failed, serving static data", "brand", brandID)
	return entities.CatalogResult{Entries: sorted(staticdata.PopularModels[brandID]), Source: entities.SourceStatic}
}

// Versions lists trim levels for a brand and model, optionally scoped by year.
func (r *CatalogResolver) Versions(ctx context.Context, brandID, modelID, yearID string) entities.CatalogResult {
	searchURL := r.searchURL + "&BRAND=" + url.QueryEscape(brandID) + "&MODEL=" + url.QueryEscape(modelID)
	if yearID != "" {
		searchURL += "&VEHICLE_YEAR=" + url.QueryEscape(yearID)
	}

	if entries := r.fetchFilter(ctx, searchURL, "VEHICLE_VERSION", "TRIM"); len(entries) > 0 {
		return entities.CatalogResult{Entries: entries, Source: entities.SourceDirect}
	}
	query := url.Values{"brandId": {brandID}, "modelId": {modelID}}
	if yearID != "" {
		query.Set("yearId", yearID)
	}
	if entries := r.fetchLocal(ctx, "/versions", query); len(entries) > 0 {
		return entities.CatalogResult{Entries: entries, Source: entities.SourceLocal}
	}
	if entries := r.fetchFilter(ctx, r.proxyURL+url.QueryEscape(searchURL), "VEHICLE_VERSION", "TRIM"); len(entries) > 0 {
		return entities.CatalogResult{Entries: entries, Source: entities.SourceProxy}
	}

	r.logger.Warn("all version sources failed, serving static data", "brand", brandID, "model", modelID)
	entries := make([]entities.CatalogEntry, 0, len(staticdata.CommonVersions))
	for _, v := range staticdata.CommonVersions {
		entries = append(entries, entities.CatalogEntry{ID: v, Name: v})
	}
	return entities.CatalogResult{Entries: entries, Source: entities.SourceStatic}
}

// Years enumerates model years from next year back to 1990. Purely generated,
// so no fallback chain applies.
func (r *CatalogResolver) Years() []entities.CatalogEntry {
	current := time.Now().Year() + 1
	years := make([]entities.CatalogEntry, 0, current-1990+1)
	for y := current; y >= 1990; y-- {
		s := strconv.Itoa(y)
		years = append(years, entities.CatalogEntry{ID: s, Name: s})
	}
	return years
}

// fetchFilter queries a marketplace search URL and extracts one of the named
// facet filters. Returns nil on any failure.
func (r *CatalogResolver) fetchFilter(ctx context.Context, rawURL string, filterIDs ...string) []entities.CatalogEntry {
	body, err := r.get(ctx, rawURL)
	if err != nil {
		r.logger.Debug("catalog source failed", "url", rawURL, "error", err)
		return nil
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil
	}

	for _, filter := range decoded.AvailableFilters {
		for _, want := range filterIDs {
			if filter.ID != want {
				continue
			}
			entries := make([]entities.CatalogEntry, 0, len(filter.Values))
			for _, v := range filter.Values {
				entries = append(entries, entities.CatalogEntry{ID: v.ID, Name: v.Name})
			}
			return sorted(entries)
		}
	}
	return nil
}

// fetchLocal queries the self-hosted relay, which returns plain entry arrays.
func (r *CatalogResolver) fetchLocal(ctx context.Context, path string, query url.Values) []entities.CatalogEntry {
	if r.localBaseURL == "" {
		return nil
	}
	rawURL := r.localBaseURL + path
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}

	body, err := r.get(ctx, rawURL)
	if err != nil {
		r.logger.Debug("local relay failed", "url", rawURL, "error", err)
		return nil
	}

	var entries []entities.CatalogEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		// The versions endpoint wraps its list.
		var wrapped struct {
			Versions []entities.CatalogEntry `json:"versions"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil
		}
		entries = wrapped.Versions
	}
	return entries
}

func (r *CatalogResolver) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func sorted(entries []entities.CatalogEntry) []entities.CatalogEntry {
	out := make([]entities.CatalogEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
