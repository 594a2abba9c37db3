package contract

import "context"

const TraceIDHeader = "X-Trace-Id"

// MatchType says which field of a service matched the query.
type MatchType string

const (
	MatchCoverage    MatchType = "coverage"
	MatchTitle       MatchType = "title"
	MatchDescription MatchType = "description"
)

// TaxonomySuggestion points the user at a category listing.
type TaxonomySuggestion struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Label       string `json:"label"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	// Subdivision is empty for subcategory-level suggestions.
	Subdivision string `json:"subdivision"`
	URL         string `json:"url"`
}

// ServicePreview points the user at a single service.
type ServicePreview struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Slug      string    `json:"slug"`
	URL       string    `json:"url"`
	Location  string    `json:"location,omitempty"`
	MatchType MatchType `json:"matchType"`
}

const (
	TypeTaxonomy = "taxonomy"
	TypeService  = "service"
)

// SearchResult is what the suggestion box renders.
type SearchResult struct {
	Taxonomies []TaxonomySuggestion `json:"taxonomies"`
	Services   []ServicePreview     `json:"services"`
	HasResults bool                 `json:"hasResults"`
}

// EmptyResult is returned for queries too short to search.
func EmptyResult() SearchResult {
	return SearchResult{
		Taxonomies: []TaxonomySuggestion{},
		Services:   []ServicePreview{},
	}
}

// NewSearchResult wraps the two ranked lists and derives HasResults.
func NewSearchResult(taxonomies []TaxonomySuggestion, services []ServicePreview) SearchResult {
	if taxonomies == nil {
		taxonomies = []TaxonomySuggestion{}
	}
	if services == nil {
		services = []ServicePreview{}
	}
	return SearchResult{
		Taxonomies: taxonomies,
		Services:   services,
		HasResults: len(taxonomies) > 0 || len(services) > 0,
	}
}

// Response is the envelope handed across the suggestion boundary. A failed
// search carries a generic message and no data.
type Response struct {
	Success bool          `json:"success"`
	Data    *SearchResult `json:"data,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type contextKey string

const traceIDKey contextKey = "suggestions_trace_id"

// WithTraceID stores the trace identifier in context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext extracts the trace identifier.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	traceID, ok := ctx.Value(traceIDKey).(string)
	return traceID, ok
}
