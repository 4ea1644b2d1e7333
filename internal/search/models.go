package search

import (
	"fmt"
	"unicode/utf8"

	"github.com/Nukaze/vertex-search-rag/internal/vertex"
)

// Response modes.
const (
	ModeStreaming = "streaming"
	ModeDirect    = "direct"
)

// Intent is the client search request. Generation controls apply to
// streaming mode only and summary controls to direct mode only; the
// inactive set is ignored, never validated against the active mode.
type Intent struct {
	Query    string `json:"query"`
	Mode     string `json:"mode"`
	PageSize int    `json:"pageSize"`
	Model    string `json:"model"`

	QueryExpansion  string `json:"queryExpansion"`
	SpellCorrection string `json:"spellCorrection"`

	Filter             string             `json:"filter"`
	CanonicalFilter    string             `json:"canonicalFilter"`
	BoostSpec          *vertex.BoostSpec  `json:"boostSpec"`
	FacetSpecs         []vertex.FacetSpec `json:"facetSpecs"`
	RelevanceThreshold string             `json:"relevanceThreshold"`

	CustomSystemPrompt  string `json:"customSystemPrompt"`
	UseSemanticChunks   *bool  `json:"useSemanticChunks"`
	SummaryResultCount  int    `json:"summaryResultCount"`
	LanguageCode        string `json:"languageCode"`
	SummaryModelVersion string `json:"summaryModelVersion"`

	ReturnRelevanceScore bool `json:"returnRelevanceScore"`
	SafeSearch           bool `json:"safeSearch"`

	Temperature     *float64 `json:"temperature"`
	TopK            *int     `json:"topK"`
	TopP            *float64 `json:"topP"`
	MaxOutputTokens *int     `json:"maxOutputTokens"`
}

// Normalize applies request defaults for unset fields.
func (i *Intent) Normalize() {
	if i.Mode == "" {
		i.Mode = ModeStreaming
	}
	if i.PageSize == 0 {
		i.PageSize = 5
	}
	if i.QueryExpansion == "" {
		i.QueryExpansion = "AUTO"
	}
	if i.SpellCorrection == "" {
		i.SpellCorrection = "AUTO"
	}
	if i.SummaryResultCount == 0 {
		i.SummaryResultCount = 5
	}
	if i.LanguageCode == "" {
		i.LanguageCode = "th"
	}
	if i.SummaryModelVersion == "" {
		i.SummaryModelVersion = "stable"
	}
	for idx := range i.FacetSpecs {
		if i.FacetSpecs[idx].Limit == 0 {
			i.FacetSpecs[idx].Limit = 20
		}
	}
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// Validate checks field bounds. Call after Normalize.
func (i *Intent) Validate() error {
	n := utf8.RuneCountInString(i.Query)
	if n < 1 || n > 500 {
		return fmt.Errorf("query must be 1-500 characters")
	}
	if !oneOf(i.Mode, ModeStreaming, ModeDirect) {
		return fmt.Errorf("mode must be streaming or direct")
	}
	if i.PageSize < 1 || i.PageSize > 50 {
		return fmt.Errorf("pageSize must be 1-50")
	}
	if !oneOf(i.QueryExpansion, "AUTO", "DISABLED", "ALWAYS") {
		return fmt.Errorf("queryExpansion must be AUTO, DISABLED or ALWAYS")
	}
	if !oneOf(i.SpellCorrection, "AUTO", "DISABLED", "SUGGESTION_ONLY") {
		return fmt.Errorf("spellCorrection must be AUTO, DISABLED or SUGGESTION_ONLY")
	}
	if i.RelevanceThreshold != "" && !oneOf(i.RelevanceThreshold, "LOWEST", "LOW", "MEDIUM", "HIGH", "HIGHEST") {
		return fmt.Errorf("invalid relevanceThreshold")
	}
	if i.BoostSpec != nil {
		for _, b := range i.BoostSpec.ConditionBoostSpecs {
			if b.Boost < -1 || b.Boost > 1 {
				return fmt.Errorf("boost must be within [-1, 1]")
			}
		}
		for _, b := range i.BoostSpec.FreshnessBoostSpecs {
			if b.Boost < -1 || b.Boost > 1 {
				return fmt.Errorf("boost must be within [-1, 1]")
			}
		}
	}
	if len(i.FacetSpecs) > 100 {
		return fmt.Errorf("at most 100 facetSpecs allowed")
	}
	for _, f := range i.FacetSpecs {
		if f.FacetKey.Key == "" {
			return fmt.Errorf("facetKey.key is required")
		}
		if f.Limit < 1 || f.Limit > 100 {
			return fmt.Errorf("facet limit must be 1-100")
		}
	}
	if utf8.RuneCountInString(i.CustomSystemPrompt) > 2000 {
		return fmt.Errorf("customSystemPrompt must be at most 2000 characters")
	}
	if i.SummaryResultCount < 1 || i.SummaryResultCount > 10 {
		return fmt.Errorf("summaryResultCount must be 1-10")
	}
	if !oneOf(i.SummaryModelVersion, "stable", "preview") {
		return fmt.Errorf("summaryModelVersion must be stable or preview")
	}
	if i.Temperature != nil && (*i.Temperature < 0 || *i.Temperature > 2) {
		return fmt.Errorf("temperature must be within [0, 2]")
	}
	if i.TopK != nil && (*i.TopK < 1 || *i.TopK > 40) {
		return fmt.Errorf("topK must be 1-40")
	}
	if i.TopP != nil && (*i.TopP < 0 || *i.TopP > 1) {
		return fmt.Errorf("topP must be within [0, 1]")
	}
	if i.MaxOutputTokens != nil && (*i.MaxOutputTokens < 1 || *i.MaxOutputTokens > 8192) {
		return fmt.Errorf("maxOutputTokens must be 1-8192")
	}
	return nil
}

// Outcome is the single-shot response shape. success=false with a
// populated error is the canonical handled-failure shape.
type Outcome struct {
	Success      bool              `json:"success"`
	Mode         string            `json:"mode"`
	Query        string            `json:"query"`
	Summary      string            `json:"summary,omitempty"`
	Citations    []vertex.Citation `json:"citations,omitempty"`
	Facets       []vertex.Facet    `json:"facets,omitempty"`
	TotalResults *int64            `json:"totalResults,omitempty"`
	ResponseTime float64           `json:"responseTime"`
	Error        string            `json:"error,omitempty"`
}

// StreamEvent is one framed event of the incremental stream. Exactly one
// terminal event (done=true) closes a stream; it carries no text fragment.
type StreamEvent struct {
	Chunk        string            `json:"chunk"`
	Done         bool              `json:"done"`
	Citations    []vertex.Citation `json:"citations,omitempty"`
	ResponseTime *float64          `json:"responseTime,omitempty"`
}
