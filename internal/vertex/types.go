package vertex

// Wire types for the document-search backend. Optional fields carry
// omitempty so an unset field is absent from the payload rather than an
// explicit null: the backend treats a missing key differently from an
// explicit default, and presence signals opt-in.

// QueryExpansionSpec controls query expansion (AUTO, DISABLED, ALWAYS).
type QueryExpansionSpec struct {
	Condition string `json:"condition"`
}

// SpellCorrectionSpec controls spell correction (AUTO, DISABLED, SUGGESTION_ONLY).
type SpellCorrectionSpec struct {
	Mode string `json:"mode"`
}

// ConditionBoost up- or down-weights results matching a filter condition.
// Boost is constrained to [-1, 1].
type ConditionBoost struct {
	Condition string  `json:"condition"`
	Boost     float64 `json:"boost"`
}

// FreshnessBoost up- or down-weights results by datetime recency.
type FreshnessBoost struct {
	DatetimeField     string  `json:"datetimeField"`
	FreshnessDuration string  `json:"freshnessDuration"`
	Boost             float64 `json:"boost"`
}

// BoostSpec is the result boosting configuration.
type BoostSpec struct {
	ConditionBoostSpecs []ConditionBoost `json:"conditionBoostSpecs,omitempty"`
	FreshnessBoostSpecs []FreshnessBoost `json:"freshnessBoostSpecs,omitempty"`
}

// FacetKey names the field to facet over.
type FacetKey struct {
	Key              string   `json:"key"`
	RestrictedValues []string `json:"restrictedValues,omitempty"`
}

// FacetSpec requests one categorical aggregate over the result set.
type FacetSpec struct {
	FacetKey              FacetKey `json:"facetKey"`
	Limit                 int      `json:"limit,omitempty"`
	ExcludedFilterKeys    []string `json:"excludedFilterKeys,omitempty"`
	EnableDynamicPosition *bool    `json:"enableDynamicPosition,omitempty"`
}

// ExtractiveContentSpec asks for raw matched text spans.
type ExtractiveContentSpec struct {
	MaxExtractiveAnswerCount  int `json:"maxExtractiveAnswerCount"`
	MaxExtractiveSegmentCount int `json:"maxExtractiveSegmentCount"`
}

// ModelSpec selects the summary model version (stable or preview).
type ModelSpec struct {
	Version string `json:"version"`
}

// ModelPromptSpec carries a custom summary preamble.
type ModelPromptSpec struct {
	Preamble string `json:"preamble"`
}

// SummarySpec configures the backend-synthesized answer.
type SummarySpec struct {
	SummaryResultCount      int              `json:"summaryResultCount"`
	IncludeCitations        bool             `json:"includeCitations"`
	IgnoreAdversarialQuery  bool             `json:"ignoreAdversarialQuery"`
	IgnoreJailBreakingQuery bool             `json:"ignoreJailBreakingQuery"`
	ModelSpec               *ModelSpec       `json:"modelSpec,omitempty"`
	UseSemanticChunks       bool             `json:"useSemanticChunks,omitempty"`
	ModelPromptSpec         *ModelPromptSpec `json:"modelPromptSpec,omitempty"`
	LanguageCode            string           `json:"languageCode,omitempty"`
}

// SnippetSpec asks the backend to return snippets for previews.
type SnippetSpec struct {
	ReturnSnippet bool `json:"returnSnippet"`
}

// ContentSearchSpec selects the retrieval variant.
type ContentSearchSpec struct {
	ExtractiveContentSpec *ExtractiveContentSpec `json:"extractiveContentSpec,omitempty"`
	SummarySpec           *SummarySpec           `json:"summarySpec,omitempty"`
	SnippetSpec           *SnippetSpec           `json:"snippetSpec,omitempty"`
}

// RelevanceScoreSpec asks the backend to return per-result relevance scores.
type RelevanceScoreSpec struct {
	ReturnRelevanceScore bool `json:"returnRelevanceScore"`
}

// SearchRequest is the full search payload.
type SearchRequest struct {
	Query               string               `json:"query"`
	PageSize            int                  `json:"pageSize"`
	QueryExpansionSpec  *QueryExpansionSpec  `json:"queryExpansionSpec,omitempty"`
	SpellCorrectionSpec *SpellCorrectionSpec `json:"spellCorrectionSpec,omitempty"`
	Filter              string               `json:"filter,omitempty"`
	CanonicalFilter     string               `json:"canonicalFilter,omitempty"`
	BoostSpec           *BoostSpec           `json:"boostSpec,omitempty"`
	FacetSpecs          []FacetSpec          `json:"facetSpecs,omitempty"`
	RelevanceThreshold  string               `json:"relevanceThreshold,omitempty"`
	SafeSearch          bool                 `json:"safeSearch,omitempty"`
	ContentSearchSpec   *ContentSearchSpec   `json:"contentSearchSpec,omitempty"`
	RelevanceScoreSpec  *RelevanceScoreSpec  `json:"relevanceScoreSpec,omitempty"`
}

// ---- response wire shapes ----

// Snippet is one snippet entry in derived structured data.
type Snippet struct {
	Snippet string `json:"snippet"`
}

// ExtractiveAnswer is one extractive answer span.
type ExtractiveAnswer struct {
	Content string `json:"content"`
}

// DerivedStructData holds the backend-derived display fields of a document.
type DerivedStructData struct {
	Title             string             `json:"title"`
	Link              string             `json:"link"`
	Snippets          []Snippet          `json:"snippets"`
	ExtractiveAnswers []ExtractiveAnswer `json:"extractive_answers"`
}

// Document is one matched document.
type Document struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	URI               string            `json:"uri"`
	DerivedStructData DerivedStructData `json:"derivedStructData"`
}

// SearchResult wraps one result document.
type SearchResult struct {
	Document Document `json:"document"`
}

// ChunkContent is one content chunk of a summary reference.
type ChunkContent struct {
	Content string `json:"content"`
}

// Reference is one cited source in the summary metadata.
type Reference struct {
	Title         string         `json:"title"`
	URI           string         `json:"uri"`
	ChunkContents []ChunkContent `json:"chunkContents"`
}

// SummaryWithMetadata is the summary plus its reference list.
type SummaryWithMetadata struct {
	Summary    string      `json:"summary"`
	References []Reference `json:"references"`
}

// SummaryPayload is the summary block of a search response.
type SummaryPayload struct {
	Summary             string               `json:"summary"`
	SummaryWithMetadata *SummaryWithMetadata `json:"summaryWithMetadata"`
}

// FacetResultValue is one (value, count) pair of a facet aggregate.
type FacetResultValue struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// FacetResult is one raw facet aggregate.
type FacetResult struct {
	Key    string             `json:"key"`
	Values []FacetResultValue `json:"values"`
}

// SearchResponse is the raw backend search response.
type SearchResponse struct {
	Results   []SearchResult  `json:"results"`
	Summary   *SummaryPayload `json:"summary"`
	Facets    []FacetResult   `json:"facets"`
	TotalSize int64           `json:"totalSize"`
}

// ---- normalized model ----

// Citation is the client-ready normalized source reference. Built once per
// backend result item during normalization and immutable thereafter.
type Citation struct {
	ID             string   `json:"id,omitempty"`
	Title          string   `json:"title"`
	SourceType     string   `json:"source_type,omitempty"`
	URL            string   `json:"url,omitempty"`
	Snippet        string   `json:"snippet,omitempty"`
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
}

// FacetValue is one normalized facet value with its count.
type FacetValue struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Facet is one normalized facet aggregate.
type Facet struct {
	Key    string       `json:"key"`
	Values []FacetValue `json:"values"`
}

// SummaryResult is the normalized outcome of a summary search.
type SummaryResult struct {
	Summary      string
	Citations    []Citation
	Facets       []Facet
	TotalResults int64
}
