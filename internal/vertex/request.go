package vertex

// SummaryQuery carries the tuning parameters of a summary search. Zero
// values mean "unset" and are omitted from the outgoing payload.
type SummaryQuery struct {
	Query              string
	PageSize           int
	QueryExpansion     string
	SpellCorrection    string
	Filter             string
	CanonicalFilter    string
	BoostSpec          *BoostSpec
	FacetSpecs         []FacetSpec
	RelevanceThreshold string
	SafeSearch         bool

	SummaryResultCount   int
	CustomPreamble       string
	UseSemanticChunks    bool
	LanguageCode         string
	ModelVersion         string
	ReturnRelevanceScore bool
}

// BuildExtractive builds the fixed extractive payload used to harvest raw
// context text for the generative backend. No tuning beyond page size.
func BuildExtractive(query string, pageSize int) SearchRequest {
	return SearchRequest{
		Query:               query,
		PageSize:            pageSize,
		QueryExpansionSpec:  &QueryExpansionSpec{Condition: "AUTO"},
		SpellCorrectionSpec: &SpellCorrectionSpec{Mode: "AUTO"},
		ContentSearchSpec: &ContentSearchSpec{
			ExtractiveContentSpec: &ExtractiveContentSpec{
				MaxExtractiveAnswerCount:  5,
				MaxExtractiveSegmentCount: 1,
			},
		},
	}
}

// BuildSummary assembles the full summary payload. Optional tuning fields
// are copied only when set; citation inclusion and adversarial/jailbreak
// filtering are always forced on.
func BuildSummary(q SummaryQuery) SearchRequest {
	req := SearchRequest{
		Query:    q.Query,
		PageSize: q.PageSize,
	}
	if q.QueryExpansion != "" {
		req.QueryExpansionSpec = &QueryExpansionSpec{Condition: q.QueryExpansion}
	}
	if q.SpellCorrection != "" {
		req.SpellCorrectionSpec = &SpellCorrectionSpec{Mode: q.SpellCorrection}
	}
	req.Filter = q.Filter
	req.CanonicalFilter = q.CanonicalFilter
	req.BoostSpec = q.BoostSpec
	req.FacetSpecs = q.FacetSpecs
	req.RelevanceThreshold = q.RelevanceThreshold
	req.SafeSearch = q.SafeSearch

	summary := &SummarySpec{
		SummaryResultCount:      q.SummaryResultCount,
		IncludeCitations:        true,
		IgnoreAdversarialQuery:  true,
		IgnoreJailBreakingQuery: true,
		UseSemanticChunks:       q.UseSemanticChunks,
		LanguageCode:            q.LanguageCode,
	}
	if q.ModelVersion != "" {
		summary.ModelSpec = &ModelSpec{Version: q.ModelVersion}
	}
	if q.CustomPreamble != "" {
		summary.ModelPromptSpec = &ModelPromptSpec{Preamble: q.CustomPreamble}
	}
	req.ContentSearchSpec = &ContentSearchSpec{
		SummarySpec: summary,
		SnippetSpec: &SnippetSpec{ReturnSnippet: true},
	}
	if q.ReturnRelevanceScore {
		req.RelevanceScoreSpec = &RelevanceScoreSpec{ReturnRelevanceScore: true}
	}
	return req
}
