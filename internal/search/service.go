package search

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/Nukaze/vertex-search-rag/config"
	"github.com/Nukaze/vertex-search-rag/internal/gemini"
	"github.com/Nukaze/vertex-search-rag/internal/vertex"
)

const (
	// fallbackSummary replaces an empty backend summary in direct mode.
	fallbackSummary = "ไม่พบคำตอบที่เหมาะสมในฐานความรู้"
	// emptyContextError is reported when the knowledge base yields no
	// usable context for the generative stage.
	emptyContextError = "No relevant information found in knowledge base"

	// maxStreamCitations caps the citation list of the terminal stream event.
	maxStreamCitations = 5

	eventBuffer = 16
)

// Searcher runs a document search against the retrieval backend.
type Searcher interface {
	Search(ctx context.Context, payload vertex.SearchRequest) (*vertex.SearchResponse, error)
}

// Generator streams generated text fragments for a prompt.
type Generator interface {
	Stream(ctx context.Context, p gemini.GenerateParams) (<-chan gemini.Fragment, error)
}

// Service dispatches a search intent to the retrieval and generation
// backends according to its mode.
type Service struct {
	search   Searcher
	generate Generator
	gcfg     config.GeminiConfig
	logger   *log.Logger
}

func NewService(search Searcher, generate Generator, gcfg config.GeminiConfig) *Service {
	return &Service{
		search:   search,
		generate: generate,
		gcfg:     gcfg,
		logger:   log.New(log.Writer(), "[SEARCH] ", log.LstdFlags),
	}
}

// StreamResult is the outcome of the streaming path. Exactly one of
// Failure and Events is set: Failure when the retrieval stage produced no
// context, Events when generation is underway.
type StreamResult struct {
	Failure *Outcome
	Events  <-chan StreamEvent
}

// Direct runs a summary search and returns a complete answer in one
// response. An empty backend summary is replaced with the fallback answer
// and still reported as success.
func (s *Service) Direct(ctx context.Context, intent Intent) (*Outcome, error) {
	started := time.Now()

	resp, err := s.search.Search(ctx, vertex.BuildSummary(summaryQuery(intent)))
	if err != nil {
		return nil, err
	}

	result := vertex.ParseSummary(resp)
	summary := result.Summary
	if summary == "" {
		summary = fallbackSummary
	}

	total := result.TotalResults
	return &Outcome{
		Success:      true,
		Mode:         ModeDirect,
		Query:        intent.Query,
		Summary:      summary,
		Citations:    result.Citations,
		Facets:       result.Facets,
		TotalResults: &total,
		ResponseTime: elapsedSeconds(started),
	}, nil
}

// Stream runs an extractive search, feeds the harvested context to the
// generative backend and relays its fragments as stream events. When the
// retrieval stage yields no context the generative backend is never
// called and a failure outcome is returned instead of a stream.
func (s *Service) Stream(ctx context.Context, intent Intent) (*StreamResult, error) {
	started := time.Now()

	resp, err := s.search.Search(ctx, vertex.BuildExtractive(intent.Query, intent.PageSize))
	if err != nil {
		return nil, err
	}

	contextText, citations := vertex.ParseExtractive(resp)
	if contextText == "" {
		s.logger.Printf("no context for query %q", intent.Query)
		return &StreamResult{Failure: &Outcome{
			Success:      false,
			Mode:         ModeStreaming,
			Query:        intent.Query,
			Error:        emptyContextError,
			ResponseTime: elapsedSeconds(started),
		}}, nil
	}

	fragments, err := s.generate.Stream(ctx, gemini.GenerateParams{
		Model:           s.gcfg.ResolveModel(intent.Model),
		Prompt:          buildPrompt(contextText, intent.Query),
		Temperature:     intent.Temperature,
		TopK:            intent.TopK,
		TopP:            intent.TopP,
		MaxOutputTokens: intent.MaxOutputTokens,
	})
	if err != nil {
		return nil, err
	}

	events := make(chan StreamEvent, eventBuffer)
	go s.relay(ctx, fragments, citations, events, time.Now())
	return &StreamResult{Events: events}, nil
}

// relay forwards generation fragments as stream events and closes the
// stream with a single terminal event. A cancelled context ends the relay
// without a terminal event; the client is gone.
func (s *Service) relay(ctx context.Context, fragments <-chan gemini.Fragment, citations []vertex.Citation, out chan<- StreamEvent, genStart time.Time) {
	defer close(out)

	for f := range fragments {
		if f.Err != nil {
			s.logger.Printf("generation stream error: %v", f.Err)
			break
		}
		select {
		case out <- StreamEvent{Chunk: f.Text}:
		case <-ctx.Done():
			return
		}
	}
	if ctx.Err() != nil {
		return
	}

	rt := elapsedSeconds(genStart)
	if len(citations) > maxStreamCitations {
		citations = citations[:maxStreamCitations]
	}
	select {
	case out <- StreamEvent{Done: true, Citations: citations, ResponseTime: &rt}:
	case <-ctx.Done():
	}
}

func summaryQuery(intent Intent) vertex.SummaryQuery {
	useChunks := true
	if intent.UseSemanticChunks != nil {
		useChunks = *intent.UseSemanticChunks
	}
	return vertex.SummaryQuery{
		Query:              intent.Query,
		PageSize:           intent.PageSize,
		QueryExpansion:     intent.QueryExpansion,
		SpellCorrection:    intent.SpellCorrection,
		Filter:             intent.Filter,
		CanonicalFilter:    intent.CanonicalFilter,
		BoostSpec:          intent.BoostSpec,
		FacetSpecs:         intent.FacetSpecs,
		RelevanceThreshold: intent.RelevanceThreshold,
		SafeSearch:         intent.SafeSearch,

		SummaryResultCount:   intent.SummaryResultCount,
		CustomPreamble:       intent.CustomSystemPrompt,
		UseSemanticChunks:    useChunks,
		LanguageCode:         intent.LanguageCode,
		ModelVersion:         intent.SummaryModelVersion,
		ReturnRelevanceScore: intent.ReturnRelevanceScore,
	}
}

// elapsedSeconds reports seconds since started, rounded to 2 decimals.
func elapsedSeconds(started time.Time) float64 {
	return math.Round(time.Since(started).Seconds()*100) / 100
}
