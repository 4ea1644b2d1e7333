package vertex

import (
	"regexp"
	"strings"
)

// SnippetMaxLen is the display cap for cleaned snippets.
const SnippetMaxLen = 200

const snippetEllipsis = "..."

// privateScheme marks internal storage URIs that must never reach clients.
const privateScheme = "gs://"

var jsonURIPattern = regexp.MustCompile(`/json/([^/]+)\.json`)

// categoryRule maps an id substring to a source category and its fixed
// display label. Rules are checked in order; first match wins.
type categoryRule struct {
	substr   string
	category string
	label    string
}

var categoryRules = []categoryRule{
	{"faq", "faq", "คำถามที่พบบ่อย"},
	{"course", "course", "หลักสูตรอบรม"},
	{"about", "about", "เกี่ยวกับเรา"},
	{"promotion", "promotion", "โปรโมชั่น"},
	{"online", "course", "คอร์สออนไลน์"},
	{"public", "course", "คอร์สสาธารณะ"},
}

type sourceMeta struct {
	ID         string
	Title      string
	SourceType string
	URL        string
}

// parseSourceMetadata infers a stable id, display title, source category
// and public URL from a raw result title and URI.
func parseSourceMetadata(title, uri string) sourceMeta {
	titleClean := strings.TrimSpace(title)
	var sourceID string

	if strings.HasPrefix(titleClean, "[") && strings.HasSuffix(titleClean, "]") && len(titleClean) > 2 {
		sourceID = titleClean[1 : len(titleClean)-1]
		titleClean = readableTitle(sourceID)
	} else if uri != "" {
		if m := jsonURIPattern.FindStringSubmatch(uri); m != nil {
			sourceID = m[1]
			titleClean = readableTitle(sourceID)
		}
	}

	sourceType := "unknown"
	if sourceID != "" {
		sourceType = "info"
		lower := strings.ToLower(sourceID)
		for _, rule := range categoryRules {
			if strings.Contains(lower, rule.substr) {
				sourceType = rule.category
				titleClean = rule.label
				break
			}
		}
	}

	publicURL := ""
	if uri != "" && !strings.HasPrefix(uri, privateScheme) {
		publicURL = uri
	}

	return sourceMeta{ID: sourceID, Title: titleClean, SourceType: sourceType, URL: publicURL}
}

func readableTitle(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "-", " "))
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}

var (
	reLeadingQuote  = regexp.MustCompile(`^\\"`)
	reTrailingQuote = regexp.MustCompile(`\\"$`)
	reEscapedQuote  = regexp.MustCompile(`\\"`)
	reEscapedNL     = regexp.MustCompile(`\\n`)
	reMarkupTag     = regexp.MustCompile(`<[^>]+>`)
	reJSONKey       = regexp.MustCompile(`"[\w_]+"\s*:\s*"`)
	reQuoteComma    = regexp.MustCompile(`",\s*"`)
	reStructural    = regexp.MustCompile(`[{}\[\]"]`)
	reWhitespace    = regexp.MustCompile(`\s+`)
)

// CleanSnippet strips JSON quoting artifacts, markup tags and residual
// key:value patterns from a raw snippet, collapses whitespace and truncates
// to maxLen at the last whitespace boundary. Best-effort heuristic, not a
// parser; idempotent on already-clean input modulo the length cap.
func CleanSnippet(raw string, maxLen int) string {
	if raw == "" {
		return ""
	}
	text := raw
	text = reLeadingQuote.ReplaceAllString(text, "")
	text = reTrailingQuote.ReplaceAllString(text, "")
	text = reEscapedQuote.ReplaceAllString(text, `"`)
	text = reEscapedNL.ReplaceAllString(text, " ")
	text = reMarkupTag.ReplaceAllString(text, "")
	text = reJSONKey.ReplaceAllString(text, "")
	text = reQuoteComma.ReplaceAllString(text, " ")
	text = reStructural.ReplaceAllString(text, "")
	text = reWhitespace.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) > maxLen {
		cut := string(runes[:maxLen])
		if idx := strings.LastIndex(cut, " "); idx > 0 {
			cut = cut[:idx]
		}
		text = cut + snippetEllipsis
	}
	return text
}

// buildCitation normalizes one backend result item into a Citation.
func buildCitation(title, uri, rawSnippet string) Citation {
	meta := parseSourceMetadata(title, uri)
	c := Citation{
		ID:         meta.ID,
		Title:      meta.Title,
		SourceType: meta.SourceType,
		URL:        meta.URL,
	}
	if rawSnippet != "" {
		c.Snippet = CleanSnippet(rawSnippet, SnippetMaxLen)
	}
	return c
}

func citationFromResult(doc Document) Citation {
	d := doc.DerivedStructData
	raw := ""
	if len(d.Snippets) > 0 {
		raw = d.Snippets[0].Snippet
	} else if len(d.ExtractiveAnswers) > 0 {
		raw = d.ExtractiveAnswers[0].Content
	}
	title := firstNonEmpty(d.Title, doc.Name, doc.ID, "Untitled")
	uri := firstNonEmpty(d.Link, doc.URI)
	return buildCitation(title, uri, raw)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ParseExtractive concatenates all snippet texts and extractive answers in
// backend result order into one context block, and builds one citation per
// result.
func ParseExtractive(resp *SearchResponse) (string, []Citation) {
	var b strings.Builder
	var citations []Citation
	for _, result := range resp.Results {
		d := result.Document.DerivedStructData
		for _, sn := range d.Snippets {
			if sn.Snippet != "" {
				b.WriteString(sn.Snippet)
				b.WriteString("\n\n")
			}
		}
		for _, ans := range d.ExtractiveAnswers {
			if ans.Content != "" {
				b.WriteString(ans.Content)
				b.WriteString("\n\n")
			}
		}
		citations = append(citations, citationFromResult(result.Document))
	}
	return strings.TrimSpace(b.String()), citations
}

// ParseSummary normalizes a summary search response. Citations come from
// the summary's own reference list when present, else from the first 5 raw
// results. Facets with no values are dropped.
func ParseSummary(resp *SearchResponse) SummaryResult {
	out := SummaryResult{TotalResults: resp.TotalSize}

	if resp.Summary != nil {
		if meta := resp.Summary.SummaryWithMetadata; meta != nil {
			out.Summary = meta.Summary
			for _, ref := range meta.References {
				raw := ""
				if len(ref.ChunkContents) > 0 {
					raw = ref.ChunkContents[0].Content
				}
				title := ref.Title
				if title == "" {
					title = "Untitled"
				}
				out.Citations = append(out.Citations, buildCitation(title, ref.URI, raw))
			}
		}
		if out.Summary == "" {
			out.Summary = resp.Summary.Summary
		}
	}

	if len(out.Citations) == 0 {
		for i, result := range resp.Results {
			if i >= 5 {
				break
			}
			out.Citations = append(out.Citations, citationFromResult(result.Document))
		}
	}

	for _, facet := range resp.Facets {
		if facet.Key == "" || len(facet.Values) == 0 {
			continue
		}
		f := Facet{Key: facet.Key}
		for _, v := range facet.Values {
			f.Values = append(f.Values, FacetValue{Value: v.Value, Count: v.Count})
		}
		out.Facets = append(out.Facets, f)
	}
	return out
}
