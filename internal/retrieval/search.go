package retrieval

import (
	"context"
	"unicode"
	"unicode/utf8"

	"github.com/mannyyang/docubeam/internal/models"
	"github.com/mannyyang/docubeam/internal/ocr"
)

// contextRadius is how many bytes of surrounding text each match carries on
// either side, clamped to the text edges and widened to rune boundaries.
const contextRadius = 100

// Search runs a case-insensitive scan over the document's full text. Matching
// is rune-wise case folding on the original text, so every reported offset is
// a byte position into the stored full text even when lowering a rune changes
// its encoded length. Page numbers are resolved against the exact
// page-boundary offsets recomputed from the stored pages.
func (s *Service) Search(ctx context.Context, id, query string) (*models.SearchResults, error) {
	result, err := s.OCRResult(ctx, id)
	if err != nil {
		return nil, err
	}

	results := &models.SearchResults{
		DocumentID: id,
		Query:      query,
		Matches:    []models.SearchMatch{},
	}

	offsets := ocr.PageOffsets(result.Pages)
	for from := 0; ; {
		pos, end := foldIndex(result.FullText, query, from)
		if pos < 0 {
			break
		}
		results.Matches = append(results.Matches, models.SearchMatch{
			PageNumber: ocr.PageForOffset(offsets, pos),
			Context:    contextWindow(result.FullText, pos, end-pos),
			Offset:     pos,
		})
		from = end
	}
	results.TotalMatches = len(results.Matches)
	return results, nil
}

// foldIndex finds the first case-insensitive occurrence of needle in text at
// or after from. Returns the match's byte start and end in text, or (-1, -1).
func foldIndex(text, needle string, from int) (int, int) {
	if needle == "" {
		return -1, -1
	}
	for i := from; i < len(text); {
		if n, ok := foldPrefix(text[i:], needle); ok {
			return i, i + n
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return -1, -1
}

// foldPrefix reports whether text starts with a case-insensitive match of
// needle, and the matched byte length in text.
func foldPrefix(text, needle string) (int, bool) {
	n := 0
	for _, nr := range needle {
		tr, size := utf8.DecodeRuneInString(text[n:])
		if size == 0 {
			return 0, false
		}
		if unicode.ToLower(tr) != unicode.ToLower(nr) {
			return 0, false
		}
		n += size
	}
	return n, true
}

// contextWindow slices contextRadius bytes either side of the match, bounded
// by the text edges and widened outward to rune boundaries so the window is
// always valid UTF-8.
func contextWindow(text string, pos, matchLen int) string {
	start := pos - contextRadius
	if start < 0 {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	end := pos + matchLen + contextRadius
	if end > len(text) {
		end = len(text)
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	if start > end {
		start = end
	}
	return text[start:end]
}
