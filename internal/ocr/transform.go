package ocr

import (
	"sort"
	"strings"
	"time"

	"github.com/mannyyang/docubeam/internal/models"
)

// PageSeparator joins page markdowns in the concatenated full text.
const PageSeparator = "\n\n---\n\n"

// ProcessResult normalizes a provider response: 0-based page indices become
// 1-based page numbers, all page markdown is concatenated with PageSeparator,
// and every page's images are flattened into one sequence with a 0-based
// imageIndex scoped to the owning page. Deterministic and side-effect-free
// apart from ProcessedAt.
func ProcessResult(raw *models.OCRResponse) *models.ProcessedOCRResult {
	pages := make([]models.OCRPage, len(raw.Pages))
	copy(pages, raw.Pages)
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })

	result := &models.ProcessedOCRResult{
		TotalPages:  len(pages),
		Pages:       make([]models.ProcessedOCRPage, 0, len(pages)),
		Images:      []models.ProcessedImage{},
		ProcessedAt: time.Now().UTC(),
	}

	var fullText strings.Builder
	for i, page := range pages {
		pageNumber := page.Index + 1

		processed := models.ProcessedOCRPage{
			PageNumber: pageNumber,
			Markdown:   page.Markdown,
			Images:     make([]models.ProcessedImage, 0, len(page.Images)),
			Dimensions: page.Dimensions,
		}
		for imageIndex, img := range page.Images {
			pi := models.ProcessedImage{
				ID:           img.ID,
				PageNumber:   pageNumber,
				ImageIndex:   imageIndex,
				TopLeftX:     img.TopLeftX,
				TopLeftY:     img.TopLeftY,
				BottomRightX: img.BottomRightX,
				BottomRightY: img.BottomRightY,
				ImageBase64:  img.ImageBase64,
			}
			processed.Images = append(processed.Images, pi)
			result.Images = append(result.Images, pi)
		}
		result.Pages = append(result.Pages, processed)

		if i > 0 {
			fullText.WriteString(PageSeparator)
		}
		fullText.WriteString(page.Markdown)
	}
	result.FullText = fullText.String()
	return result
}

// PageOffsets returns the start offset of each page's markdown within the
// full text built by ProcessResult. Search uses these exact boundaries for
// page attribution instead of re-deriving them from separator occurrences,
// so a literal "---" inside page content cannot skew the page number.
func PageOffsets(pages []models.ProcessedOCRPage) []int {
	offsets := make([]int, len(pages))
	pos := 0
	for i, page := range pages {
		offsets[i] = pos
		pos += len(page.Markdown) + len(PageSeparator)
	}
	return offsets
}

// PageForOffset maps an offset in the full text to the 1-based page number
// whose span contains it. Returns 1 when pages is empty.
func PageForOffset(offsets []int, pos int) int {
	page := 1
	for i, off := range offsets {
		if pos < off {
			break
		}
		page = i + 1
	}
	return page
}
