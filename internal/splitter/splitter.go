// Package splitter turns per-page document text into headered sections.
//
// Headers are found with line-anchored heuristics (chapter/section numbering
// and ALL-CAPS lines). The ALL-CAPS pattern is known to false-positive on
// short uppercase acronyms that happen to sit on their own line; that is an
// accepted limitation of the heuristic.
package splitter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Section is a contiguous, headered chunk of document text. It is the
// atomic unit of indexing and citation.
type Section struct {
	Header    string
	Content   string
	StartPage int
}

// Header is a detected section heading at a byte offset within page text.
type Header struct {
	Offset int
	Text   string
}

var headerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^Chapter\s+\d+[.:]\s+.+$`), // Chapter 3: Title
	regexp.MustCompile(`(?m)^\d+\.\d+\s+.+$`),          // 1.2 Topic
	regexp.MustCompile(`(?m)^Section\s+\d+[.:]\s+.+$`), // Section 4. Title
	regexp.MustCompile(`(?m)^[A-Z][A-Z\s]+$`),          // ALL CAPS heading
}

// DetectHeaders applies every header pattern to the text and returns all
// matches ordered by ascending offset. When two patterns match at the same
// offset, pattern-declaration order is preserved.
func DetectHeaders(text string) []Header {
	var headers []Header
	for _, pat := range headerPatterns {
		for _, loc := range pat.FindAllStringIndex(text, -1) {
			headers = append(headers, Header{Offset: loc[0], Text: text[loc[0]:loc[1]]})
		}
	}
	sort.SliceStable(headers, func(i, j int) bool {
		return headers[i].Offset < headers[j].Offset
	})
	return headers
}

// Split folds pages (in ascending page order) into sections. Content before
// the first detected header lands in an implicit "Introduction" section
// starting at the first page that has any text. Sections whose content is
// blank after stripping are dropped.
func Split(pages map[int]string) []Section {
	pageNums := make([]int, 0, len(pages))
	for n := range pages {
		pageNums = append(pageNums, n)
	}
	sort.Ints(pageNums)

	var sections []Section
	current := Section{Header: "Introduction"}

	for _, pageNum := range pageNums {
		pageText := pages[pageNum]

		// Until the first content arrives, the open section starts here.
		if len(sections) == 0 && current.Content == "" {
			current.StartPage = pageNum
		}

		headers := DetectHeaders(pageText)
		if len(headers) == 0 {
			current.Content += "\n\n" + pageText
			continue
		}

		lastPos := 0
		for _, h := range headers {
			if h.Offset > 0 {
				current.Content += "\n\n" + pageText[lastPos:h.Offset]
			}
			if strings.TrimSpace(current.Content) != "" {
				sections = append(sections, current)
			}
			current = Section{Header: h.Text, StartPage: pageNum}
			lastPos = h.Offset + len(h.Text)
		}
		if lastPos < len(pageText) {
			current.Content += pageText[lastPos:]
		}
	}

	if strings.TrimSpace(current.Content) != "" {
		sections = append(sections, current)
	}

	return sections
}

// String implements fmt.Stringer for debug output.
func (s Section) String() string {
	return fmt.Sprintf("%s (p.%d, %d bytes)", s.Header, s.StartPage, len(s.Content))
}
