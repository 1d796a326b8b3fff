package transform

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// JobAttributes are best-effort fields parsed from free-form posting text.
// Any of them may be empty.
type JobAttributes struct {
	JobType     string
	Location    string
	Company     string
	SalaryRange string
}

var knownLocations = []string{
	"san francisco", "new york", "london", "berlin", "remote",
}

// ParseJobAttributes extracts job type, location, company and salary range
// from an HTML posting body. Postings are prose, so all of this is heuristic.
func ParseJobAttributes(htmlText string) JobAttributes {
	text := strings.ToLower(flattenHTML(htmlText))
	if text == "" {
		return JobAttributes{}
	}

	var attrs JobAttributes

	switch {
	case strings.Contains(text, "full-time"):
		attrs.JobType = "full-time"
	case strings.Contains(text, "contract"):
		attrs.JobType = "contract"
	case strings.Contains(text, "remote"):
		attrs.JobType = "remote"
	default:
		attrs.JobType = "other"
	}

	for _, loc := range knownLocations {
		if strings.Contains(text, loc) {
			attrs.Location = loc
			break
		}
	}

	if _, after, ok := strings.Cut(text, "hiring"); ok {
		if fields := strings.Fields(after); len(fields) > 0 {
			attrs.Company = strings.Trim(fields[0], ".,:;!?")
		}
	}

	if _, after, ok := strings.Cut(text, "salary"); ok {
		if fields := strings.Fields(after); len(fields) > 0 {
			candidate := strings.Trim(fields[0], ".,:;!?")
			if strings.Contains(candidate, "-") {
				attrs.SalaryRange = candidate
			}
		}
	}

	return attrs
}

// flattenHTML strips markup and entity-encodes, returning plain text. Job
// bodies arrive as an HTML fragment.
func flattenHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	// <p> boundaries become spaces so keyword scans do not glue words together.
	doc.Find("p, br").Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}
