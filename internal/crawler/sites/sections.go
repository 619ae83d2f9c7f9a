package sites

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobsnap/pkg/models"
)

// stampPosting fills the bookkeeping fields every adapter sets the same
// way after detail extraction
func stampPosting(posting *models.JobPosting, source string, wait time.Duration, index, sectionCap int) {
	posting.Metadata = map[string]string{
		"crawled_at": time.Now().UTC().Format(time.RFC3339),
		"wait_time":  wait.String(),
		"source":     source,
		"index":      fmt.Sprintf("%d", index),
	}
	posting.CreatedAt = time.Now()
	posting.TruncateSections(sectionCap)
}

// sectionPatterns map Korean and English section headers to posting
// fields. Selectors drift with site redesigns, so matching happens on
// header text instead of CSS classes wherever possible.
var sectionPatterns = []struct {
	field   string
	pattern *regexp.Regexp
}{
	{"job_description", regexp.MustCompile(`(?i)^(주요\s*업무|담당\s*업무|하는\s*일|what you will do|responsibilities)`)},
	{"required_qualifications", regexp.MustCompile(`(?i)^(자격\s*요건|지원\s*자격|필수\s*자격|qualifications|requirements)`)},
	{"preferred_qualifications", regexp.MustCompile(`(?i)^(우대\s*사항|우대\s*요건|preferred|nice to have)`)},
	{"company_description", regexp.MustCompile(`(?i)^(회사\s*소개|기업\s*소개|about (us|the company))`)},
	{"team_description", regexp.MustCompile(`(?i)^(팀\s*소개|조직\s*소개|합류하게\s*될\s*팀|about the team)`)},
	{"selection_process", regexp.MustCompile(`(?i)^(전형\s*절차|채용\s*절차|지원\s*및\s*전형|전형\s*안내|hiring process)`)},
	{"notes", regexp.MustCompile(`(?i)^(기타\s*사항|유의\s*사항|참고\s*사항|안내\s*사항|notes?)$`)},
}

// splitSections walks content text line by line, switching buckets
// whenever a line looks like a section header. Text before the first
// recognized header lands in the job description.
func splitSections(text string) map[string]string {
	buckets := make(map[string][]string)
	current := "job_description"

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		matched := false
		for _, sp := range sectionPatterns {
			if sp.pattern.MatchString(line) {
				current = sp.field
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		buckets[current] = append(buckets[current], line)
	}

	out := make(map[string]string, len(buckets))
	for field, lines := range buckets {
		out[field] = strings.Join(lines, "\n")
	}
	return out
}

// applySections fills posting fields from a section map, leaving fields
// empty when the page exposed nothing for them
func applySections(posting *models.JobPosting, sections map[string]string) {
	posting.JobDescription = sections["job_description"]
	posting.RequiredQualifications = sections["required_qualifications"]
	posting.PreferredQualifications = sections["preferred_qualifications"]
	posting.CompanyDescription = sections["company_description"]
	posting.TeamDescription = sections["team_description"]
	posting.SelectionProcess = sections["selection_process"]
	posting.Notes = sections["notes"]
}

// contentText extracts readable text from the page's main content area,
// trying progressively broader containers
func contentText(doc *goquery.Document) string {
	for _, selector := range []string{
		"[class*='detail-view']",
		"[class*='content']",
		"[class*='description']",
		"main",
		"article",
		"body",
	} {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		text := normalizeText(sel.Text())
		if len(text) > 50 {
			return text
		}
	}
	return ""
}

// firstText returns the trimmed text of the first element matching any selector
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		if sel.Length() > 0 {
			if text := strings.TrimSpace(sel.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// normalizeText collapses whitespace runs while keeping line structure,
// which the section splitter depends on
func normalizeText(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return blankRuns.ReplaceAllString(strings.TrimSpace(strings.Join(lines, "\n")), "\n\n")
}
