package models

import "time"

// JobReference is a minimal handle for one posting discovered on a
// listing page. The detail parse fills in the rest.
type JobReference struct {
	URL   string `json:"url" validate:"required,url"`
	JobID string `json:"job_id" validate:"required"`
	Title string `json:"title,omitempty"`
}

// JobPosting represents a fully parsed job posting
type JobPosting struct {
	URL     string `json:"url" validate:"required"`
	JobID   string `json:"job_id" validate:"required"`
	Company string `json:"company" validate:"required"`
	Title   string `json:"title"`

	// Sites rarely expose machine-parseable dates, so these stay free-form
	PostingDate string `json:"posting_date,omitempty"`
	ClosingDate string `json:"closing_date,omitempty"`

	Location                string `json:"location,omitempty"`
	JobDescription          string `json:"job_description,omitempty"`
	RequiredQualifications  string `json:"required_qualifications,omitempty"`
	PreferredQualifications string `json:"preferred_qualifications,omitempty"`
	CompanyDescription      string `json:"company_description,omitempty"`
	TeamDescription         string `json:"team_description,omitempty"`
	SelectionProcess        string `json:"selection_process,omitempty"`
	Notes                   string `json:"notes,omitempty"`

	// HTMLContent is the rendered DOM at parse time. It is always populated
	// when the detail page was reached, even if every structured field is empty.
	HTMLContent string `json:"html_content,omitempty"`

	// ScreenshotBytes is only present when capture succeeded. Kept out of
	// JSON output; snapshots are persisted as separate artifacts.
	ScreenshotBytes []byte `json:"-"`

	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// TruncateSections clamps every content section to limit characters.
// Limits are adapter-declared and bound storage cost per posting.
func (p *JobPosting) TruncateSections(limit int) {
	if limit <= 0 {
		return
	}
	p.JobDescription = truncate(p.JobDescription, limit)
	p.RequiredQualifications = truncate(p.RequiredQualifications, limit)
	p.PreferredQualifications = truncate(p.PreferredQualifications, limit)
	p.CompanyDescription = truncate(p.CompanyDescription, limit)
	p.TeamDescription = truncate(p.TeamDescription, limit)
	p.SelectionProcess = truncate(p.SelectionProcess, limit)
	p.Notes = truncate(p.Notes, limit)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
