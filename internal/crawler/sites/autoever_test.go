package sites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBuildID(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "data url",
			html: `<link href="/_next/data/AbCdEf123456/ko/apply.json">`,
			want: "AbCdEf123456",
		},
		{
			name: "static asset url",
			html: `<script src="/_next/static/1Zpy49sCh_Kc82YSMD2YB/chunks/main.js"></script>`,
			want: "1Zpy49sCh_Kc82YSMD2YB",
		},
		{
			name: "inline bootstrap json",
			html: `<script>{"props":{},"buildId":"xYz_9876abc","page":"/apply"}</script>`,
			want: "xYz_9876abc",
		},
		{
			name: "asset-looking candidates rejected",
			html: `<link href="/_next/data/css/app.json"><script>{"buildId":"mainjs"}</script>`,
			want: "",
		},
		{
			name: "too short rejected",
			html: `<link href="/_next/data/ab1/x.json">`,
			want: "",
		},
		{
			name: "no token",
			html: `<html><body>plain page</body></html>`,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractBuildID(tt.html))
		})
	}
}

func TestParseAutoEverOpenings(t *testing.T) {
	body := `{
	  "pageProps": {
	    "dehydratedState": {
	      "queries": [
	        {"queryKey": ["departments"], "state": {"data": [{"id": "x"}]}},
	        {"queryKey": ["openings", "ko"], "state": {"data": [
	          {"openingId": "91001", "title": "Cloud Platform Engineer"},
	          {"openingId": "91002", "title": "SW Quality Engineer"},
	          {"title": "Missing ID Entry"}
	        ]}}
	      ]
	    }
	  }
	}`

	refs := ParseAutoEverOpenings(body)
	require.Len(t, refs, 2)

	assert.Equal(t, "hyundai_91001", refs[0].JobID)
	assert.Equal(t, "Cloud Platform Engineer", refs[0].Title)
	assert.Equal(t, "https://career.hyundai-autoever.com/ko/o/91001", refs[0].URL)
	assert.Equal(t, "hyundai_91002", refs[1].JobID)
}

func TestParseAutoEverOpeningsMalformed(t *testing.T) {
	assert.Empty(t, ParseAutoEverOpenings(`not json at all`))
	assert.Empty(t, ParseAutoEverOpenings(`{"pageProps":{}}`))
}

func TestParseAutoEverDOMFallback(t *testing.T) {
	html := `<html><body>
	<a href="/ko/o/91001?ref=list">Cloud Platform Engineer</a>
	<a href="https://career.hyundai-autoever.com/ko/o/91002">SW Quality Engineer</a>
	<a href="/ko/apply">All openings</a>
	</body></html>`

	refs := parseAutoEverDOM(html)
	require.Len(t, refs, 2)
	assert.Equal(t, "hyundai_91001", refs[0].JobID)
	assert.Equal(t, "https://career.hyundai-autoever.com/ko/o/91001", refs[0].URL)
	assert.Equal(t, "SW Quality Engineer", refs[1].Title)
}

func TestExtractAutoEverDetail(t *testing.T) {
	html := `<html><body><main>
<h1>Cloud Platform Engineer</h1>
<p>현대오토에버 클라우드 플랫폼을 함께 만들어갈 엔지니어를 찾습니다. 사내 인프라 전반을 담당합니다.</p>
<h3>자격요건</h3>
<p>클라우드 인프라 운영 경험</p>
<h3>우대사항</h3>
<p>Terraform 사용 경험</p>
</main></body></html>`

	posting := ExtractAutoEverDetail(html, "https://career.hyundai-autoever.com/ko/o/91001")

	assert.Equal(t, "hyundai_91001", posting.JobID)
	assert.Equal(t, "HyundaiAutoEver", posting.Company)
	assert.Equal(t, "Cloud Platform Engineer", posting.Title)
	assert.Contains(t, posting.RequiredQualifications, "클라우드 인프라")
	assert.Contains(t, posting.PreferredQualifications, "Terraform")
}

func TestAutoEverAdapterContract(t *testing.T) {
	a := NewAutoEverAdapter(testConfig(), nil)
	assert.Equal(t, "HyundaiAutoEver", a.CompanyName())
	assert.Equal(t, []string{"https://career.hyundai-autoever.com/ko/apply"}, a.ListingURLs())
	assert.Equal(t, 4, a.MaxConcurrentJobs())
}
