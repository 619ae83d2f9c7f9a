package sites

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobsnap/internal/config"
)

func testConfig() *config.Config {
	cfg, _ := config.LoadConfig("")
	return cfg
}

const kakaoListingFixture = `
<html><body>
<div class="list_jobs">
  <a href="/jobs/P-13001?skillSet=SERVER">Server Developer</a>
  <a href="/jobs/P-13002">ML Engineer</a>
  <a href="https://careers.kakao.com/jobs/P-13003?page=2">Product Designer</a>
  <a href="/jobs/P-13001">Server Developer</a>
  <a href="/notice/12345">Not a job link</a>
</div>
</body></html>`

func TestParseKakaoListing(t *testing.T) {
	refs := ParseKakaoListing(kakaoListingFixture)
	require.Len(t, refs, 4)

	assert.Equal(t, "kakao_P-13001", refs[0].JobID)
	assert.Equal(t, "https://careers.kakao.com/jobs/P-13001", refs[0].URL)
	assert.Equal(t, "Server Developer", refs[0].Title)

	// query strings stripped, absolute URLs kept as-is
	assert.Equal(t, "https://careers.kakao.com/jobs/P-13003", refs[2].URL)
	assert.Equal(t, "kakao_P-13003", refs[2].JobID)
}

func TestKakaoIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://careers.kakao.com/jobs/P-13001", "P-13001"},
		{"/jobs/P-9", "P-9"},
		{"https://careers.kakao.com/notice/1", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, kakaoIDFromURL(tt.url), "url=%q", tt.url)
	}
}

func TestKakaoListingURLsCoverAllCategories(t *testing.T) {
	a := NewKakaoAdapter(testConfig(), nil)
	urls := a.ListingURLs()
	require.Len(t, urls, 4)
	assert.Contains(t, urls[0], "part=TECHNOLOGY")
	assert.Contains(t, urls[1], "part=BUSINESS_SERVICES")
	assert.Contains(t, urls[2], "part=DESIGN")
	assert.Contains(t, urls[3], "part=STAFF")
}

// The listing walk appends a page parameter to each seed URL, so every
// seed must already carry its query string.
func TestKakaoListingURLsArePageable(t *testing.T) {
	a := NewKakaoAdapter(testConfig(), nil)
	for _, seed := range a.ListingURLs() {
		paged, err := url.Parse(fmt.Sprintf("%s&page=%d", seed, 2))
		require.NoError(t, err)

		q := paged.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.NotEmpty(t, q.Get("part"))
	}
}

func TestExtractKakaoDetailSections(t *testing.T) {
	html := `<html><body><div class="area_content">
<h2 class="tit_jobs">Server Developer</h2>
<p>카카오 서버 플랫폼을 함께 만들 개발자를 모십니다. 안정적인 대규모 서비스를 운영합니다.</p>
<strong>담당업무</strong>
<p>서버 API 설계 및 개발</p>
<strong>지원자격</strong>
<p>서버 개발 경력 5년 이상</p>
<strong>우대사항</strong>
<p>Kubernetes 운영 경험</p>
</div></body></html>`

	posting := ExtractKakaoDetail(html, "https://careers.kakao.com/jobs/P-13001")

	assert.Equal(t, "kakao_P-13001", posting.JobID)
	assert.Equal(t, "Kakao", posting.Company)
	assert.Equal(t, "Server Developer", posting.Title)
	assert.Contains(t, posting.JobDescription, "서버 API 설계")
	assert.Contains(t, posting.RequiredQualifications, "5년 이상")
	assert.Contains(t, posting.PreferredQualifications, "Kubernetes")
}

func TestKakaoAdapterContract(t *testing.T) {
	a := NewKakaoAdapter(testConfig(), nil)
	assert.Equal(t, "Kakao", a.CompanyName())
	assert.Equal(t, 2, a.MaxConcurrentJobs())
	assert.Equal(t, 3, a.RetryCount())
}
