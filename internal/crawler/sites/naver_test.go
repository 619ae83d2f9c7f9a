package sites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const naverListingFixture = `
<html><body>
<ul class="card_list">
  <li class="card_item" onclick="show('30001234')">
    <h4 class="card_title">Backend Engineer</h4>
  </li>
  <li class="card_item">
    <a onclick="card.show('30005678'); return false;">
      <h4 class="card_title">Frontend Engineer</h4>
    </a>
  </li>
  <li class="card_item" data-annoid="30009999">
    <h4 class="card_title">Data Engineer</h4>
  </li>
  <li class="card_item">
    <h4 class="card_title">No ID Card</h4>
  </li>
  <li class="card_item" onclick="show('30001234')">
    <h4 class="card_title">Backend Engineer</h4>
  </li>
</ul>
</body></html>`

func TestParseNaverListing(t *testing.T) {
	refs, err := ParseNaverListing(naverListingFixture)
	require.NoError(t, err)

	// card without any ID source is skipped, duplicate kept here and
	// collapsed later by the registry-level dedupe
	require.Len(t, refs, 4)

	assert.Equal(t, "naver_30001234", refs[0].JobID)
	assert.Equal(t, "Backend Engineer", refs[0].Title)
	assert.Equal(t, "https://recruit.navercorp.com/rcrt/view.do?annoId=30001234", refs[0].URL)

	assert.Equal(t, "naver_30005678", refs[1].JobID)
	assert.Equal(t, "Frontend Engineer", refs[1].Title)

	assert.Equal(t, "naver_30009999", refs[2].JobID)
}

func TestAnnoIDFromOnclick(t *testing.T) {
	tests := []struct {
		onclick string
		want    string
	}{
		{`show('30001234')`, "30001234"},
		{`card.show('30005678'); return false;`, "30005678"},
		{`show("777")`, "777"},
		{`open('123')`, ""},
		{`show(`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, annoIDFromOnclick(tt.onclick), "onclick=%q", tt.onclick)
	}
}

func TestExtractNaverDetailSections(t *testing.T) {
	html := `<html><body><div class="detail-view">
<h4 class="card_title">Backend Engineer</h4>
<p>네이버에서 함께할 백엔드 엔지니어를 찾습니다. 서비스의 핵심 로직을 만듭니다.</p>
<h5>자격요건</h5>
<p>Go 또는 Java 경험 3년 이상</p>
<h5>우대사항</h5>
<p>대규모 트래픽 처리 경험</p>
<h5>전형절차</h5>
<p>서류 - 코딩테스트 - 면접</p>
</div></body></html>`

	posting := ExtractNaverDetail(html, "https://recruit.navercorp.com/rcrt/view.do?annoId=30001234")

	assert.Equal(t, "naver_30001234", posting.JobID)
	assert.Equal(t, "Naver", posting.Company)
	assert.Equal(t, "Backend Engineer", posting.Title)
	assert.Contains(t, posting.JobDescription, "백엔드 엔지니어")
	assert.Contains(t, posting.RequiredQualifications, "Go 또는 Java")
	assert.Contains(t, posting.PreferredQualifications, "대규모 트래픽")
	assert.Contains(t, posting.SelectionProcess, "코딩테스트")
	assert.Equal(t, html, posting.HTMLContent)
}

func TestNaverJobIDFallback(t *testing.T) {
	// URL without an annoId still produces a stable derived ID
	id := naverJobID("https://recruit.navercorp.com/rcrt/somewhere")
	assert.True(t, len(id) > len("naver_"))
	assert.Equal(t, id, naverJobID("https://recruit.navercorp.com/rcrt/somewhere"))
}

func TestNaverAdapterContract(t *testing.T) {
	a := NewNaverAdapter(testConfig(), nil)
	assert.Equal(t, "Naver", a.CompanyName())
	assert.Equal(t, []string{"https://recruit.navercorp.com/rcrt/list.do"}, a.ListingURLs())
	assert.Equal(t, 3, a.MaxConcurrentJobs())
	assert.Equal(t, 3, a.RetryCount())
	assert.Positive(t, a.WaitTime())
	assert.Positive(t, a.Timeout())
}
