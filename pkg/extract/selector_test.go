package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectorDoc = `<div class="modal open" id="m1">
  <ul>
    <li class="item"><a href="/in/ann/" role="link"><span dir="ltr">Ann</span></a></li>
    <li class="item vip"><a href="https://example.com/x" data-urn="urn:li:fsd_profile:ACo123"><span dir="rtl">Bob</span></a></li>
  </ul>
</div>`

func parseDoc(t *testing.T, s string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	require.NoError(t, err)
	return doc.Selection
}

func TestSelectorFind(t *testing.T) {
	doc := parseDoc(t, selectorDoc)

	tests := []struct {
		selector string
		want     int
	}{
		{"li", 2},
		{".item.vip", 1},
		{"#m1", 1},
		{`a[href*="/in/"]`, 1},
		{`a[href^="https://"]`, 1},
		{`a[href$="/"]`, 1},
		{`a[data-urn]`, 1},
		{`span[dir=rtl]`, 1},
		{`div[class~=open]`, 1},
		{`a[role="link"] span[dir="ltr"]`, 1},
		{`ul > li > a`, 2},
		{`ul li, #m1`, 3},
		{"table", 0},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			sel, err := ParseSelector(tt.selector)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sel.Find(doc).Length())
		})
	}
}

func TestSelectorClosest(t *testing.T) {
	doc := parseDoc(t, selectorDoc)

	span := MustSelector(`span[dir="rtl"]`).Find(doc).First()
	require.Equal(t, 1, span.Length())

	li := MustSelector("li").Closest(span)
	require.Equal(t, 1, li.Length())
	assert.Equal(t, "item vip", li.AttrOr("class", ""))

	assert.Equal(t, 1, MustSelector("span").Closest(span).Length(), "the node itself counts")
	assert.Zero(t, MustSelector("table").Closest(span).Length())
}

func TestEmptySelectorSelectsNothing(t *testing.T) {
	doc := parseDoc(t, selectorDoc)

	empty, err := ParseSelector("  ")
	require.NoError(t, err)
	assert.True(t, empty.Empty())
	assert.Zero(t, empty.Find(doc).Length())
	assert.Zero(t, empty.Closest(doc.Find("li")).Length())
}

func TestParseSelectorErrors(t *testing.T) {
	for _, bad := range []string{"a[href", ".", "li:nth-child(", "a >"} {
		_, err := ParseSelector(bad)
		assert.Error(t, err, bad)
	}
}
