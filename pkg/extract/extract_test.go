package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engage/pkg/identity"
)

var lockupRules = Rules{
	Scope:    ".lockup, li",
	Name:     []string{`span[dir="ltr"]`, ".lockup__title"},
	Headline: []string{".lockup__caption", ".lockup__subtitle"},
	Degree:   []string{".lockup__degree"},
}

const reactorsMarkup = `<ul>
<li>
  <div class="lockup" data-urn="urn:li:fsd_profile:ACoAAB1234567890xyz">
    <a href="/in/jane-doe?miniProfileUrn=x">
      <span dir="ltr">Jane Doe</span><span class="visually-hidden">Jane Doe</span>
    </a>
    <span class="lockup__degree">· 2nd</span>
    <div class="lockup__caption">Jane Doe Staff Engineer, Acme</div>
  </div>
</li>
<li>
  <div class="lockup">
    <a href="https://www.linkedin.com/in/ACoAAC9999999999/">
      <div class="lockup__title">Sam   Lee Sam Lee</div>
    </a>
    <div class="lockup__subtitle">Founder • 3rd+</div>
  </div>
</li>
</ul>`

func TestExtractLockups(t *testing.T) {
	e := MustNew(lockupRules)

	got, err := e.Extract(reactorsMarkup)
	require.NoError(t, err)
	require.Len(t, got, 2)

	jane := got[0]
	assert.Equal(t, "/in/jane-doe?miniProfileUrn=x", jane.Href)
	assert.Equal(t, "Jane Doe", jane.Name)
	assert.Equal(t, "Staff Engineer, Acme", jane.Headline)
	assert.Equal(t, "2nd", jane.Degree)
	require.NotEmpty(t, jane.Context)
	assert.Contains(t, jane.Context[0], "<a ")

	url, ok := identity.NormalizeProfileURL(jane.Href, "")
	require.True(t, ok)
	assert.Equal(t, "ACoAAB1234567890xyz", identity.CanonicalKey(jane.Context, url))

	sam := got[1]
	assert.Equal(t, "Sam Lee", sam.Name)
	assert.Equal(t, "Founder • 3rd+", sam.Headline)
	assert.Equal(t, "3rd+", sam.Degree)
}

func TestExtractItems(t *testing.T) {
	e := MustNew(Rules{
		Item:     "article.comment",
		Name:     []string{".comment__name"},
		Headline: []string{".comment__headline"},
	})

	markup := `<section>
<article class="comment"><a href="/in/amy/"><span class="comment__name">Amy Ng</span></a><p class="comment__headline">PM</p></article>
<article class="comment"><p>deleted account</p></article>
<article class="comment"><a href="/in/bo/">Bo Chen</a><p class="comment__headline">Bo Chen | Designer</p></article>
</section>`

	got, err := e.Extract(markup)
	require.NoError(t, err)
	require.Len(t, got, 2, "items without a profile link are skipped")

	assert.Equal(t, "Amy Ng", got[0].Name)
	assert.Equal(t, "PM", got[0].Headline)
	assert.Equal(t, "Bo Chen", got[1].Name, "falls back to link text")
	assert.Equal(t, "| Designer", got[1].Headline)
}

func TestContextChainIsBounded(t *testing.T) {
	e := MustNew(Rules{})
	markup := `<div id="a"><div id="b"><div id="c"><div id="d"><div id="e"><a href="/in/deep/">x</a></div></div></div></div></div>`

	got, err := e.Extract(markup)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Context, identity.MaxContextDepth)
}

func TestAnchorTextFallbackNeedsTwoWords(t *testing.T) {
	e := MustNew(Rules{})

	got, err := e.Extract(`<p><a href="/in/solo/">solo</a></p>`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Name)
}

func TestNewRejectsBadRules(t *testing.T) {
	_, err := New(Rules{Name: []string{"span[dir"}})
	assert.Error(t, err)
}
