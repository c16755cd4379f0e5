package browser

import (
	"engage/pkg/extract"
	"engage/pkg/identity"
)

// Selectors shared by the page scripts.
const (
	reactorsModal = `.social-details-reactors-modal`
	repostsModal  = `.social-details-social-activity-modal, [data-test-modal-id*="repost"]`
	anyModal      = `[role="dialog"], .artdeco-modal`
	loadButton    = `.scaffold-finite-scroll__load-button`
	commentItems  = `.comments-comment-entity, [data-test-comment], .comments-comment-item, article.comments-comment-item, .comments-comment-item--actor, div[data-id*="comment"], li[data-id*="comment"]`
	profileAnchor = `a[href*="/in/"], a[href*="/pub/"]`
)

// helpers is prepended to every page script.
const helpers = `
const visible = el => !!el && el.offsetParent !== null;
const byText = (root, pats) => {
  for (const b of root.querySelectorAll('button, a, div[role="button"], span[role="button"]')) {
    const t = (b.innerText || b.textContent || '').trim().toLowerCase();
    if (!t) continue;
    for (const p of pats) {
      if (p instanceof RegExp ? p.test(t) : t.includes(p)) return b;
    }
  }
  return null;
};
const scroller = m => m && (m.querySelector('.scaffold-finite-scroll') || m.querySelector('[data-scrollable="true"]') || m.querySelector('[data-view-name*="reactors"]') || m.querySelector('.artdeco-modal__content') || m);
const canScroll = s => !!s && s.scrollTop + s.clientHeight < s.scrollHeight - 4;
const repostsModal = () => {
  for (const m of document.querySelectorAll('[role="dialog"], .artdeco-modal, [data-test-modal]')) {
    if (m.matches('` + reactorsModal + `')) continue;
    const t = (m.innerText || '').toLowerCase();
    if (t.includes('repost') || t.includes('shared this')) return m;
  }
  const m = document.querySelector('` + repostsModal + `');
  if (m) return m;
  const d = document.querySelector('[role="dialog"]:not(` + reactorsModal + `)');
  return d && d.querySelector('a[href*="/in/"]') ? d : null;
};
const repostCount = () => {
  const b = document.querySelector('button.social-details-social-counts__btn[aria-label*="repost"]');
  if (b) return b;
  for (const el of document.querySelectorAll('.social-details-social-counts__item button, .social-details-social-counts__count-value button, .social-details-social-counts__item, button, a, span')) {
    if (/\d+\s+repost/i.test((el.innerText || el.textContent || '').trim())) return el;
  }
  return null;
};
const moreComments = () => byText(document, [/load more comments|view more comments|see more comments|show more comments|more comments|load previous comments|view previous comments/])
  || byText(document, ['previous']);
`

// triggerSpec is one way of opening a panel: an expression yielding the
// element to click, or null.
type triggerSpec struct {
	name string
	find string
}

// panelDef describes one category's panel as page script fragments. root
// yields the panel element or null; the other fragments may use it as r.
type panelDef struct {
	cat       identity.Category
	root      string
	available string
	triggers  []triggerSpec
	markup    string
	loadMore  string
	expected  string
	signal    string
	rules     extract.Rules
}

var lockupRules = extract.Rules{
	Anchor: profileAnchor,
	Scope:  `.artdeco-entity-lockup, .display-flex, .comments-comment-entity, li, div`,
	Name: []string{
		`span[dir="ltr"]`,
		`.artdeco-entity-lockup__title`,
		`a[aria-hidden="false"] span[dir="ltr"]`,
		`a[role="link"] span[dir="ltr"]`,
	},
	Headline: []string{
		`.artdeco-entity-lockup__subtitle`,
		`.artdeco-entity-lockup__caption`,
		`.t-12.t-black--light`,
		`.t-14.t-black--light`,
		`span.t-12`,
		`div[dir="ltr"]`,
	},
	Degree: []string{`.artdeco-entity-lockup__degree`},
}

var commentRules = extract.Rules{
	Item:   commentItems,
	Anchor: `a[href^="https://www.linkedin.com/in"], a[href^="/in/"], a[href^="https://www.linkedin.com/pub"]`,
	Name: []string{
		`.comments-comment-meta__description-title`,
		`.comments-post-meta__name`,
		`.comments-comment-meta__profile-link`,
		`a[href*="/in/"] span[aria-hidden="true"]`,
		`.comments-comment-item__main-content a span`,
		`span.hoverable-link-text`,
	},
	Headline: []string{
		`.comments-comment-meta__description-subtitle`,
		`.comments-post-meta__headline`,
		`.comments-comment-meta__description`,
		`.t-12.t-black--light`,
		`.t-14.t-black--light`,
	},
	Degree: []string{`.artdeco-entity-lockup__degree`},
}

const modalLoadMore = `(r && (r.querySelector('` + loadButton + `') || byText(r, ['show more', 'load more', 'more results'])))`

// linkedInPanels describes the reactions, comments and reposts panels.
func linkedInPanels() []panelDef {
	return []panelDef{
		{
			cat:  identity.Reactor,
			root: `document.querySelector('` + reactorsModal + `')`,
			triggers: []triggerSpec{
				{name: "count button", find: `byText(document, [/^\+\d+$/])`},
				{name: "summary link", find: `byText(document, ['others', 'reactions', 'reacted', 'likes'])`},
				{name: "launcher", find: `document.querySelector('[data-control-name*="reactions"], [data-test-reactions-modal-launcher], [aria-label*="reactions"]')`},
			},
			markup:   `return r ? r.outerHTML : '';`,
			loadMore: modalLoadMore,
			expected: `if (!r) return null;
  for (const e of r.querySelectorAll('*')) {
    const m = (e.innerText || '').trim().match(/all\s+(\d+)/i);
    if (m) return parseInt(m[1], 10);
  }
  return null;`,
			signal: `const s = scroller(r); return s ? s.scrollHeight : 0;`,
			rules:  lockupRules,
		},
		{
			cat:  identity.Commenter,
			root: `document`,
			markup: `const items = Array.from(document.querySelectorAll('` + commentItems + `'))
    .filter(i => !i.closest('` + reactorsModal + `, .social-details-social-activity-modal'))
    .filter(i => !i.parentElement || !i.parentElement.closest('` + commentItems + `'));
  return '<div>' + items.map(i => i.outerHTML).join('') + '</div>';`,
			loadMore: `moreComments()`,
			signal:   `return document.querySelectorAll('` + commentItems + `').length;`,
			rules:    commentRules,
		},
		{
			cat:       identity.Reposter,
			root:      `repostsModal()`,
			available: `return !!r || !!repostCount();`,
			triggers: []triggerSpec{
				{name: "repost count", find: `repostCount()`},
			},
			markup:   `return r ? r.outerHTML : '';`,
			loadMore: modalLoadMore,
			signal:   `const s = scroller(r); return s ? s.scrollHeight : 0;`,
			rules:    lockupRules,
		},
	}
}

// selfScript finds the signed-in viewer's profile link in the navigation.
const selfScript = `
for (const sel of ['a.global-nav__primary-link--me', 'button.global-nav__primary-link--me-menu-trigger img', '.global-nav__me-photo', '[data-control-name="identity_profile_photo"]']) {
  const el = document.querySelector(sel);
  const a = el && (el.tagName === 'A' ? el : el.closest('a'));
  if (a && a.href && a.href.includes('/in/')) return a.href;
}
const nav = document.querySelector('.global-nav');
if (nav) {
  for (const a of nav.querySelectorAll('a[href*="/in/"]')) {
    const h = a.getAttribute('href');
    if (h && !h.includes('/detail/') && !h.includes('/recent-activity/')) return a.href;
  }
}
return '';`

const countOverlaysScript = `
const seen = new Set();
for (const m of document.querySelectorAll('` + anyModal + `')) {
  if (m.style.display !== 'none') seen.add(m);
}
return seen.size;`

const dismissScript = `
let n = 0;
for (const sel of ['[data-test-modal-close-btn]', '.artdeco-modal__dismiss', 'button[aria-label*="Dismiss"]', 'button[aria-label*="Close"]']) {
  for (const b of document.querySelectorAll(sel)) {
    if (visible(b) && b.closest('` + anyModal + `')) {
      try { b.click(); n++; } catch (e) {}
    }
  }
}
return n;`

const detachScript = `
let n = 0;
for (const m of document.querySelectorAll('` + anyModal + `')) {
  try { m.style.display = 'none'; m.remove(); n++; } catch (e) {}
}
return n;`
