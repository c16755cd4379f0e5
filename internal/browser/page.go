package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	errs "engage/pkg/errors"
	"engage/pkg/extract"
	"engage/pkg/identity"
	"engage/pkg/logger"
	"engage/pkg/surface"
)

// script wraps body into a page function with the shared helpers in scope.
// When root is set its value is bound to r.
func script(root, body string) string {
	var b strings.Builder
	b.WriteString("() => {\n")
	b.WriteString(helpers)
	if root != "" {
		b.WriteString("const r = (" + root + ");\n")
	}
	b.WriteString(body)
	b.WriteString("\n}")
	return b.String()
}

// Page is a loaded post. It implements surface.Page.
type Page struct {
	page   *rod.Page
	source string
	logger logger.Logger
	panels map[identity.Category]*Panel
}

func (p *Page) eval(ctx context.Context, js string) (*proto.RuntimeRemoteObject, error) {
	res, err := p.page.Context(ctx).Eval(js)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeExtraction, "evaluate page script", err)
	}
	return res, nil
}

func (p *Page) evalInt(ctx context.Context, js string) int {
	res, err := p.eval(ctx, js)
	if err != nil {
		p.logger.WithError(err).Debug("Page script failed")
		return 0
	}
	return res.Value.Int()
}

func (p *Page) evalBool(ctx context.Context, js string) bool {
	res, err := p.eval(ctx, js)
	if err != nil {
		p.logger.WithError(err).Debug("Page script failed")
		return false
	}
	return res.Value.Bool()
}

func (p *Page) SourceReference() string { return p.source }

func (p *Page) SelfIdentity(ctx context.Context) (string, bool) {
	res, err := p.eval(ctx, script("", selfScript))
	if err != nil {
		return "", false
	}
	href := res.Value.Str()
	return href, href != ""
}

func (p *Page) Panel(c identity.Category) surface.Panel {
	return p.panels[c]
}

func (p *Page) OpenOverlays(ctx context.Context) int {
	return p.evalInt(ctx, script("", countOverlaysScript))
}

func (p *Page) ClickDismissControls(ctx context.Context) (int, error) {
	res, err := p.eval(ctx, script("", dismissScript))
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (p *Page) SendCancelKey(ctx context.Context) error {
	return p.page.Context(ctx).Keyboard.Type(input.Escape)
}

func (p *Page) DetachOverlays(ctx context.Context) (int, error) {
	res, err := p.eval(ctx, script("", detachScript))
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

// Panel is one category's list on the page. It implements surface.Panel.
type Panel struct {
	page      *Page
	def       panelDef
	extractor *extract.Extractor
}

func (p *Panel) js(body string) string {
	return script(p.def.root, body)
}

func (p *Panel) Category() identity.Category { return p.def.cat }

func (p *Panel) Available(ctx context.Context) bool {
	if p.def.available == "" {
		return true
	}
	return p.page.evalBool(ctx, p.js(p.def.available))
}

func (p *Panel) IsOpen(ctx context.Context) bool {
	return p.page.evalBool(ctx, p.js("return !!r;"))
}

func (p *Panel) Triggers(context.Context) []surface.Trigger {
	out := make([]surface.Trigger, 0, len(p.def.triggers))
	for _, t := range p.def.triggers {
		out = append(out, surface.Trigger{
			Name: t.name,
			Fire: func(ctx context.Context) error {
				clicked := p.page.evalBool(ctx, script("", `const el = (`+t.find+`);
if (!el) return false;
try { el.scrollIntoView({block: 'center'}); } catch (e) {}
el.click();
return true;`))
				if !clicked {
					return errs.New(errs.ErrorTypePanel, fmt.Sprintf("%s not found", t.name))
				}
				return nil
			},
		})
	}
	return out
}

func (p *Panel) Visible(ctx context.Context) ([]surface.Entity, error) {
	res, err := p.page.eval(ctx, p.js(p.def.markup))
	if err != nil {
		return nil, err
	}
	markup := res.Value.Str()
	if markup == "" {
		return nil, nil
	}
	return p.extractor.Extract(markup)
}

func (p *Panel) CanLoadMore(ctx context.Context) bool {
	return p.page.evalBool(ctx, p.js(`const b = `+p.def.loadMore+`;
if (visible(b)) return true;
return r !== document && canScroll(scroller(r));`))
}

func (p *Panel) LoadMore(ctx context.Context) error {
	res, err := p.page.eval(ctx, p.js(`const b = `+p.def.loadMore+`;
if (visible(b)) { b.click(); return 'click'; }
const s = r !== document && scroller(r);
if (canScroll(s)) { s.scrollTop = s.scrollHeight; return 'scroll'; }
return '';`))
	if err != nil {
		return err
	}
	if res.Value.Str() == "" {
		return errs.New(errs.ErrorTypePanel, "nothing to load")
	}
	return nil
}

func (p *Panel) ExpectedTotal(ctx context.Context) (int, bool) {
	if p.def.expected == "" {
		return 0, false
	}
	res, err := p.page.eval(ctx, p.js(p.def.expected))
	if err != nil || res.Value.Nil() {
		return 0, false
	}
	return res.Value.Int(), true
}

func (p *Panel) ScrollSignal(ctx context.Context) int64 {
	res, err := p.page.eval(ctx, p.js(p.def.signal))
	if err != nil {
		return 0
	}
	return int64(res.Value.Int())
}

var (
	_ surface.Page  = (*Page)(nil)
	_ surface.Panel = (*Panel)(nil)
)
