package render

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/vango-dev/patchwire/pkg/vdom"
)

// Templ runs a templ component and returns its markup. Components use it
// inside their Render method:
//
//	func (c *Counter) Render(ctx context.Context) (string, error) {
//		return render.Templ(ctx, counterView(c.Count))
//	}
func Templ(ctx context.Context, c templ.Component) (string, error) {
	if c == nil {
		return "", nil
	}
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Node adapts a built tree to a templ component, so trees made with
// vdom.H can be nested inside templ templates.
func Node(n *vdom.VNode) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return WriteHTML(w, n)
	})
}
