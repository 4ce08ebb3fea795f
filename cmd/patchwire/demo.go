package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/vango-dev/patchwire/pkg/component"
	"github.com/vango-dev/patchwire/pkg/render"
)

// counter is the component served by `patchwire serve`.
type counter struct {
	component.Base
	Title string
	Count int
	Step  int
}

func newCounter() component.Component {
	return &counter{Title: "Counter", Step: 1}
}

func counterSchema() *component.Schema {
	return component.NewSchema().
		Tracked("count", "step").
		Locked("title").
		Computed("parity")
}

func (c *counter) State() map[string]any {
	return map[string]any{
		"title":  c.Title,
		"count":  c.Count,
		"step":   c.Step,
		"parity": parity(c.Count),
	}
}

func (c *counter) Render(ctx context.Context) (string, error) {
	return render.Templ(ctx, counterView(c))
}

func (c *counter) Hydrate(state map[string]any) error {
	for field, v := range state {
		if err := c.assign(field, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *counter) Set(field string, v any) error {
	return c.assign(field, v)
}

func (c *counter) assign(field string, v any) error {
	switch field {
	case "title":
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("title: want a string, got %T", v)
		}
		c.Title = s
	case "count", "step":
		n, err := toInt(v)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		if field == "count" {
			c.Count = n
		} else {
			c.Step = n
		}
	}
	return nil
}

func (c *counter) Call(_ context.Context, method string, _ []any) error {
	switch method {
	case "increment":
		c.Count += c.Step
	case "decrement":
		c.Count -= c.Step
	case "reset":
		c.Count = 0
	default:
		return fmt.Errorf("unknown method %q", method)
	}
	if c.Count < 0 {
		c.AddError("count", "must not be negative")
		c.Count = 0
	}
	if c.Count%10 == 0 && c.Count != 0 {
		c.Dispatch("milestone", map[string]any{"count": c.Count})
	}
	return nil
}

func counterView(c *counter) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="counter">`)
		fmt.Fprintf(&b, `<h2>%s</h2>`, templ.EscapeString(c.Title))
		fmt.Fprintf(&b, `<p class="%s">Count: %d</p>`, parity(c.Count), c.Count)
		fmt.Fprintf(&b, `<label>Step <input type="number" wire:model="step" value="%d"></label>`, c.Step)
		b.WriteString(`<button data-call="decrement">-</button>`)
		b.WriteString(`<button data-call="increment">+</button>`)
		if c.Count != 0 {
			b.WriteString(`<button data-call="reset">reset</button>`)
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func parity(n int) string {
	if n%2 == 0 {
		return "even"
	}
	return "odd"
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case string:
		var i int
		_, err := fmt.Sscan(n, &i)
		return i, err
	}
	return 0, fmt.Errorf("want a number, got %T", v)
}

// registerDemo adds the demo components to r.
func registerDemo(r *component.Registry) error {
	return r.Register("counter", counterSchema(), newCounter)
}
