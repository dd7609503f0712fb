package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// Context is the optional context block passed to Compose. It is a closed
// variant (ListContext or NamedContext) so rendering stays statically checked
// rather than duck-typed.
type Context interface {
	render() string
}

// ListContext is a flat list of context strings (retrieved memory snippets).
type ListContext []string

func (c ListContext) render() string {
	if len(c) == 0 {
		return noContext
	}
	var sb strings.Builder
	for i, item := range c {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "- %s", item)
	}
	return sb.String()
}

// NamedContext is a mapping of labeled summaries (sibling-agent outputs).
// Rendering sorts by label so identical inputs always produce identical
// prompts.
type NamedContext map[string]string

func (c NamedContext) render() string {
	if len(c) == 0 {
		return noContext
	}
	labels := make([]string, 0, len(c))
	for k := range c {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	var sb strings.Builder
	for i, label := range labels {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "- %s: %s", label, c[label])
	}
	return sb.String()
}

const noContext = "(no additional context)"

// renderContext handles the nil case uniformly for both variants.
func renderContext(ctx Context) string {
	if ctx == nil {
		return noContext
	}
	return ctx.render()
}
