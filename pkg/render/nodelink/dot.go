package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/isalabel/pkg/dag"
	"github.com/matzehuels/isalabel/pkg/hierarchy"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes the tree label and propagated labels in node
	// labels. When false, only the local name of the resource is shown.
	Detailed bool
	// FullURIs shows complete URIs instead of local names.
	FullURIs bool
}

// ToDOT converts a labeled hierarchy to Graphviz DOT format. Edges to the
// spanning-tree parent are solid; every other is-a edge is dashed. Nodes
// without a tree label are filled grey.
//
// Only working labels are read, so h must not be labeled concurrently.
func ToDOT(h hierarchy.Hierarchy, opts Options) string {
	g := h.Graph()
	nodes := h.ExploredNodes()

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range nodes {
		label := fmtLabel(h, n, opts)
		attrs := fmtAttrs(h, n, label)
		fmt.Fprintf(&buf, "  n%d [%s];\n", n, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, n := range nodes {
		tp := treeParent(h, n)
		for _, p := range g.Parents(n) {
			if p == tp {
				fmt.Fprintf(&buf, "  n%d -> n%d;\n", n, p)
			} else {
				fmt.Fprintf(&buf, "  n%d -> n%d [style=dashed, color=grey40];\n", n, p)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// treeParent returns the parent whose tree label contains n's, or n itself
// when there is none.
func treeParent(h hierarchy.Hierarchy, n dag.NodeID) dag.NodeID {
	tree := h.LabelOf(n).Tree()
	if tree.IsEmpty() {
		return n
	}
	for _, p := range h.Graph().Parents(n) {
		if h.LabelOf(p).Tree().StrictlyContains(tree) {
			return p
		}
	}
	return n
}

func fmtLabel(h hierarchy.Hierarchy, n dag.NodeID, opts Options) string {
	name := h.Graph().URI(n)
	if name == "" {
		name = fmt.Sprintf("#%d", n)
	} else if !opts.FullURIs {
		name = LocalName(name)
	}
	if !opts.Detailed {
		return name
	}

	l := h.LabelOf(n)
	parts := []string{"tree: " + l.Tree().String()}
	for _, iv := range l.Direct() {
		parts = append(parts, "direct: "+iv.String())
	}
	for _, iv := range l.Indirect() {
		parts = append(parts, "indirect: "+iv.String())
	}
	return name + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(h hierarchy.Hierarchy, n dag.NodeID, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case n == h.Root():
		attrs = append(attrs, "penwidth=2")
	case !h.LabelOf(n).HasTree():
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

// LocalName returns the part of uri after the last '#', '/' or ':'.
func LocalName(uri string) string {
	if i := strings.LastIndexAny(uri, "#/:"); i >= 0 && i < len(uri)-1 {
		return uri[i+1:]
	}
	return uri
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// Formats lists the output formats of the render command.
var Formats = []string{"dot", "svg"}

// IsFormat reports whether f is one of [Formats].
func IsFormat(f string) bool { return slices.Contains(Formats, f) }
