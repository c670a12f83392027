// Package nodelink renders a labeled hierarchy as a node-link diagram.
//
// # Usage
//
// Convert a hierarchy to DOT, then optionally render it to SVG:
//
//	dot := nodelink.ToDOT(h, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Arrows point from a resource to its superclass, with the root at the top.
// The edge to the parent whose tree label encloses the child's is drawn
// solid. The other is-a edges are the ones answered through propagated
// labels and are drawn dashed.
//
// # Dependencies
//
// SVG output uses [github.com/goccy/go-graphviz], which runs Graphviz in
// process, so no external binary is needed.
package nodelink
