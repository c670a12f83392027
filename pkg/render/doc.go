// Package render holds visualizations of labeled hierarchies.
//
// The [nodelink] subpackage draws a hierarchy as a Graphviz diagram that
// tells spanning-tree edges apart from the edges covered by propagated
// labels.
//
// [nodelink]: github.com/matzehuels/isalabel/pkg/render/nodelink
package render
