package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/isalabel/pkg/errors"
	"github.com/matzehuels/isalabel/pkg/hierarchy"
	"github.com/matzehuels/isalabel/pkg/rdf"
	"github.com/matzehuels/isalabel/pkg/render/nodelink"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	kind     string // hierarchy to draw
	output   string // output file path, stdout when empty
	format   string // "dot" or "svg"; inferred from output when empty
	detailed bool   // show labels in nodes
	fullURIs bool   // show complete URIs instead of local names
	scratch  bool   // label from nothing instead of loading saved labels
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file.nt...]",
		Short: "Draw one hierarchy with its labels",
		Long: `Render draws one hierarchy of the schema as a Graphviz diagram. Saved labels
are shown as they are; resources without a label are greyed out. Edges to a
resource's spanning-tree parent are solid, all others dashed.`,
		Example: `  isalabel render -o classes.svg schema.nt
  isalabel render --kind property --detailed --format dot schema.nt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.kind, "kind", "k", "class", "hierarchy: "+kindNames())
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: "+strings.Join(nodelink.Formats, ", "))
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show tree and propagated labels")
	cmd.Flags().BoolVar(&opts.fullURIs, "full-uris", false, "show complete URIs")
	cmd.Flags().BoolVar(&opts.scratch, "scratch", false, "label from scratch instead of loading saved labels")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, cmd *cobra.Command, args []string, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	kind, err := parseKind(opts.kind)
	if err != nil {
		return err
	}
	format := opts.format
	if format == "" {
		format = "dot"
		if ext := strings.TrimPrefix(filepath.Ext(opts.output), "."); nodelink.IsFormat(ext) {
			format = ext
		}
	}
	if !nodelink.IsFormat(format) {
		return errors.New(errors.ErrCodeInvalidInput, "unknown format %q", format)
	}
	cfg, err := c.config()
	if err != nil {
		return err
	}

	b := rdf.NewBuilder(rdf.WithLogger(logger))
	if _, err := readTriples(cmd.InOrStdin(), args, func(t rdf.Triple) error {
		b.Add(t)
		return nil
	}); err != nil {
		return err
	}
	g := b.BuildKind(kind, nil)

	var labels hierarchy.MapLabels
	if !opts.scratch {
		if labels, err = c.loadLabels(ctx, kind); err != nil {
			return err
		}
	}
	h, err := hierarchy.NewMainMemory(kind, g.Graph, g.Root, labels, hierarchy.WithUniverse(cfg.Universe))
	if err != nil {
		return err
	}
	if opts.scratch {
		l, err := newLabeler(cfg, logger)
		if err != nil {
			return err
		}
		if _, err := l.AssignLabels(ctx, h); err != nil {
			return err
		}
	}

	prog := newProgress(logger)
	out := []byte(nodelink.ToDOT(h, nodelink.Options{Detailed: opts.detailed, FullURIs: opts.fullURIs}))
	if format == "svg" {
		if out, err = nodelink.RenderSVG(ctx, string(out)); err != nil {
			return err
		}
	}
	prog.done("Rendered %d %s resources", g.Graph.NodeCount(), kind)

	if opts.output == "" {
		_, err := c.Out.Write(out)
		return err
	}
	if err := os.WriteFile(opts.output, out, 0644); err != nil {
		return err
	}
	printSuccess(c.Out, "wrote %s", opts.output)
	return nil
}
