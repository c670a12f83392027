package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/isalabel/pkg/errors"
	"github.com/matzehuels/isalabel/pkg/hierarchy"
)

// queryCommand creates the query command.
func (c *CLI) queryCommand() *cobra.Command {
	var kind string
	var show bool

	cmd := &cobra.Command{
		Use:   "query <ancestor-uri> <descendant-uri>",
		Short: "Tell whether one resource subsumes another",
		Long: `Query answers from the saved labels alone whether the first resource is an
ancestor of (or equal to) the second in one hierarchy. Run label first.`,
		Example: `  isalabel query http://xmlns.com/foaf/0.1/Agent http://xmlns.com/foaf/0.1/Person
  isalabel query --kind property --show urn:ex:related urn:ex:hasOwner`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			return c.runQuery(cmd.Context(), k, args[0], args[1], show)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "class", "hierarchy: "+kindNames())
	cmd.Flags().BoolVar(&show, "show", false, "print both labels")

	return cmd
}

func (c *CLI) runQuery(ctx context.Context, kind hierarchy.Kind, a, b string, show bool) error {
	labels, err := c.loadLabels(ctx, kind)
	if err != nil {
		return err
	}
	for _, uri := range []string{a, b} {
		if _, ok := labels.LabelFor(uri); !ok {
			return errors.New(errors.ErrCodeNotFound, "%s has no %s label; run label first", uri, kind)
		}
	}
	la, lb := labels[a], labels[b]

	if show {
		printKeyValue(c.Out, "ancestor", la.String())
		printKeyValue(c.Out, "descendant", lb.String())
	}
	if hierarchy.IsAncestor(la, lb) {
		printSuccess(c.Out, "%s ⊒ %s", a, b)
	} else {
		printFailure(c.Out, "%s ⋣ %s", a, b)
	}
	return nil
}

// loadLabels opens the configured store and loads the labels of kind.
func (c *CLI) loadLabels(ctx context.Context, kind hierarchy.Kind) (hierarchy.MapLabels, error) {
	logger := loggerFromContext(ctx)
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Load(ctx, kind)
}

func kindNames() string {
	names := make([]string, len(hierarchy.Kinds))
	for i, k := range hierarchy.Kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}
