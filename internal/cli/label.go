package cli

import (
	"context"

	"github.com/spf13/cobra"
)

type labelOpts struct {
	scratch bool
	changes bool
}

// labelCommand creates the label command.
func (c *CLI) labelCommand() *cobra.Command {
	var opts labelOpts

	cmd := &cobra.Command{
		Use:   "label [file.nt...]",
		Short: "Label the hierarchies of a schema and save what changed",
		Long: `Label reads the whole schema as N-Triples (from files, or stdin when none
are given), labels every resource the store does not know yet, and saves new
and moved labels together with the per-hierarchy counters.

With --scratch, all hierarchies are labeled from nothing and the store is
neither read nor written.`,
		Example: `  isalabel label schema.nt
  cat a.nt b.nt | isalabel label --changes
  isalabel label --scratch --store none schema.nt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLabel(cmd.Context(), cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.scratch, "scratch", false, "relabel from scratch without touching the store")
	cmd.Flags().BoolVar(&opts.changes, "changes", false, "list every resource whose label changed")

	return cmd
}

func (c *CLI) runLabel(ctx context.Context, cmd *cobra.Command, args []string, opts labelOpts) error {
	logger := loggerFromContext(ctx)
	cfg, err := c.config()
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := newManager(cfg, st, opts.scratch, logger)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	n, err := readTriples(cmd.InOrStdin(), args, m.AddTriple)
	if err != nil {
		return err
	}
	prog.done("Read %d triples", n)

	ctx, cancel := context.WithTimeout(ctx, cfg.Store.LockTimeout)
	defer cancel()
	prog.restart()
	rep, err := m.UpdateLabels(ctx)
	if err != nil {
		return err
	}
	prog.done("Labeled %d resources", rep.Changed())

	printReport(c.Out, rep)
	for _, k := range rep.Kinds {
		for _, e := range k.Broken {
			printWarning(c.Out, "%s cycle broken: dropped %s ⊑ %s", k.Kind, e.Child, e.Parent)
		}
	}
	if opts.changes {
		printChanges(c.Out, rep)
	}
	if !opts.scratch && cfg.Store.Backend == backendNone {
		printWarning(c.Out, "store is %q, nothing was saved", backendNone)
	}
	return nil
}
