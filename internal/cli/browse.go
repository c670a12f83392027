package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the saved labels of one hierarchy",
		Long: `Browse lists the saved labels of one hierarchy in label order, so every
subtree appears as a block below its root. Press enter on a resource to mark
everything it subsumes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			labels, err := c.loadLabels(cmd.Context(), k)
			if err != nil {
				return err
			}
			p := tea.NewProgram(NewLabelListModel(k, labels), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "class", "hierarchy: "+kindNames())

	return cmd
}
