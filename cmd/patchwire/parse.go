package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/patchwire/internal/errors"
	"github.com/vango-dev/patchwire/pkg/protocol"
	"github.com/vango-dev/patchwire/pkg/render"
	"github.com/vango-dev/patchwire/pkg/vdom"
)

func parseCmd() *cobra.Command {
	var (
		pretty bool
		asHTML bool
	)

	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse markup into the wire tree",
		Long: `Parse a markup file the way the server parses rendered components
and print the resulting tree in its wire form. Whitespace-only text is
dropped, so the output shows exactly the nodes that paths address.

With --html the tree is printed back as normalized markup instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			tree := vdom.Parse(string(data))
			if asHTML {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), render.HTML(tree))
				return err
			}
			wire, err := protocol.EncodeNode(tree)
			if err != nil {
				return errors.New("P040").Wrap(err)
			}
			return writeJSON(cmd.OutOrStdout(), wire, pretty)
		},
	}

	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "Indent the output")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Print normalized markup")

	return cmd
}
