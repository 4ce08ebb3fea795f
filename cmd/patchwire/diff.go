package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/patchwire/internal/errors"
	"github.com/vango-dev/patchwire/pkg/dom"
	"github.com/vango-dev/patchwire/pkg/protocol"
	"github.com/vango-dev/patchwire/pkg/render"
	"github.com/vango-dev/patchwire/pkg/vdom"
)

func diffCmd() *cobra.Command {
	var (
		mode   string
		minify bool
		raw    bool
		pretty bool
	)

	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Print the patches that turn one markup file into another",
		Long: `Parse two markup files and print the patch stream that turns the
first tree into the second, in the selected wire mode.

Patches are optimized unless --raw is given: patches below a removed or
replaced node are dropped.

Examples:
  patchwire diff before.html after.html
  patchwire diff before.html after.html --minify
  patchwire diff before.html - --pretty < after.html`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := wireMode(mode, minify)
			if err != nil {
				return err
			}
			prev, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			next, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}

			patches := vdom.Diff(vdom.Parse(string(prev)), vdom.Parse(string(next)))
			if !raw {
				patches = vdom.OptimizePatches(patches)
			}
			data, err := protocol.NewEncoder(m).EncodePatches(patches)
			if err != nil {
				return errors.New("P040").Wrap(err)
			}
			return writeJSON(cmd.OutOrStdout(), data, pretty)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "full", "Wire mode: full or minified")
	cmd.Flags().BoolVar(&minify, "minify", false, "Shorthand for --mode=minified")
	cmd.Flags().BoolVar(&raw, "raw", false, "Skip the optimizer")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "Indent the output")

	return cmd
}

func applyCmd() *cobra.Command {
	var (
		mode   string
		minify bool
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "apply MARKUP PATCHES",
		Short: "Apply a patch stream to a markup file",
		Long: `Load a markup file into a live document the way the browser client
does, apply a patch stream to it and print the resulting markup.

Patches that do not resolve are skipped with a warning, as in the browser.
With --strict the first such patch is an error.

Examples:
  patchwire diff a.html b.html > patches.json
  patchwire apply a.html patches.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := wireMode(mode, minify)
			if err != nil {
				return err
			}
			markup, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			stream, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}

			patches, err := protocol.NewDecoder(m).DecodePatches(stream)
			if err != nil {
				return errors.New("P040").Wrap(err)
			}

			doc := dom.New(string(markup), dom.WithMode(m))
			if strict {
				for _, p := range patches {
					if err := doc.ApplyPatch(p); err != nil {
						return errors.New("P040").
							WithDetail("patch " + p.String() + " does not apply").
							Wrap(err)
					}
				}
			} else {
				doc.Apply(patches)
			}
			_, err = cmd.OutOrStdout().Write([]byte(render.HTML(doc.Tree()) + "\n"))
			return err
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "full", "Wire mode: full or minified")
	cmd.Flags().BoolVar(&minify, "minify", false, "Shorthand for --mode=minified")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on the first patch that does not apply")

	return cmd
}
